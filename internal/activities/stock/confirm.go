package stock

import (
	"context"
	"encoding/json"

	"github.com/artisanmarket/inventory/internal/pkg/errors"
	"github.com/artisanmarket/inventory/internal/usecases"
)

// ConfirmStockActivity wraps the confirm use-case as a workflow activity
func ConfirmStockActivity(uc *usecases.ConfirmStock) func(ctx context.Context, input []byte) ([]byte, error) {
	return func(ctx context.Context, input []byte) ([]byte, error) {
		var inp usecases.ConfirmStockInput
		if err := json.Unmarshal(input, &inp); err != nil {
			return nil, errors.NewPermanentError("INVALID_INPUT", "failed to unmarshal confirm input", err)
		}

		result, err := uc.Execute(ctx, inp)
		if err != nil {
			return nil, err
		}

		output, err := json.Marshal(result)
		if err != nil {
			return nil, errors.NewPermanentError("SERIALIZATION_ERROR", "failed to marshal confirm output", err)
		}
		return output, nil
	}
}
