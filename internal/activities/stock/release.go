package stock

import (
	"context"
	"encoding/json"

	"github.com/artisanmarket/inventory/internal/pkg/errors"
	"github.com/artisanmarket/inventory/internal/usecases"
)

// ReleaseStockActivity wraps the release use-case as a workflow activity
func ReleaseStockActivity(uc *usecases.ReleaseStock) func(ctx context.Context, input []byte) ([]byte, error) {
	return func(ctx context.Context, input []byte) ([]byte, error) {
		var inp usecases.ReleaseStockInput
		if err := json.Unmarshal(input, &inp); err != nil {
			return nil, errors.NewPermanentError("INVALID_INPUT", "failed to unmarshal release input", err)
		}

		result, err := uc.Execute(ctx, inp)
		if err != nil {
			return nil, err
		}

		output, err := json.Marshal(result)
		if err != nil {
			return nil, errors.NewPermanentError("SERIALIZATION_ERROR", "failed to marshal release output", err)
		}
		return output, nil
	}
}
