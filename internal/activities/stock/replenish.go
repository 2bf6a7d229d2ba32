package stock

import (
	"context"
	"encoding/json"

	"github.com/artisanmarket/inventory/internal/pkg/errors"
	"github.com/artisanmarket/inventory/internal/usecases"
)

// ReplenishStockActivity wraps the replenish use-case as a workflow activity
func ReplenishStockActivity(uc *usecases.ReplenishStock) func(ctx context.Context, input []byte) ([]byte, error) {
	return func(ctx context.Context, input []byte) ([]byte, error) {
		var inp usecases.ReplenishStockInput
		if err := json.Unmarshal(input, &inp); err != nil {
			return nil, errors.NewPermanentError("INVALID_INPUT", "failed to unmarshal replenish input", err)
		}

		result, err := uc.Execute(ctx, inp)
		if err != nil {
			return nil, err
		}

		output, err := json.Marshal(result)
		if err != nil {
			return nil, errors.NewPermanentError("SERIALIZATION_ERROR", "failed to marshal replenish output", err)
		}
		return output, nil
	}
}
