package stock

import (
	"context"
	"encoding/json"

	"github.com/artisanmarket/inventory/internal/pkg/errors"
	"github.com/artisanmarket/inventory/internal/usecases"
)

// ReserveStockActivity wraps the reserve use-case as a workflow activity.
// An insufficient-stock outcome travels in the output payload, not as an
// activity error, so orchestrators branch on it without tripping retries.
func ReserveStockActivity(uc *usecases.ReserveStock) func(ctx context.Context, input []byte) ([]byte, error) {
	return func(ctx context.Context, input []byte) ([]byte, error) {
		var inp usecases.ReserveStockInput
		if err := json.Unmarshal(input, &inp); err != nil {
			return nil, errors.NewPermanentError("INVALID_INPUT", "failed to unmarshal reserve input", err)
		}

		result, err := uc.Execute(ctx, inp)
		if err != nil {
			return nil, err
		}

		output, err := json.Marshal(result)
		if err != nil {
			return nil, errors.NewPermanentError("SERIALIZATION_ERROR", "failed to marshal reserve output", err)
		}
		return output, nil
	}
}
