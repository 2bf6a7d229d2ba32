package stock

import (
	"context"
	"encoding/json"

	"github.com/artisanmarket/inventory/internal/pkg/errors"
	"github.com/artisanmarket/inventory/internal/usecases"
)

// CheckInventoryInput is the input for the bulk availability check
type CheckInventoryInput struct {
	ProductIDs []string `json:"productIds"`
}

// CheckInventoryActivity wraps the bulk inventory projection as a workflow
// activity
func CheckInventoryActivity(uc *usecases.CheckInventory) func(ctx context.Context, input []byte) ([]byte, error) {
	return func(ctx context.Context, input []byte) ([]byte, error) {
		var inp CheckInventoryInput
		if err := json.Unmarshal(input, &inp); err != nil {
			return nil, errors.NewPermanentError("INVALID_INPUT", "failed to unmarshal check input", err)
		}

		result, err := uc.ExecuteBulk(ctx, inp.ProductIDs)
		if err != nil {
			return nil, err
		}

		output, err := json.Marshal(result)
		if err != nil {
			return nil, errors.NewPermanentError("SERIALIZATION_ERROR", "failed to marshal check output", err)
		}
		return output, nil
	}
}
