package usecases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisanmarket/inventory/internal/domain"
	"github.com/artisanmarket/inventory/internal/pkg/errors"
	"github.com/artisanmarket/inventory/internal/usecases"
)

func newReplenish(f *fixture) *usecases.ReplenishStock {
	return usecases.NewReplenishStock(f.products, f.publisher, f.logger, f.metrics)
}

func TestReplenishStock_Success(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, 5, 0, 10)
	uc := newReplenish(f)

	result, err := uc.Execute(context.Background(), usecases.ReplenishStockInput{
		ProductID: productID,
		Quantity:  45,
		Reason:    "supplier_delivery",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), result.PreviousStock)
	assert.Equal(t, int64(50), result.CurrentStock)
	assert.Equal(t, domain.StockStatusInStock, result.StockStatus)

	events := f.publisher.EventsOfType(domain.EventStockReplenished)
	require.Len(t, events, 1)
	data, ok := events[0].EventData.(domain.StockReplenishedData)
	require.True(t, ok)
	assert.Equal(t, int64(45), data.Quantity)
	assert.Equal(t, "supplier_delivery", data.Reason)
}

func TestReplenishStock_Validation(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, 5, 0, 10)
	uc := newReplenish(f)

	_, err := uc.Execute(context.Background(), usecases.ReplenishStockInput{ProductID: productID, Quantity: 0, Reason: "r"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	_, err = uc.Execute(context.Background(), usecases.ReplenishStockInput{ProductID: productID, Quantity: 5})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
}
