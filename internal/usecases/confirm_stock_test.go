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

func newConfirm(f *fixture) *usecases.ConfirmStock {
	return usecases.NewConfirmStock(f.products, f.reservations, f.publisher, f.logger, f.metrics)
}

func TestConfirmStock_Success(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, 100, 0, 10)
	reserve := newReserve(f)
	confirm := newConfirm(f)

	reserved, err := reserve.Execute(context.Background(), usecases.ReserveStockInput{
		ProductID: productID,
		Quantity:  6,
		OrderID:   "order-1",
	})
	require.NoError(t, err)
	require.True(t, reserved.Success)

	result, err := confirm.Execute(context.Background(), usecases.ConfirmStockInput{
		ProductID: productID,
		Quantity:  6,
		OrderID:   "order-1",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, int64(6), result.ConfirmedQuantity)
	assert.Equal(t, int64(94), result.CurrentStock)
	assert.Equal(t, int64(0), result.ReservedStock)
	assert.Equal(t, int64(94), result.AvailableStock)
	assert.Equal(t, domain.StockStatusInStock, result.StockStatus)

	// reservation record confirmed
	reservation, err := f.reservations.FindByID(context.Background(), reserved.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusConfirmed, reservation.Status())

	deducted := f.publisher.EventsOfType(domain.EventStockDeducted)
	require.Len(t, deducted, 1)
	data, ok := deducted[0].EventData.(domain.StockDeductedData)
	require.True(t, ok)
	assert.Equal(t, int64(6), data.Quantity)
	assert.Equal(t, int64(94), data.CurrentStock)
}

func TestConfirmStock_DropsBelowReorderPoint(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, 12, 4, 10)
	uc := newConfirm(f)

	result, err := uc.Execute(context.Background(), usecases.ConfirmStockInput{
		ProductID: productID,
		Quantity:  4,
		OrderID:   "seed-order",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, domain.StockStatusLowStock, result.StockStatus)

	events := f.publisher.Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventStockDeducted, events[0].EventType)
	assert.Equal(t, domain.EventLowStock, events[1].EventType)
}

func TestConfirmStock_MoreThanReserved(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, 100, 4, 10)
	uc := newConfirm(f)

	result, err := uc.Execute(context.Background(), usecases.ConfirmStockInput{
		ProductID: productID,
		Quantity:  9,
		OrderID:   "seed-order",
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, int64(100), result.CurrentStock)
	assert.Equal(t, int64(4), result.ReservedStock)
	assert.Contains(t, result.Message, "only 4 reserved")
	assert.Empty(t, f.publisher.Events())
}

func TestConfirmStock_InactiveProduct(t *testing.T) {
	f := newFixture(t)
	productID := f.seedInactiveProduct(t, 50)
	uc := newConfirm(f)

	_, err := uc.Execute(context.Background(), usecases.ConfirmStockInput{
		ProductID: productID,
		Quantity:  1,
		OrderID:   "order-1",
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeProductInactive))
}

func TestConfirmStock_Validation(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, 10, 5, 5)
	uc := newConfirm(f)

	tests := []struct {
		name  string
		input usecases.ConfirmStockInput
	}{
		{name: "zero quantity", input: usecases.ConfirmStockInput{ProductID: productID, OrderID: "o"}},
		{name: "empty order id", input: usecases.ConfirmStockInput{ProductID: productID, Quantity: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.CodeValidation))
		})
	}
}
