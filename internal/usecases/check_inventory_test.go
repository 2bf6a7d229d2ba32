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

func newCheck(f *fixture) *usecases.CheckInventory {
	return usecases.NewCheckInventory(f.products, f.logger, f.metrics)
}

func TestCheckInventory_Execute(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, 40, 15, 10)
	uc := newCheck(f)

	status, err := uc.Execute(context.Background(), productID)
	require.NoError(t, err)

	assert.Equal(t, productID, status.ProductID)
	assert.Equal(t, "SKU-100", status.SKU)
	assert.Equal(t, int64(40), status.CurrentStock)
	assert.Equal(t, int64(15), status.ReservedStock)
	assert.Equal(t, int64(25), status.AvailableStock)
	assert.Equal(t, domain.StockStatusInStock, status.StockStatus)
	assert.True(t, status.IsActive)
}

func TestCheckInventory_StatusDerivation(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		reserved int64
		reorder  int64
		want     domain.StockStatus
	}{
		{name: "in stock", current: 100, reserved: 0, reorder: 10, want: domain.StockStatusInStock},
		{name: "low stock at threshold", current: 10, reserved: 0, reorder: 10, want: domain.StockStatusLowStock},
		{name: "out of stock fully reserved", current: 10, reserved: 10, reorder: 5, want: domain.StockStatusOutOfStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			productID := f.seedProduct(t, tt.current, tt.reserved, tt.reorder)
			status, err := newCheck(f).Execute(context.Background(), productID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, status.StockStatus)
		})
	}
}

func TestCheckInventory_DiscontinuedProduct(t *testing.T) {
	f := newFixture(t)
	productID := f.seedInactiveProduct(t, 50)

	status, err := newCheck(f).Execute(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, domain.StockStatusDiscontinued, status.StockStatus)
	assert.False(t, status.IsActive)
}

func TestCheckInventory_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := newCheck(f).Execute(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestCheckInventory_EmptyID(t *testing.T) {
	f := newFixture(t)

	_, err := newCheck(f).Execute(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
}

func TestCheckInventory_ExecuteBulk(t *testing.T) {
	f := newFixture(t)
	inStock := f.seedProduct(t, 100, 0, 10)
	lowStock := f.seedProduct(t, 8, 0, 10)
	uc := newCheck(f)

	result, err := uc.ExecuteBulk(context.Background(), []string{inStock, lowStock, "ghost"})
	require.NoError(t, err)

	assert.Len(t, result.Items, 2)
	assert.Equal(t, 1, result.Summary[domain.StockStatusInStock])
	assert.Equal(t, 1, result.Summary[domain.StockStatusLowStock])
	assert.Equal(t, []string{"ghost"}, result.Missing)
}

func TestCheckInventory_ExecuteBulkEmpty(t *testing.T) {
	f := newFixture(t)

	_, err := newCheck(f).ExecuteBulk(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
}
