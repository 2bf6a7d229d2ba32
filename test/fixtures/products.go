package fixtures

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/artisanmarket/inventory/internal/domain"
)

// CreateProduct creates an active product with the given stock levels
func CreateProduct(sku string, currentStock, reorderPoint int64) *domain.Product {
	product, err := domain.NewProduct(domain.ProductParams{
		SKU:          sku,
		Name:         fmt.Sprintf("Handmade item %s", sku),
		UnitPrice:    decimal.NewFromFloat(29.99),
		Currency:     "EUR",
		CategoryID:   "ceramics",
		ArtisanID:    "artisan-1",
		InitialStock: currentStock,
		ReorderPoint: reorderPoint,
	})
	if err != nil {
		panic(err)
	}
	product.DrainEvents()
	return product
}

// CreateWellStockedProduct creates a product far above its reorder point
func CreateWellStockedProduct(sku string) *domain.Product {
	return CreateProduct(sku, 500, 10)
}

// CreateScarceProduct creates a product with very little stock
func CreateScarceProduct(sku string) *domain.Product {
	return CreateProduct(sku, 2, 10)
}

// OrderID generates a unique order id for a test
func OrderID() string {
	return fmt.Sprintf("ORD-%d", time.Now().UnixNano())
}
