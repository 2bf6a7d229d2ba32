package usecases

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/artisanmarket/inventory/internal/domain"
	"github.com/artisanmarket/inventory/internal/infrastructure/observability"
	"github.com/artisanmarket/inventory/internal/pkg/errors"
)

// InventoryStatus is the read-only stock projection for one product
type InventoryStatus struct {
	ProductID      string             `json:"productId"`
	SKU            string             `json:"sku"`
	Name           string             `json:"name"`
	UnitPrice      decimal.Decimal    `json:"unitPrice"`
	Currency       string             `json:"currency"`
	CurrentStock   int64              `json:"currentStock"`
	ReservedStock  int64              `json:"reservedStock"`
	AvailableStock int64              `json:"availableStock"`
	StockStatus    domain.StockStatus `json:"stockStatus"`
	IsActive       bool               `json:"isActive"`
}

// BulkInventoryResult is the projection for a set of products with a tally
// by stock status
type BulkInventoryResult struct {
	Items   []InventoryStatus          `json:"items"`
	Summary map[domain.StockStatus]int `json:"summary"`
	Missing []string                   `json:"missing,omitempty"`
}

// CheckInventory is the read-only projection over product stock. It never
// mutates and never emits events.
type CheckInventory struct {
	products ProductRepository
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewCheckInventory creates the check use-case
func NewCheckInventory(products ProductRepository, logger *observability.Logger, metrics *observability.Metrics) *CheckInventory {
	return &CheckInventory{products: products, logger: logger, metrics: metrics}
}

// Execute returns the stock projection for one product
func (uc *CheckInventory) Execute(ctx context.Context, productID string) (*InventoryStatus, error) {
	start := time.Now()
	defer func() {
		uc.metrics.ObserveOperation("check", time.Since(start))
	}()

	if productID == "" {
		return nil, errors.NewValidationError("product id cannot be empty")
	}

	product, err := uc.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	status := projectStatus(product)
	return &status, nil
}

// ExecuteBulk returns projections for many products plus a summary tally.
// Unknown ids are reported in Missing rather than failing the whole call.
func (uc *CheckInventory) ExecuteBulk(ctx context.Context, productIDs []string) (*BulkInventoryResult, error) {
	start := time.Now()
	defer func() {
		uc.metrics.ObserveOperation("bulk_check", time.Since(start))
	}()

	if len(productIDs) == 0 {
		return nil, errors.NewValidationError("product ids cannot be empty")
	}

	products, err := uc.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(products))
	result := &BulkInventoryResult{
		Items:   make([]InventoryStatus, 0, len(products)),
		Summary: make(map[domain.StockStatus]int),
	}
	for _, product := range products {
		status := projectStatus(product)
		result.Items = append(result.Items, status)
		result.Summary[status.StockStatus]++
		found[product.ID()] = true
	}
	for _, id := range productIDs {
		if !found[id] {
			result.Missing = append(result.Missing, id)
		}
	}

	return result, nil
}

func projectStatus(product *domain.Product) InventoryStatus {
	return InventoryStatus{
		ProductID:      product.ID(),
		SKU:            product.SKU(),
		Name:           product.Name(),
		UnitPrice:      product.UnitPrice(),
		Currency:       product.Currency(),
		CurrentStock:   product.CurrentStock().Int64(),
		ReservedStock:  product.ReservedStock().Int64(),
		AvailableStock: product.AvailableStock().Int64(),
		StockStatus:    product.StockStatus(),
		IsActive:       product.IsActive(),
	}
}
