package usecases

import (
	"context"
	"time"

	"github.com/artisanmarket/inventory/internal/domain"
	"github.com/artisanmarket/inventory/internal/infrastructure/observability"
	"github.com/artisanmarket/inventory/internal/pkg/errors"
)

// ReplenishStockInput is the input for adding physical stock
type ReplenishStockInput struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	Reason    string `json:"reason"`
	SagaID    string `json:"sagaId,omitempty"`
}

// ReplenishStockResult reports the stock levels after a replenishment
type ReplenishStockResult struct {
	ProductID      string             `json:"productId"`
	PreviousStock  int64              `json:"previousStock"`
	CurrentStock   int64              `json:"currentStock"`
	AvailableStock int64              `json:"availableStock"`
	StockStatus    domain.StockStatus `json:"stockStatus"`
}

// ReplenishStock is the restock path, driven by supplier deliveries
type ReplenishStock struct {
	products  ProductRepository
	publisher EventPublisher
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// NewReplenishStock creates the replenish use-case
func NewReplenishStock(products ProductRepository, publisher EventPublisher, logger *observability.Logger, metrics *observability.Metrics) *ReplenishStock {
	return &ReplenishStock{products: products, publisher: publisher, logger: logger, metrics: metrics}
}

// Execute adds qty units of physical stock to the product
func (uc *ReplenishStock) Execute(ctx context.Context, input ReplenishStockInput) (*ReplenishStockResult, error) {
	start := time.Now()
	defer func() {
		uc.metrics.ObserveOperation("replenish", time.Since(start))
	}()

	if input.Quantity <= 0 {
		return nil, errors.NewValidationError("quantity must be greater than zero")
	}
	if input.Reason == "" {
		return nil, errors.NewValidationError("replenish reason cannot be empty")
	}

	product, err := uc.products.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	previous := product.CurrentStock().Int64()

	if err := product.Replenish(domain.Quantity(input.Quantity), input.Reason, input.SagaID); err != nil {
		return nil, err
	}
	if err := uc.products.Save(ctx, product); err != nil {
		return nil, err
	}
	if err := uc.publisher.Publish(ctx, product.DrainEvents()); err != nil {
		uc.metrics.PublishFailures.Inc()
		return nil, err
	}
	uc.metrics.ReplenishmentsTotal.Inc()

	uc.logger.WithOperation("replenish").WithProductID(input.ProductID).Info().
		Int64("quantity", input.Quantity).
		Str("reason", input.Reason).
		Int64("current", product.CurrentStock().Int64()).
		Msg("stock replenished")

	return &ReplenishStockResult{
		ProductID:      product.ID(),
		PreviousStock:  previous,
		CurrentStock:   product.CurrentStock().Int64(),
		AvailableStock: product.AvailableStock().Int64(),
		StockStatus:    product.StockStatus(),
	}, nil
}
