package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/artisanmarket/inventory/internal/domain"
	"github.com/artisanmarket/inventory/internal/infrastructure/observability"
	"github.com/artisanmarket/inventory/internal/pkg/errors"
)

// ConfirmStockInput is the input for converting a reservation into a
// permanent deduction
type ConfirmStockInput struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	OrderID   string `json:"orderId"`
	SagaID    string `json:"sagaId,omitempty"`
}

// ConfirmStockResult is the outcome of a confirm attempt with the updated
// stock snapshot
type ConfirmStockResult struct {
	Success           bool               `json:"success"`
	ProductID         string             `json:"productId"`
	OrderID           string             `json:"orderId"`
	ConfirmedQuantity int64              `json:"confirmedQuantity,omitempty"`
	CurrentStock      int64              `json:"currentStock"`
	ReservedStock     int64              `json:"reservedStock"`
	AvailableStock    int64              `json:"availableStock"`
	StockStatus       domain.StockStatus `json:"stockStatus"`
	Message           string             `json:"message,omitempty"`
}

// ConfirmStock is the order-completion path
type ConfirmStock struct {
	products     ProductRepository
	reservations ReservationRepository
	publisher    EventPublisher
	logger       *observability.Logger
	metrics      *observability.Metrics
}

// NewConfirmStock creates the confirm use-case
func NewConfirmStock(
	products ProductRepository,
	reservations ReservationRepository,
	publisher EventPublisher,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *ConfirmStock {
	return &ConfirmStock{
		products:     products,
		reservations: reservations,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics,
	}
}

// Execute confirms a reservation, deducting physical stock
func (uc *ConfirmStock) Execute(ctx context.Context, input ConfirmStockInput) (*ConfirmStockResult, error) {
	start := time.Now()
	defer func() {
		uc.metrics.ObserveOperation("confirm", time.Since(start))
	}()

	if input.Quantity <= 0 {
		return nil, errors.NewValidationError("quantity must be greater than zero")
	}
	if input.OrderID == "" {
		return nil, errors.NewValidationError("order id cannot be empty")
	}
	qty := domain.Quantity(input.Quantity)

	log := uc.logger.WithOperation("confirm").WithProductID(input.ProductID).WithOrderID(input.OrderID)

	product, err := uc.products.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive() {
		return nil, errors.NewProductInactiveError(product.ID())
	}

	if err := product.Confirm(qty, input.OrderID, input.SagaID); err != nil {
		if errors.HasCode(err, errors.CodeCannotConfirm) {
			reserved := product.ReservedStock().Int64()
			log.Warn().
				Int64("requested", input.Quantity).
				Int64("reserved", reserved).
				Msg("cannot confirm more than reserved")

			return &ConfirmStockResult{
				Success:        false,
				ProductID:      input.ProductID,
				OrderID:        input.OrderID,
				CurrentStock:   product.CurrentStock().Int64(),
				ReservedStock:  reserved,
				AvailableStock: product.AvailableStock().Int64(),
				StockStatus:    product.StockStatus(),
				Message:        fmt.Sprintf("cannot confirm %d: only %d reserved", input.Quantity, reserved),
			}, nil
		}
		return nil, err
	}

	if err := uc.products.Save(ctx, product); err != nil {
		return nil, err
	}

	if err := uc.confirmReservations(ctx, input.OrderID, input.ProductID); err != nil {
		return nil, err
	}

	events := product.DrainEvents()
	if err := uc.publisher.Publish(ctx, events); err != nil {
		uc.metrics.PublishFailures.Inc()
		return nil, err
	}
	uc.metrics.ConfirmationsTotal.Inc()
	uc.metrics.CountLowStock(countByType(events, domain.EventLowStock))

	log.Info().
		Int64("quantity", input.Quantity).
		Int64("current", product.CurrentStock().Int64()).
		Msg("stock confirmed")

	return &ConfirmStockResult{
		Success:           true,
		ProductID:         product.ID(),
		OrderID:           input.OrderID,
		ConfirmedQuantity: input.Quantity,
		CurrentStock:      product.CurrentStock().Int64(),
		ReservedStock:     product.ReservedStock().Int64(),
		AvailableStock:    product.AvailableStock().Int64(),
		StockStatus:       product.StockStatus(),
	}, nil
}

func (uc *ConfirmStock) confirmReservations(ctx context.Context, orderID, productID string) error {
	reservations, err := uc.reservations.FindByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	for _, reservation := range reservations {
		if reservation.Status() != domain.ReservationStatusActive || !reservation.HoldsProduct(productID) {
			continue
		}
		if err := reservation.Confirm(); err != nil {
			return err
		}
		if err := uc.reservations.Save(ctx, reservation); err != nil {
			return err
		}
	}
	return nil
}
