package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/artisanmarket/inventory/internal/domain"
	"github.com/artisanmarket/inventory/internal/infrastructure/observability"
	"github.com/artisanmarket/inventory/internal/pkg/errors"
)

// ReleaseStockInput is the input for returning reserved stock to the
// available pool
type ReleaseStockInput struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	OrderID   string `json:"orderId"`
	Reason    string `json:"reason"`
	SagaID    string `json:"sagaId,omitempty"`
}

// ReleaseStockResult is the outcome of a release attempt. Over-release is an
// expected business outcome reported with Success=false.
type ReleaseStockResult struct {
	Success          bool   `json:"success"`
	ProductID        string `json:"productId"`
	OrderID          string `json:"orderId"`
	ReleasedQuantity int64  `json:"releasedQuantity,omitempty"`
	ReservedStock    int64  `json:"reservedStock"`
	Message          string `json:"message,omitempty"`
}

// ReleaseStock is the compensating action invoked when an order is
// cancelled or a reservation expires
type ReleaseStock struct {
	products     ProductRepository
	reservations ReservationRepository
	publisher    EventPublisher
	logger       *observability.Logger
	metrics      *observability.Metrics
}

// NewReleaseStock creates the release use-case
func NewReleaseStock(
	products ProductRepository,
	reservations ReservationRepository,
	publisher EventPublisher,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *ReleaseStock {
	return &ReleaseStock{
		products:     products,
		reservations: reservations,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics,
	}
}

// Execute always attempts the domain release call and maps an over-release
// to a structured failure; success is reported only after persistence.
func (uc *ReleaseStock) Execute(ctx context.Context, input ReleaseStockInput) (*ReleaseStockResult, error) {
	start := time.Now()
	defer func() {
		uc.metrics.ObserveOperation("release", time.Since(start))
	}()

	if input.Quantity <= 0 {
		return nil, errors.NewValidationError("quantity must be greater than zero")
	}
	if input.Reason == "" {
		return nil, errors.NewValidationError("release reason cannot be empty")
	}
	if input.OrderID == "" {
		return nil, errors.NewValidationError("order id cannot be empty")
	}
	qty := domain.Quantity(input.Quantity)

	log := uc.logger.WithOperation("release").WithProductID(input.ProductID).WithOrderID(input.OrderID)

	product, err := uc.products.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	if err := product.Release(qty, input.OrderID, input.Reason, input.SagaID); err != nil {
		if errors.HasCode(err, errors.CodeCannotRelease) {
			reserved := product.ReservedStock().Int64()
			log.Warn().
				Int64("requested", input.Quantity).
				Int64("reserved", reserved).
				Msg("cannot release more than reserved")

			return &ReleaseStockResult{
				Success:       false,
				ProductID:     input.ProductID,
				OrderID:       input.OrderID,
				ReservedStock: reserved,
				Message:       fmt.Sprintf("cannot release %d: only %d reserved", input.Quantity, reserved),
			}, nil
		}
		return nil, err
	}

	if err := uc.products.Save(ctx, product); err != nil {
		return nil, err
	}

	if err := uc.releaseReservations(ctx, input.OrderID, input.ProductID, input.Reason); err != nil {
		return nil, err
	}

	if err := uc.publisher.Publish(ctx, product.DrainEvents()); err != nil {
		uc.metrics.PublishFailures.Inc()
		return nil, err
	}
	uc.metrics.ReleasesTotal.Inc()

	log.Info().
		Int64("quantity", input.Quantity).
		Str("reason", input.Reason).
		Msg("stock released")

	return &ReleaseStockResult{
		Success:          true,
		ProductID:        product.ID(),
		OrderID:          input.OrderID,
		ReleasedQuantity: input.Quantity,
		ReservedStock:    product.ReservedStock().Int64(),
	}, nil
}

// releaseReservations marks the order's matching active reservation records
// released. A release without a reservation record is legal: the record is
// an audit trail, not the source of truth for reserved quantity.
func (uc *ReleaseStock) releaseReservations(ctx context.Context, orderID, productID, reason string) error {
	reservations, err := uc.reservations.FindByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	for _, reservation := range reservations {
		if reservation.Status() != domain.ReservationStatusActive || !reservation.HoldsProduct(productID) {
			continue
		}
		if err := reservation.Release(reason); err != nil {
			return err
		}
		if err := uc.reservations.Save(ctx, reservation); err != nil {
			return err
		}
	}
	return nil
}
