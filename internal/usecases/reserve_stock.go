package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/artisanmarket/inventory/internal/domain"
	"github.com/artisanmarket/inventory/internal/infrastructure/observability"
	"github.com/artisanmarket/inventory/internal/pkg/errors"
)

// ReserveStockInput is the input for reserving stock against an order
type ReserveStockInput struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	OrderID   string `json:"orderId"`
	SagaID    string `json:"sagaId,omitempty"`
}

// ReserveStockResult is the outcome of a reserve attempt. Insufficient
// stock is an expected business outcome and is reported here with
// Success=false rather than as an error.
type ReserveStockResult struct {
	Success          bool   `json:"success"`
	ReservationID    string `json:"reservationId,omitempty"`
	ProductID        string `json:"productId"`
	OrderID          string `json:"orderId"`
	ReservedQuantity int64  `json:"reservedQuantity,omitempty"`
	AvailableStock   int64  `json:"availableStock"`
	Message          string `json:"message,omitempty"`
}

// ReserveStock holds quantity against an order and mints a reservation
// record. Invoked once per order line item when a payment succeeds.
type ReserveStock struct {
	products     ProductRepository
	reservations ReservationRepository
	publisher    EventPublisher
	logger       *observability.Logger
	metrics      *observability.Metrics
	ttl          time.Duration
}

// NewReserveStock creates the reserve use-case
func NewReserveStock(
	products ProductRepository,
	reservations ReservationRepository,
	publisher EventPublisher,
	logger *observability.Logger,
	metrics *observability.Metrics,
	ttl time.Duration,
) *ReserveStock {
	return &ReserveStock{
		products:     products,
		reservations: reservations,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics,
		ttl:          ttl,
	}
}

// Execute runs the reservation. Events drain to the publisher only after a
// successful save; the one exception is the OutOfStock signal, which
// accompanies a rejected reserve that mutated nothing.
func (uc *ReserveStock) Execute(ctx context.Context, input ReserveStockInput) (*ReserveStockResult, error) {
	start := time.Now()
	defer func() {
		uc.metrics.ObserveOperation("reserve", time.Since(start))
	}()

	if input.Quantity <= 0 {
		return nil, errors.NewValidationError("quantity must be greater than zero")
	}
	if input.OrderID == "" {
		return nil, errors.NewValidationError("order id cannot be empty")
	}
	qty := domain.Quantity(input.Quantity)

	log := uc.logger.WithOperation("reserve").WithProductID(input.ProductID).WithOrderID(input.OrderID)

	product, err := uc.products.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	if err := product.Reserve(qty, input.OrderID, input.SagaID); err != nil {
		if errors.HasCode(err, errors.CodeInsufficientStock) {
			// nothing mutated, so nothing to save; the out-of-stock signal
			// still goes out for alerting and restocking workflows
			if pubErr := uc.publisher.Publish(ctx, product.DrainEvents()); pubErr != nil {
				uc.metrics.PublishFailures.Inc()
				return nil, pubErr
			}
			uc.metrics.InsufficientStock.Inc()

			available := product.AvailableStock().Int64()
			log.Warn().
				Int64("requested", input.Quantity).
				Int64("available", available).
				Msg("insufficient stock")

			return &ReserveStockResult{
				Success:        false,
				ProductID:      input.ProductID,
				OrderID:        input.OrderID,
				AvailableStock: available,
				Message:        fmt.Sprintf("insufficient stock: requested %d, available %d", input.Quantity, available),
			}, nil
		}
		return nil, err
	}

	if err := uc.products.Save(ctx, product); err != nil {
		return nil, err
	}

	reservation, err := domain.NewReservation(input.OrderID, []domain.ReservationItem{
		{ProductID: product.ID(), Quantity: qty},
	}, uc.ttl)
	if err != nil {
		return nil, err
	}
	if err := uc.reservations.Save(ctx, reservation); err != nil {
		return nil, err
	}

	events := product.DrainEvents()
	if err := uc.publisher.Publish(ctx, events); err != nil {
		uc.metrics.PublishFailures.Inc()
		return nil, err
	}
	uc.metrics.ReservationsTotal.Inc()
	uc.metrics.CountLowStock(countByType(events, domain.EventLowStock))

	log.Info().
		Str("reservation_id", reservation.ID()).
		Int64("quantity", input.Quantity).
		Int64("available", product.AvailableStock().Int64()).
		Msg("stock reserved")

	return &ReserveStockResult{
		Success:          true,
		ReservationID:    reservation.ID(),
		ProductID:        product.ID(),
		OrderID:          input.OrderID,
		ReservedQuantity: input.Quantity,
		AvailableStock:   product.AvailableStock().Int64(),
	}, nil
}

func countByType(events []domain.Event, eventType domain.EventType) int {
	var n int
	for _, event := range events {
		if event.EventType == eventType {
			n++
		}
	}
	return n
}
