package sweeper

import (
	"context"
	"time"

	"github.com/artisanmarket/inventory/internal/domain"
	"github.com/artisanmarket/inventory/internal/infrastructure/observability"
	"github.com/artisanmarket/inventory/internal/usecases"
)

// Sweeper reclaims stock held by reservations that outlived their TTL. It
// claims a reservation by marking it expired before touching product stock,
// so a crash between the two steps leaks at most the claimed batch, and a
// rerun of the release path is safe because over-release is rejected.
type Sweeper struct {
	reservations usecases.ReservationRepository
	release      *usecases.ReleaseStock
	logger       *observability.Logger
	metrics      *observability.Metrics
	interval     time.Duration
	batchSize    int
}

// New creates a sweeper
func New(
	reservations usecases.ReservationRepository,
	release *usecases.ReleaseStock,
	logger *observability.Logger,
	metrics *observability.Metrics,
	interval time.Duration,
	batchSize int,
) *Sweeper {
	return &Sweeper{
		reservations: reservations,
		release:      release,
		logger:       logger,
		metrics:      metrics,
		interval:     interval,
		batchSize:    batchSize,
	}
}

// Run sweeps on the configured interval until the context is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().
		Dur("interval", s.interval).
		Int("batch_size", s.batchSize).
		Msg("reservation sweeper started")

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			s.logger.Info().Msg("reservation sweeper stopped")
			return
		}
	}
}

// Sweep expires one batch of overdue reservations and returns their stock.
// A failed release for one line never blocks the remaining lines; the next
// sweep will not pick the reservation up again, so release failures are
// surfaced through metrics and logs.
func (s *Sweeper) Sweep(ctx context.Context) {
	s.metrics.SweeperRuns.Inc()

	expired, err := s.reservations.FindActiveExpired(ctx, time.Now().UTC(), s.batchSize)
	if err != nil {
		s.logger.WithError(err).Error().Msg("failed to scan for expired reservations")
		return
	}

	for _, reservation := range expired {
		s.expire(ctx, reservation)
	}
}

func (s *Sweeper) expire(ctx context.Context, reservation *domain.Reservation) {
	log := s.logger.WithOrderID(reservation.OrderID())

	reservation.Expire()
	if err := s.reservations.Save(ctx, reservation); err != nil {
		log.WithError(err).Error().
			Str("reservation_id", reservation.ID()).
			Msg("failed to mark reservation expired")
		return
	}
	s.metrics.SweeperExpired.Inc()

	for _, item := range reservation.Items() {
		result, err := s.release.Execute(ctx, usecases.ReleaseStockInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity.Int64(),
			OrderID:   reservation.OrderID(),
			Reason:    domain.ExpiryReleaseReason,
		})
		if err != nil {
			s.metrics.SweeperReleaseFailures.Inc()
			log.WithError(err).Error().
				Str("product_id", item.ProductID).
				Msg("failed to release expired reservation stock")
			continue
		}
		if !result.Success {
			s.metrics.SweeperReleaseFailures.Inc()
			log.Warn().
				Str("product_id", item.ProductID).
				Str("message", result.Message).
				Msg("expired reservation stock already released")
		}
	}

	log.Info().
		Str("reservation_id", reservation.ID()).
		Int("items", len(reservation.Items())).
		Msg("reservation expired")
}
