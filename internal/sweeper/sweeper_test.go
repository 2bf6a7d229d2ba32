package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisanmarket/inventory/internal/domain"
	"github.com/artisanmarket/inventory/internal/infrastructure/messaging"
	"github.com/artisanmarket/inventory/internal/infrastructure/observability"
	"github.com/artisanmarket/inventory/internal/infrastructure/persistence"
	"github.com/artisanmarket/inventory/internal/usecases"
)

type harness struct {
	products     *persistence.MemoryProductRepository
	reservations *persistence.MemoryReservationRepository
	publisher    *messaging.Recorder
	sweeper      *Sweeper
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	products := persistence.NewMemoryProductRepository()
	reservations := persistence.NewMemoryReservationRepository()
	publisher := messaging.NewRecorder()
	logger := observability.NewTestLogger()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	release := usecases.NewReleaseStock(products, reservations, publisher, logger, metrics)

	return &harness{
		products:     products,
		reservations: reservations,
		publisher:    publisher,
		sweeper:      New(reservations, release, logger, metrics, time.Minute, 100),
	}
}

func (h *harness) seedProduct(t *testing.T, reserved int64) *domain.Product {
	t.Helper()
	product, err := domain.NewProduct(domain.ProductParams{
		SKU:          "SKU-001",
		Name:         "Stoneware teapot",
		UnitPrice:    decimal.NewFromFloat(64.00),
		Currency:     "EUR",
		InitialStock: 50,
	})
	require.NoError(t, err)
	if reserved > 0 {
		require.NoError(t, product.Reserve(domain.Quantity(reserved), "order-1", ""))
	}
	product.DrainEvents()
	h.products.Seed(product)
	return product
}

func (h *harness) seedStaleReservation(t *testing.T, productID string, qty int64) *domain.Reservation {
	t.Helper()
	reservation, err := domain.NewReservation("order-1", []domain.ReservationItem{
		{ProductID: productID, Quantity: domain.Quantity(qty)},
	}, time.Minute)
	require.NoError(t, err)

	// rewind the deadline so the reservation is overdue
	snapshot := reservation.Snapshot()
	snapshot.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	stale := domain.ReservationFromSnapshot(snapshot)
	require.NoError(t, h.reservations.Save(context.Background(), stale))
	return stale
}

func TestSweep_ReleasesExpiredReservations(t *testing.T) {
	h := newHarness(t)
	product := h.seedProduct(t, 5)
	h.seedStaleReservation(t, product.ID(), 5)

	h.sweeper.Sweep(context.Background())

	// stock returned to the pool
	reloaded, err := h.products.FindByID(context.Background(), product.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(0), reloaded.ReservedStock().Int64())
	assert.Equal(t, int64(50), reloaded.AvailableStock().Int64())

	// release event carries the expiry reason
	released := h.publisher.EventsOfType(domain.EventStockReleased)
	require.Len(t, released, 1)
	data, ok := released[0].EventData.(domain.StockReleasedData)
	require.True(t, ok)
	assert.Equal(t, domain.ExpiryReleaseReason, data.Reason)
}

func TestSweep_MarksReservationExpired(t *testing.T) {
	h := newHarness(t)
	product := h.seedProduct(t, 5)
	stale := h.seedStaleReservation(t, product.ID(), 5)

	h.sweeper.Sweep(context.Background())

	reloaded, err := h.reservations.FindByID(context.Background(), stale.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusExpired, reloaded.Status())
}

func TestSweep_IgnoresFreshReservations(t *testing.T) {
	h := newHarness(t)
	product := h.seedProduct(t, 5)

	fresh, err := domain.NewReservation("order-1", []domain.ReservationItem{
		{ProductID: product.ID(), Quantity: 5},
	}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, h.reservations.Save(context.Background(), fresh))

	h.sweeper.Sweep(context.Background())

	reloaded, err := h.products.FindByID(context.Background(), product.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(5), reloaded.ReservedStock().Int64())
}

func TestSweep_IdempotentAcrossRuns(t *testing.T) {
	h := newHarness(t)
	product := h.seedProduct(t, 5)
	h.seedStaleReservation(t, product.ID(), 5)

	h.sweeper.Sweep(context.Background())
	h.sweeper.Sweep(context.Background())

	reloaded, err := h.products.FindByID(context.Background(), product.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(0), reloaded.ReservedStock().Int64())
	assert.Len(t, h.publisher.EventsOfType(domain.EventStockReleased), 1)
}

func TestSweep_ContinuesPastFailedRelease(t *testing.T) {
	h := newHarness(t)

	// the first reservation's stock was already released elsewhere, so the
	// sweeper's release is rejected; the second must still be reclaimed
	drained := h.seedProduct(t, 0)
	h.seedStaleReservation(t, drained.ID(), 5)

	held, err := domain.NewProduct(domain.ProductParams{
		SKU:          "SKU-002",
		Name:         "Linen apron",
		UnitPrice:    decimal.NewFromFloat(39.00),
		Currency:     "EUR",
		InitialStock: 20,
	})
	require.NoError(t, err)
	require.NoError(t, held.Reserve(domain.Quantity(3), "order-2", ""))
	held.DrainEvents()
	h.products.Seed(held)

	reservation, err := domain.NewReservation("order-2", []domain.ReservationItem{
		{ProductID: held.ID(), Quantity: 3},
	}, time.Minute)
	require.NoError(t, err)
	snapshot := reservation.Snapshot()
	snapshot.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, h.reservations.Save(context.Background(), domain.ReservationFromSnapshot(snapshot)))

	h.sweeper.Sweep(context.Background())

	reloaded, err := h.products.FindByID(context.Background(), held.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(0), reloaded.ReservedStock().Int64())
}
