package usecases_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/artisanmarket/inventory/internal/domain"
	"github.com/artisanmarket/inventory/internal/infrastructure/messaging"
	"github.com/artisanmarket/inventory/internal/infrastructure/observability"
	"github.com/artisanmarket/inventory/internal/infrastructure/persistence"
)

type fixture struct {
	products     *persistence.MemoryProductRepository
	reservations *persistence.MemoryReservationRepository
	publisher    *messaging.Recorder
	logger       *observability.Logger
	metrics      *observability.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		products:     persistence.NewMemoryProductRepository(),
		reservations: persistence.NewMemoryReservationRepository(),
		publisher:    messaging.NewRecorder(),
		logger:       observability.NewTestLogger(),
		metrics:      observability.NewMetrics(prometheus.NewRegistry()),
	}
}

// seedProduct stores a product with the given stock levels and returns its id
func (f *fixture) seedProduct(t *testing.T, current, reserved, reorderPoint int64) string {
	t.Helper()

	product, err := domain.NewProduct(domain.ProductParams{
		SKU:          "SKU-100",
		Name:         "Walnut serving board",
		UnitPrice:    decimal.NewFromFloat(54.50),
		Currency:     "EUR",
		CategoryID:   "woodwork",
		ArtisanID:    "artisan-7",
		InitialStock: current,
		ReorderPoint: reorderPoint,
	})
	require.NoError(t, err)

	if reserved > 0 {
		require.NoError(t, product.Reserve(domain.Quantity(reserved), "seed-order", ""))
	}
	product.DrainEvents()
	f.products.Seed(product)
	return product.ID()
}

func (f *fixture) seedInactiveProduct(t *testing.T, current int64) string {
	t.Helper()

	product, err := domain.NewProduct(domain.ProductParams{
		SKU:          "SKU-200",
		Name:         "Retired glaze sampler",
		UnitPrice:    decimal.NewFromFloat(12.00),
		Currency:     "EUR",
		InitialStock: current,
	})
	require.NoError(t, err)
	product.Deactivate()
	product.DrainEvents()
	f.products.Seed(product)
	return product.ID()
}

const testTTL = 15 * time.Minute
