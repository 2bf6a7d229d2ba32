package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ReservationsTotal      prometheus.Counter
	InsufficientStock      prometheus.Counter
	ReleasesTotal          prometheus.Counter
	ConfirmationsTotal     prometheus.Counter
	ReplenishmentsTotal    prometheus.Counter
	LowStockSignals        prometheus.Counter
	OperationDuration      *prometheus.HistogramVec
	PublishFailures        prometheus.Counter
	JournalWriteFailures   prometheus.Counter
	SweeperRuns            prometheus.Counter
	SweeperExpired         prometheus.Counter
	SweeperReleaseFailures prometheus.Counter
}

// NewMetrics creates a new metrics collector registered against reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ReservationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_reservations_total",
			Help: "Total number of successful stock reservations",
		}),
		InsufficientStock: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_insufficient_stock_total",
			Help: "Total number of reserve calls rejected for insufficient stock",
		}),
		ReleasesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_releases_total",
			Help: "Total number of successful stock releases",
		}),
		ConfirmationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_confirmations_total",
			Help: "Total number of reservations converted to deductions",
		}),
		ReplenishmentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_replenishments_total",
			Help: "Total number of stock replenishments",
		}),
		LowStockSignals: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_low_stock_signals_total",
			Help: "Total number of low stock warnings emitted",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inventory_operation_duration_seconds",
			Help:    "Inventory operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"operation"}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_event_publish_failures_total",
			Help: "Total number of domain event publish failures",
		}),
		JournalWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_journal_write_failures_total",
			Help: "Total number of event journal write failures",
		}),
		SweeperRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_sweeper_runs_total",
			Help: "Total number of reservation expiry sweeps",
		}),
		SweeperExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_sweeper_expired_total",
			Help: "Total number of reservations expired by the sweeper",
		}),
		SweeperReleaseFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_sweeper_release_failures_total",
			Help: "Total number of compensating releases that failed during sweeps",
		}),
	}
}

// ObserveOperation records the duration of a named inventory operation
func (m *Metrics) ObserveOperation(operation string, duration time.Duration) {
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// CountLowStock adds n emitted low stock warnings to the counter
func (m *Metrics) CountLowStock(n int) {
	if n > 0 {
		m.LowStockSignals.Add(float64(n))
	}
}
