package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dtbackend "github.com/microsoft/durabletask-go/backend"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/artisanmarket/inventory/internal/activities"
	"github.com/artisanmarket/inventory/internal/infrastructure/backend"
	"github.com/artisanmarket/inventory/internal/infrastructure/config"
	"github.com/artisanmarket/inventory/internal/infrastructure/journal"
	"github.com/artisanmarket/inventory/internal/infrastructure/messaging"
	"github.com/artisanmarket/inventory/internal/infrastructure/observability"
	"github.com/artisanmarket/inventory/internal/infrastructure/persistence"
	"github.com/artisanmarket/inventory/internal/middleware"
	"github.com/artisanmarket/inventory/internal/sweeper"
	"github.com/artisanmarket/inventory/internal/usecases"
	"github.com/artisanmarket/inventory/internal/workflows"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(&cfg.Observability)
	logger.Info().Str("app", cfg.App.Name).Msg("starting inventory service")

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error().Msg("inventory service exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// tracing
	tracerProvider, err := observability.InitializeTracing(ctx, &cfg.Observability, cfg.App.Name)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer observability.ShutdownTracing(context.Background(), tracerProvider)

	// metrics
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	if cfg.Observability.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Observability.MetricsPort),
			Handler: mux,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error().Msg("metrics server failed")
			}
		}()
		defer metricsServer.Shutdown(context.Background())
	}

	// storage
	store, err := persistence.NewStore(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open inventory store: %w", err)
	}
	defer store.Close()
	products := persistence.ProductStore{Store: store}
	reservations := persistence.ReservationStore{Store: store}

	// event pipeline: kafka publisher wrapped with the local journal
	eventJournal, err := journal.Open(cfg.Storage.JournalFile, cfg.Storage.JournalBatchSize)
	if err != nil {
		return fmt.Errorf("failed to open event journal: %w", err)
	}
	defer eventJournal.Close()

	kafkaPublisher := messaging.NewKafkaPublisher(cfg.Messaging.Brokers, logger)
	defer kafkaPublisher.Close()
	publisher := messaging.NewJournaledPublisher(kafkaPublisher, eventJournal, logger, metrics)

	// use-cases
	reserve := usecases.NewReserveStock(products, reservations, publisher, logger, metrics, cfg.Reservations.TTL)
	release := usecases.NewReleaseStock(products, reservations, publisher, logger, metrics)
	confirm := usecases.NewConfirmStock(products, reservations, publisher, logger, metrics)
	check := usecases.NewCheckInventory(products, logger, metrics)
	replenish := usecases.NewReplenishStock(products, publisher, logger, metrics)

	// workflow engine
	taskRegistry := activities.NewActivityRegistry(&activities.ActivityDeps{
		Logger:                  logger,
		Metrics:                 metrics,
		Reserve:                 reserve,
		Release:                 release,
		Confirm:                 confirm,
		Check:                   check,
		Replenish:               replenish,
		RetryPolicy:             middleware.DefaultRetryPolicy(cfg.Activities.RetryMaxAttempts),
		TimeoutDuration:         time.Duration(cfg.Activities.TimeoutSeconds) * time.Second,
		CircuitBreakerThreshold: cfg.Activities.CircuitBreakerThreshold,
		CircuitBreakerTimeout:   cfg.Activities.CircuitBreakerTimeout,
	})
	workflows.Register(taskRegistry)

	dtLogger := dtbackend.DefaultLogger()
	be, err := backend.NewSQLiteBackend(&cfg.Workflow, dtLogger)
	if err != nil {
		return fmt.Errorf("failed to create workflow backend: %w", err)
	}
	worker, _ := backend.NewTaskHub(be, taskRegistry, dtLogger)
	if err := worker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start task hub worker: %w", err)
	}

	// expiry sweeper
	sw := sweeper.New(reservations, release, logger, metrics,
		cfg.Reservations.SweepInterval, cfg.Reservations.SweepBatchSize)
	go sw.Run(ctx)

	logger.Info().Msg("inventory service ready")
	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := worker.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn().Msg("task hub worker shutdown failed")
	}

	return nil
}
