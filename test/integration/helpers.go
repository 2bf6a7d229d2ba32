package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/microsoft/durabletask-go/api"
	dtbackend "github.com/microsoft/durabletask-go/backend"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/artisanmarket/inventory/internal/activities"
	"github.com/artisanmarket/inventory/internal/infrastructure/backend"
	"github.com/artisanmarket/inventory/internal/infrastructure/messaging"
	"github.com/artisanmarket/inventory/internal/infrastructure/observability"
	"github.com/artisanmarket/inventory/internal/infrastructure/persistence"
	"github.com/artisanmarket/inventory/internal/middleware"
	"github.com/artisanmarket/inventory/internal/usecases"
	"github.com/artisanmarket/inventory/internal/workflows"
)

// TestHarness wires the full workflow stack against in-memory storage and a
// recording publisher
type TestHarness struct {
	Client       dtbackend.TaskHubClient
	Worker       dtbackend.TaskHubWorker
	Products     *persistence.MemoryProductRepository
	Reservations *persistence.MemoryReservationRepository
	Publisher    *messaging.Recorder
	Metrics      *observability.Metrics
}

// NewTestHarness creates a harness with an in-memory task hub backend
func NewTestHarness() (*TestHarness, error) {
	logger := observability.NewTestLogger()
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	products := persistence.NewMemoryProductRepository()
	reservations := persistence.NewMemoryReservationRepository()
	publisher := messaging.NewRecorder()

	deps := &activities.ActivityDeps{
		Logger:                  logger,
		Metrics:                 metrics,
		Reserve:                 usecases.NewReserveStock(products, reservations, publisher, logger, metrics, 15*time.Minute),
		Release:                 usecases.NewReleaseStock(products, reservations, publisher, logger, metrics),
		Confirm:                 usecases.NewConfirmStock(products, reservations, publisher, logger, metrics),
		Check:                   usecases.NewCheckInventory(products, logger, metrics),
		Replenish:               usecases.NewReplenishStock(products, publisher, logger, metrics),
		RetryPolicy:             middleware.DefaultRetryPolicy(3),
		TimeoutDuration:         30 * time.Second,
		CircuitBreakerThreshold: 0.5,
		CircuitBreakerTimeout:   10 * time.Second,
	}

	registry := activities.NewActivityRegistry(deps)
	workflows.Register(registry)

	dtLogger := dtbackend.DefaultLogger()
	be := backend.NewInMemoryBackend(dtLogger)
	worker, client := backend.NewTaskHub(be, registry, dtLogger)

	return &TestHarness{
		Client:       client,
		Worker:       worker,
		Products:     products,
		Reservations: reservations,
		Publisher:    publisher,
		Metrics:      metrics,
	}, nil
}

// Start starts the task hub worker
func (h *TestHarness) Start(ctx context.Context) error {
	return h.Worker.Start(ctx)
}

// Stop shuts the worker down
func (h *TestHarness) Stop(ctx context.Context) error {
	return h.Worker.Shutdown(ctx)
}

// RunOrderWorkflow schedules the named orchestrator and waits for its output
func (h *TestHarness) RunOrderWorkflow(ctx context.Context, name string, input workflows.OrderWorkflowInput) (*workflows.OrderWorkflowOutput, error) {
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	id, err := h.Client.ScheduleNewOrchestration(waitCtx, name,
		api.WithInput(input),
		api.WithInstanceID(api.InstanceID(fmt.Sprintf("%s-%s", name, input.OrderID))),
	)
	if err != nil {
		return nil, err
	}

	metadata, err := h.Client.WaitForOrchestrationCompletion(waitCtx, id)
	if err != nil {
		return nil, err
	}
	if metadata.FailureDetails != nil {
		return nil, fmt.Errorf("orchestration failed: %s", metadata.FailureDetails.ErrorMessage)
	}

	var output workflows.OrderWorkflowOutput
	if err := json.Unmarshal([]byte(metadata.SerializedOutput), &output); err != nil {
		return nil, fmt.Errorf("failed to decode orchestration output: %w", err)
	}
	return &output, nil
}
