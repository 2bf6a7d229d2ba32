package activities

import (
	"encoding/json"
	"time"

	"github.com/microsoft/durabletask-go/task"

	"github.com/artisanmarket/inventory/internal/activities/stock"
	"github.com/artisanmarket/inventory/internal/infrastructure/observability"
	"github.com/artisanmarket/inventory/internal/middleware"
	"github.com/artisanmarket/inventory/internal/usecases"
)

// Activity names as registered with the task hub
const (
	ActivityReserveStock   = "stock:reserve"
	ActivityReleaseStock   = "stock:release"
	ActivityConfirmStock   = "stock:confirm"
	ActivityCheckInventory = "stock:check"
	ActivityReplenishStock = "stock:replenish"
)

// ActivityDeps contains dependencies for all activities
type ActivityDeps struct {
	Logger                  *observability.Logger
	Metrics                 *observability.Metrics
	Reserve                 *usecases.ReserveStock
	Release                 *usecases.ReleaseStock
	Confirm                 *usecases.ConfirmStock
	Check                   *usecases.CheckInventory
	Replenish               *usecases.ReplenishStock
	RetryPolicy             middleware.RetryPolicy
	TimeoutDuration         time.Duration
	CircuitBreakerThreshold float64
	CircuitBreakerTimeout   time.Duration
}

// NewActivityRegistry creates and registers all activities with middleware
func NewActivityRegistry(deps *ActivityDeps) *task.TaskRegistry {
	registry := task.NewTaskRegistry()

	registerActivity(registry, ActivityReserveStock, stock.ReserveStockActivity(deps.Reserve), deps)
	registerActivity(registry, ActivityReleaseStock, stock.ReleaseStockActivity(deps.Release), deps)
	registerActivity(registry, ActivityConfirmStock, stock.ConfirmStockActivity(deps.Confirm), deps)
	registerActivity(registry, ActivityCheckInventory, stock.CheckInventoryActivity(deps.Check), deps)
	registerActivity(registry, ActivityReplenishStock, stock.ReplenishStockActivity(deps.Replenish), deps)

	return registry
}

// registerActivity registers an activity with middleware
func registerActivity(registry *task.TaskRegistry, name string, activity middleware.ActivityFunc, deps *ActivityDeps) {
	// middleware order matters: retry wraps the breaker so a half-open probe
	// happens per attempt, and gRPC classification runs before retry decides
	wrapped := middleware.ApplyMiddleware(
		activity,
		middleware.WithLogging(deps.Logger, name),
		middleware.WithTimeout(deps.TimeoutDuration),
		middleware.WithGRPCErrorHandling(),
		middleware.WithRetry(deps.Logger, deps.RetryPolicy),
		middleware.WithCircuitBreaker(name, deps.CircuitBreakerThreshold, deps.CircuitBreakerTimeout),
	)

	// Adapt middleware.ActivityFunc to task.Activity. The raw JSON input
	// passes through untouched; each activity does its own decoding.
	taskActivity := func(ctx task.ActivityContext) (any, error) {
		var input json.RawMessage
		if err := ctx.GetInput(&input); err != nil {
			return nil, err
		}

		output, err := wrapped(ctx.Context(), input)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(output), nil
	}

	registry.AddActivityN(name, taskActivity)
}
