package workflows

import (
	"github.com/microsoft/durabletask-go/task"
)

// Register adds all order orchestrators to the registry that also holds the
// stock activities
func Register(registry *task.TaskRegistry) {
	registry.AddOrchestratorN(OrchestratorOrderReservation, OrderReservationOrchestrator)
	registry.AddOrchestratorN(OrchestratorOrderCancellation, OrderCancellationOrchestrator)
	registry.AddOrchestratorN(OrchestratorOrderCompletion, OrderCompletionOrchestrator)
}
