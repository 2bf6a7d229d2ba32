package workflows

import (
	"fmt"

	"github.com/microsoft/durabletask-go/task"

	"github.com/artisanmarket/inventory/internal/activities"
	"github.com/artisanmarket/inventory/internal/activities/stock"
	"github.com/artisanmarket/inventory/internal/usecases"
)

// Orchestrator names as registered with the task hub
const (
	OrchestratorOrderReservation  = "order_reservation"
	OrchestratorOrderCancellation = "order_cancellation"
	OrchestratorOrderCompletion   = "order_completion"
)

// OrderItem is one line of an order as seen by the orchestrators
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// OrderWorkflowInput is the shared input of the order orchestrators
type OrderWorkflowInput struct {
	OrderID string      `json:"orderId"`
	SagaID  string      `json:"sagaId,omitempty"`
	Items   []OrderItem `json:"items"`
	Reason  string      `json:"reason,omitempty"`
}

// ItemOutcome reports the per-line result of an order workflow
type ItemOutcome struct {
	ProductID     string `json:"productId"`
	Success       bool   `json:"success"`
	ReservationID string `json:"reservationId,omitempty"`
	Message       string `json:"message,omitempty"`
}

// OrderWorkflowOutput is the shared output of the order orchestrators
type OrderWorkflowOutput struct {
	OrderID string        `json:"orderId"`
	Status  string        `json:"status"`
	Items   []ItemOutcome `json:"items"`
	Message string        `json:"message,omitempty"`
}

// OrderReservationOrchestrator reserves stock for every line of an order.
// Any line failing to reserve rolls back the lines already reserved, so an
// order never ends up partially held.
func OrderReservationOrchestrator(ctx *task.OrchestrationContext) (any, error) {
	var inp OrderWorkflowInput
	if err := ctx.GetInput(&inp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reservation input: %w", err)
	}

	output := OrderWorkflowOutput{OrderID: inp.OrderID, Status: "pending"}

	// Step 1: availability snapshot across all lines. The snapshot is
	// advisory; the reserve step still decides authoritatively per line.
	productIDs := make([]string, 0, len(inp.Items))
	for _, item := range inp.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	checkTask := ctx.CallActivity(activities.ActivityCheckInventory,
		task.WithActivityInput(stock.CheckInventoryInput{ProductIDs: productIDs}))
	var checkResult usecases.BulkInventoryResult
	if err := checkTask.Await(&checkResult); err != nil {
		output.Status = "failed"
		output.Message = fmt.Sprintf("inventory check failed: %v", err)
		return output, nil
	}
	if len(checkResult.Missing) > 0 {
		output.Status = "failed"
		output.Message = fmt.Sprintf("unknown products: %v", checkResult.Missing)
		return output, nil
	}

	// Step 2: reserve line by line
	var reserved []OrderItem
	for _, item := range inp.Items {
		reserveTask := ctx.CallActivity(activities.ActivityReserveStock,
			task.WithActivityInput(usecases.ReserveStockInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				OrderID:   inp.OrderID,
				SagaID:    inp.SagaID,
			}))
		var reserveResult usecases.ReserveStockResult
		err := reserveTask.Await(&reserveResult)

		if err != nil || !reserveResult.Success {
			message := reserveResult.Message
			if err != nil {
				message = err.Error()
			}
			output.Items = append(output.Items, ItemOutcome{
				ProductID: item.ProductID,
				Success:   false,
				Message:   message,
			})
			compensate(ctx, inp, reserved)
			output.Status = "failed"
			output.Message = fmt.Sprintf("reservation failed for product %s", item.ProductID)
			return output, nil
		}

		reserved = append(reserved, item)
		output.Items = append(output.Items, ItemOutcome{
			ProductID:     item.ProductID,
			Success:       true,
			ReservationID: reserveResult.ReservationID,
		})
	}

	output.Status = "reserved"
	return output, nil
}

// compensate releases the lines already reserved for a failed order. Release
// failures are swallowed: the expiry sweeper reclaims anything left behind.
func compensate(ctx *task.OrchestrationContext, inp OrderWorkflowInput, reserved []OrderItem) {
	for _, item := range reserved {
		releaseTask := ctx.CallActivity(activities.ActivityReleaseStock,
			task.WithActivityInput(usecases.ReleaseStockInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				OrderID:   inp.OrderID,
				Reason:    "reservation_rollback",
				SagaID:    inp.SagaID,
			}))
		releaseTask.Await(nil)
	}
}

// OrderCancellationOrchestrator releases every line of a cancelled order.
// Lines are independent: one failed release never blocks the rest.
func OrderCancellationOrchestrator(ctx *task.OrchestrationContext) (any, error) {
	var inp OrderWorkflowInput
	if err := ctx.GetInput(&inp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cancellation input: %w", err)
	}

	reason := inp.Reason
	if reason == "" {
		reason = "order_cancelled"
	}

	output := OrderWorkflowOutput{OrderID: inp.OrderID, Status: "released"}
	for _, item := range inp.Items {
		releaseTask := ctx.CallActivity(activities.ActivityReleaseStock,
			task.WithActivityInput(usecases.ReleaseStockInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				OrderID:   inp.OrderID,
				Reason:    reason,
				SagaID:    inp.SagaID,
			}))
		var releaseResult usecases.ReleaseStockResult
		err := releaseTask.Await(&releaseResult)

		outcome := ItemOutcome{ProductID: item.ProductID, Success: err == nil && releaseResult.Success}
		if err != nil {
			outcome.Message = err.Error()
			output.Status = "partial"
		} else if !releaseResult.Success {
			outcome.Message = releaseResult.Message
			output.Status = "partial"
		}
		output.Items = append(output.Items, outcome)
	}

	return output, nil
}

// OrderCompletionOrchestrator converts every reserved line of a paid order
// into a permanent deduction
func OrderCompletionOrchestrator(ctx *task.OrchestrationContext) (any, error) {
	var inp OrderWorkflowInput
	if err := ctx.GetInput(&inp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal completion input: %w", err)
	}

	output := OrderWorkflowOutput{OrderID: inp.OrderID, Status: "completed"}
	for _, item := range inp.Items {
		confirmTask := ctx.CallActivity(activities.ActivityConfirmStock,
			task.WithActivityInput(usecases.ConfirmStockInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				OrderID:   inp.OrderID,
				SagaID:    inp.SagaID,
			}))
		var confirmResult usecases.ConfirmStockResult
		err := confirmTask.Await(&confirmResult)

		outcome := ItemOutcome{ProductID: item.ProductID, Success: err == nil && confirmResult.Success}
		if err != nil {
			outcome.Message = err.Error()
			output.Status = "partial"
		} else if !confirmResult.Success {
			outcome.Message = confirmResult.Message
			output.Status = "partial"
		}
		output.Items = append(output.Items, outcome)
	}

	return output, nil
}
