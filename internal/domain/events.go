package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a domain event; downstream routing maps each type to
// a message-bus topic
type EventType string

const (
	EventStockReserved    EventType = "StockReserved"
	EventOutOfStock       EventType = "OutOfStock"
	EventStockReleased    EventType = "StockReleased"
	EventStockDeducted    EventType = "StockDeducted"
	EventStockReplenished EventType = "StockReplenished"
	EventLowStock         EventType = "LowStockWarning"
)

// AllEventTypes lists every event type the Product aggregate can emit
var AllEventTypes = []EventType{
	EventStockReserved,
	EventOutOfStock,
	EventStockReleased,
	EventStockDeducted,
	EventStockReplenished,
	EventLowStock,
}

// Event is the immutable envelope for a domain event. Delivery downstream is
// at-least-once; subscribers deduplicate by EventID. Ordering between events
// emitted by the same aggregate mutation is significant: the primary event
// always precedes a LowStockWarning triggered by the same call.
type Event struct {
	EventID      string      `json:"eventId"`
	EventType    EventType   `json:"eventType"`
	AggregateID  string      `json:"aggregateId"`
	EventVersion int         `json:"eventVersion"`
	OccurredOn   time.Time   `json:"occurredOn"`
	EventData    interface{} `json:"eventData"`
	SagaID       string      `json:"sagaId,omitempty"`
}

func newEvent(eventType EventType, aggregateID string, data interface{}, sagaID string) Event {
	return Event{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		AggregateID:  aggregateID,
		EventVersion: 1,
		OccurredOn:   time.Now().UTC(),
		EventData:    data,
		SagaID:       sagaID,
	}
}

// StockReservedData is the payload of a StockReserved event
type StockReservedData struct {
	OrderID        string `json:"orderId"`
	Quantity       int64  `json:"quantity"`
	CurrentStock   int64  `json:"currentStock"`
	ReservedStock  int64  `json:"reservedStock"`
	AvailableStock int64  `json:"availableStock"`
}

// OutOfStockData is the payload of an OutOfStock event, emitted when a
// reserve call finds less stock than requested
type OutOfStockData struct {
	OrderID           string    `json:"orderId"`
	RequestedQuantity int64     `json:"requestedQuantity"`
	AvailableStock    int64     `json:"availableStock"`
	Timestamp         time.Time `json:"timestamp"`
}

// StockReleasedData is the payload of a StockReleased event
type StockReleasedData struct {
	OrderID        string `json:"orderId"`
	Quantity       int64  `json:"quantity"`
	Reason         string `json:"reason"`
	ReservedStock  int64  `json:"reservedStock"`
	AvailableStock int64  `json:"availableStock"`
}

// StockDeductedData is the payload of a StockDeducted event, emitted when a
// reservation is converted into a permanent deduction
type StockDeductedData struct {
	OrderID        string `json:"orderId"`
	Quantity       int64  `json:"quantity"`
	CurrentStock   int64  `json:"currentStock"`
	ReservedStock  int64  `json:"reservedStock"`
	AvailableStock int64  `json:"availableStock"`
}

// StockReplenishedData is the payload of a StockReplenished event
type StockReplenishedData struct {
	Quantity      int64  `json:"quantity"`
	PreviousStock int64  `json:"previousStock"`
	NewStock      int64  `json:"newStock"`
	Reason        string `json:"reason"`
}

// LowStockData is the payload of a LowStockWarning event, emitted when
// available stock drops to the reorder point or below
type LowStockData struct {
	AvailableStock  int64 `json:"availableStock"`
	ReorderPoint    int64 `json:"reorderPoint"`
	ReorderQuantity int64 `json:"reorderQuantity"`
}
