package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/artisanmarket/inventory/internal/pkg/errors"
)

// StockStatus is derived from stock levels and the activity flag; it is
// never stored
type StockStatus string

const (
	StockStatusInStock      StockStatus = "in_stock"
	StockStatusLowStock     StockStatus = "low_stock"
	StockStatusOutOfStock   StockStatus = "out_of_stock"
	StockStatusDiscontinued StockStatus = "discontinued"
)

const (
	defaultReorderPoint    = 10
	defaultReorderQuantity = 50
)

// Product is the aggregate root for stock mutations. All state changes go
// through its methods; the invariant 0 <= reservedStock <= currentStock
// holds after every mutation. Emitted events accumulate in an internal
// buffer and become observable only when drained after a successful save.
type Product struct {
	id              string
	sku             string
	name            string
	unitPrice       decimal.Decimal
	currency        string
	categoryID      string
	artisanID       string
	currentStock    Quantity
	reservedStock   Quantity
	minimumStock    Quantity
	maximumStock    Quantity
	reorderPoint    Quantity
	reorderQuantity Quantity
	isActive        bool
	createdAt       time.Time
	updatedAt       time.Time
	version         int64

	events []Event
}

// ProductParams carries the inputs for creating a new product
type ProductParams struct {
	SKU             string
	Name            string
	UnitPrice       decimal.Decimal
	Currency        string
	CategoryID      string
	ArtisanID       string
	InitialStock    int64
	MinimumStock    int64
	MaximumStock    int64
	ReorderPoint    int64
	ReorderQuantity int64
}

// NewProduct creates a new product with a generated id and default reorder
// thresholds when none are given
func NewProduct(params ProductParams) (*Product, error) {
	if params.SKU == "" {
		return nil, errors.NewValidationError("sku cannot be empty")
	}
	if params.Name == "" {
		return nil, errors.NewValidationError("name cannot be empty")
	}
	if params.Currency == "" {
		return nil, errors.NewValidationError("currency cannot be empty")
	}
	if params.UnitPrice.IsNegative() {
		return nil, errors.NewValidationError("unit price cannot be negative")
	}

	initialStock, err := NewQuantity(params.InitialStock)
	if err != nil {
		return nil, err
	}
	minimumStock, err := NewQuantity(params.MinimumStock)
	if err != nil {
		return nil, err
	}
	maximumStock, err := NewQuantity(params.MaximumStock)
	if err != nil {
		return nil, err
	}

	reorderPoint := Quantity(params.ReorderPoint)
	if params.ReorderPoint < 0 {
		return nil, errors.NewNegativeQuantityError(params.ReorderPoint)
	}
	if params.ReorderPoint == 0 {
		reorderPoint = defaultReorderPoint
	}
	reorderQuantity := Quantity(params.ReorderQuantity)
	if params.ReorderQuantity < 0 {
		return nil, errors.NewNegativeQuantityError(params.ReorderQuantity)
	}
	if params.ReorderQuantity == 0 {
		reorderQuantity = defaultReorderQuantity
	}

	now := time.Now().UTC()
	return &Product{
		id:              uuid.NewString(),
		sku:             params.SKU,
		name:            params.Name,
		unitPrice:       params.UnitPrice,
		currency:        params.Currency,
		categoryID:      params.CategoryID,
		artisanID:       params.ArtisanID,
		currentStock:    initialStock,
		reservedStock:   ZeroQuantity,
		minimumStock:    minimumStock,
		maximumStock:    maximumStock,
		reorderPoint:    reorderPoint,
		reorderQuantity: reorderQuantity,
		isActive:        true,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ID returns the aggregate id
func (p *Product) ID() string { return p.id }

// SKU returns the stock keeping unit
func (p *Product) SKU() string { return p.sku }

// Name returns the product name
func (p *Product) Name() string { return p.name }

// UnitPrice returns the unit price
func (p *Product) UnitPrice() decimal.Decimal { return p.unitPrice }

// Currency returns the price currency code
func (p *Product) Currency() string { return p.currency }

// CategoryID returns the owning category
func (p *Product) CategoryID() string { return p.categoryID }

// ArtisanID returns the owning artisan
func (p *Product) ArtisanID() string { return p.artisanID }

// CurrentStock returns the physical stock on hand
func (p *Product) CurrentStock() Quantity { return p.currentStock }

// ReservedStock returns the quantity held by active reservations
func (p *Product) ReservedStock() Quantity { return p.reservedStock }

// MinimumStock returns the minimum stock threshold
func (p *Product) MinimumStock() Quantity { return p.minimumStock }

// MaximumStock returns the maximum stock threshold
func (p *Product) MaximumStock() Quantity { return p.maximumStock }

// ReorderPoint returns the available-stock threshold below which a low
// stock warning fires
func (p *Product) ReorderPoint() Quantity { return p.reorderPoint }

// ReorderQuantity returns the suggested restock quantity
func (p *Product) ReorderQuantity() Quantity { return p.reorderQuantity }

// IsActive reports whether the product is active
func (p *Product) IsActive() bool { return p.isActive }

// CreatedAt returns the creation timestamp
func (p *Product) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last mutation timestamp
func (p *Product) UpdatedAt() time.Time { return p.updatedAt }

// Version returns the persistence version used for optimistic concurrency
func (p *Product) Version() int64 { return p.version }

// AvailableStock is currentStock minus reservedStock. Derived, never stored.
func (p *Product) AvailableStock() Quantity {
	return p.currentStock - p.reservedStock
}

// StockStatus derives the stock status from current state
func (p *Product) StockStatus() StockStatus {
	switch {
	case !p.isActive:
		return StockStatusDiscontinued
	case p.AvailableStock() <= ZeroQuantity:
		return StockStatusOutOfStock
	case p.AvailableStock() <= p.reorderPoint:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// CanReserve reports whether qty units can be reserved right now
func (p *Product) CanReserve(qty Quantity) bool {
	return p.isActive && p.AvailableStock().GreaterThanOrEqual(qty)
}

// Reserve holds qty units against an order. On shortage an OutOfStock event
/// is recorded before the insufficient-stock error is returned: the event is
// the signal for alerting and restocking, the error is the signal for the
// caller's control flow. On success a StockReserved event is recorded,
// followed by a LowStockWarning when the resulting available stock is at or
// below the reorder point.
func (p *Product) Reserve(qty Quantity, orderID, sagaID string) error {
	if qty.IsZero() {
		return errors.NewValidationError("reserve quantity must be positive")
	}
	if !p.isActive {
		return errors.NewProductInactiveError(p.id)
	}
	if !p.CanReserve(qty) {
		p.record(newEvent(EventOutOfStock, p.id, OutOfStockData{
			OrderID:           orderID,
			RequestedQuantity: qty.Int64(),
			AvailableStock:    p.AvailableStock().Int64(),
			Timestamp:         time.Now().UTC(),
		}, sagaID))
		return errors.NewInsufficientStockError(p.id, qty.Int64(), p.AvailableStock().Int64())
	}

	p.reservedStock = p.reservedStock.Add(qty)
	p.touch()
	p.record(newEvent(EventStockReserved, p.id, StockReservedData{
		OrderID:        orderID,
		Quantity:       qty.Int64(),
		CurrentStock:   p.currentStock.Int64(),
		ReservedStock:  p.reservedStock.Int64(),
		AvailableStock: p.AvailableStock().Int64(),
	}, sagaID))
	p.recordLowStockIfNeeded(sagaID)
	return nil
}

// Release returns qty reserved units to the available pool. No mutation and
// no event when more is released than is currently reserved.
func (p *Product) Release(qty Quantity, orderID, reason, sagaID string) error {
	if qty.IsZero() {
		return errors.NewValidationError("release quantity must be positive")
	}
	if p.reservedStock.LessThan(qty) {
		return errors.NewCannotReleaseError(p.id, qty.Int64(), p.reservedStock.Int64())
	}

	remaining, err := p.reservedStock.Subtract(qty)
	if err != nil {
		return err
	}
	p.reservedStock = remaining
	p.touch()
	p.record(newEvent(EventStockReleased, p.id, StockReleasedData{
		OrderID:        orderID,
		Quantity:       qty.Int64(),
		Reason:         reason,
		ReservedStock:  p.reservedStock.Int64(),
		AvailableStock: p.AvailableStock().Int64(),
	}, sagaID))
	return nil
}

// Confirm converts qty reserved units into a permanent deduction: both
// currentStock and reservedStock decrease. This is the order-completion
// path.
func (p *Product) Confirm(qty Quantity, orderID, sagaID string) error {
	if qty.IsZero() {
		return errors.NewValidationError("confirm quantity must be positive")
	}
	if p.reservedStock.LessThan(qty) {
		return errors.NewCannotConfirmError(p.id, qty.Int64(), p.reservedStock.Int64())
	}

	// reservedStock >= qty and currentStock >= reservedStock, so neither
	// subtraction can go negative
	remainingReserved, err := p.reservedStock.Subtract(qty)
	if err != nil {
		return err
	}
	remainingCurrent, err := p.currentStock.Subtract(qty)
	if err != nil {
		return err
	}
	p.reservedStock = remainingReserved
	p.currentStock = remainingCurrent
	p.touch()
	p.record(newEvent(EventStockDeducted, p.id, StockDeductedData{
		OrderID:        orderID,
		Quantity:       qty.Int64(),
		CurrentStock:   p.currentStock.Int64(),
		ReservedStock:  p.reservedStock.Int64(),
		AvailableStock: p.AvailableStock().Int64(),
	}, sagaID))
	p.recordLowStockIfNeeded(sagaID)
	return nil
}

// Replenish adds qty units of physical stock, e.g. a restock from a
// supplier
func (p *Product) Replenish(qty Quantity, reason, sagaID string) error {
	if qty.IsZero() {
		return errors.NewValidationError("replenish quantity must be positive")
	}

	previous := p.currentStock
	p.currentStock = p.currentStock.Add(qty)
	p.touch()
	p.record(newEvent(EventStockReplenished, p.id, StockReplenishedData{
		Quantity:      qty.Int64(),
		PreviousStock: previous.Int64(),
		NewStock:      p.currentStock.Int64(),
		Reason:        reason,
	}, sagaID))
	return nil
}

// UpdateStock sets currentStock to an absolute value, e.g. after a physical
// recount. Administrative corrections emit no granular events.
func (p *Product) UpdateStock(newValue Quantity, reason string) error {
	if reason == "" {
		return errors.NewValidationError("stock update reason cannot be empty")
	}
	if newValue.LessThan(p.reservedStock) {
		return errors.NewValidationError("current stock cannot drop below reserved stock")
	}
	p.currentStock = newValue
	p.touch()
	return nil
}

// AdjustStock applies a signed correction to currentStock
func (p *Product) AdjustStock(delta int64, reason string) error {
	adjusted := p.currentStock.Int64() + delta
	if adjusted < 0 {
		return errors.NewNegativeQuantityError(adjusted)
	}
	return p.UpdateStock(Quantity(adjusted), reason)
}

// Activate marks the product active
func (p *Product) Activate() {
	p.isActive = true
	p.touch()
}

// Deactivate retires the product logically; it is never physically deleted
func (p *Product) Deactivate() {
	p.isActive = false
	p.touch()
}

// PendingEvents returns the buffered events without clearing them
func (p *Product) PendingEvents() []Event {
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// DrainEvents returns the buffered events in emission order and clears the
// buffer. Callers invoke this only after a successful persist so events are
// never observable before commit.
func (p *Product) DrainEvents() []Event {
	events := p.events
	p.events = nil
	return events
}

func (p *Product) record(event Event) {
	p.events = append(p.events, event)
}

func (p *Product) recordLowStockIfNeeded(sagaID string) {
	if p.AvailableStock() <= p.reorderPoint {
		p.record(newEvent(EventLowStock, p.id, LowStockData{
			AvailableStock:  p.AvailableStock().Int64(),
			ReorderPoint:    p.reorderPoint.Int64(),
			ReorderQuantity: p.reorderQuantity.Int64(),
		}, sagaID))
	}
}

func (p *Product) touch() {
	p.updatedAt = time.Now().UTC()
}

// ProductSnapshot is the flat persistence view of a product
type ProductSnapshot struct {
	ID              string
	SKU             string
	Name            string
	UnitPrice       decimal.Decimal
	Currency        string
	CategoryID      string
	ArtisanID       string
	CurrentStock    int64
	ReservedStock   int64
	MinimumStock    int64
	MaximumStock    int64
	ReorderPoint    int64
	ReorderQuantity int64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
}

// Snapshot returns the persistence view of the product
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:              p.id,
		SKU:             p.sku,
		Name:            p.name,
		UnitPrice:       p.unitPrice,
		Currency:        p.currency,
		CategoryID:      p.categoryID,
		ArtisanID:       p.artisanID,
		CurrentStock:    p.currentStock.Int64(),
		ReservedStock:   p.reservedStock.Int64(),
		MinimumStock:    p.minimumStock.Int64(),
		MaximumStock:    p.maximumStock.Int64(),
		ReorderPoint:    p.reorderPoint.Int64(),
		ReorderQuantity: p.reorderQuantity.Int64(),
		IsActive:        p.isActive,
		CreatedAt:       p.createdAt,
		UpdatedAt:       p.updatedAt,
		Version:         p.version,
	}
}

// ProductFromSnapshot rehydrates a product from persistence, re-validating
// the stock invariant
func ProductFromSnapshot(s ProductSnapshot) (*Product, error) {
	currentStock, err := NewQuantity(s.CurrentStock)
	if err != nil {
		return nil, err
	}
	reservedStock, err := NewQuantity(s.ReservedStock)
	if err != nil {
		return nil, err
	}
	if currentStock.LessThan(reservedStock) {
		return nil, errors.NewValidationError("reserved stock exceeds current stock")
	}

	return &Product{
		id:              s.ID,
		sku:             s.SKU,
		name:            s.Name,
		unitPrice:       s.UnitPrice,
		currency:        s.Currency,
		categoryID:      s.CategoryID,
		artisanID:       s.ArtisanID,
		currentStock:    currentStock,
		reservedStock:   reservedStock,
		minimumStock:    Quantity(s.MinimumStock),
		maximumStock:    Quantity(s.MaximumStock),
		reorderPoint:    Quantity(s.ReorderPoint),
		reorderQuantity: Quantity(s.ReorderQuantity),
		isActive:        s.IsActive,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
		version:         s.Version,
	}, nil
}
