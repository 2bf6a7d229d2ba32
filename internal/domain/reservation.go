package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/artisanmarket/inventory/internal/pkg/errors"
)

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusReleased  ReservationStatus = "RELEASED"
	ReservationStatusExpired   ReservationStatus = "EXPIRED"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
)

// DefaultReservationTTL is how long a reservation holds stock before the
// sweeper may expire it
const DefaultReservationTTL = 15 * time.Minute

// ExpiryReleaseReason is the release reason recorded when a reservation
// expires
const ExpiryReleaseReason = "order_expired"

// ReservationItem is one product/quantity pair held by a reservation
type ReservationItem struct {
	ProductID string
	Quantity  Quantity
}

// Reservation is a time-bound hold on stock pending order completion or
// cancellation. Transitions only originate from ACTIVE; RELEASED, EXPIRED
// and CONFIRMED are terminal. Records are retained indefinitely as an audit
// trail, never deleted.
type Reservation struct {
	id            string
	orderID       string
	items         []ReservationItem
	status        ReservationStatus
	createdAt     time.Time
	expiresAt     time.Time
	releasedAt    *time.Time
	releaseReason string
}

// NewReservation creates an active reservation for an order. A non-positive
// ttl falls back to DefaultReservationTTL.
func NewReservation(orderID string, items []ReservationItem, ttl time.Duration) (*Reservation, error) {
	if orderID == "" {
		return nil, errors.NewValidationError("order id cannot be empty")
	}
	if len(items) == 0 {
		return nil, errors.NewValidationError("reservation must contain at least one item")
	}
	for _, item := range items {
		if item.ProductID == "" {
			return nil, errors.NewValidationError("reservation item product id cannot be empty")
		}
		if item.Quantity.IsZero() {
			return nil, errors.NewValidationError("reservation item quantity must be positive")
		}
	}
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}

	now := time.Now().UTC()
	return &Reservation{
		id:        uuid.NewString(),
		orderID:   orderID,
		items:     items,
		status:    ReservationStatusActive,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}, nil
}

// ID returns the reservation id
func (r *Reservation) ID() string { return r.id }

// OrderID returns the owning order id
func (r *Reservation) OrderID() string { return r.orderID }

// Items returns the reserved product/quantity pairs
func (r *Reservation) Items() []ReservationItem {
	out := make([]ReservationItem, len(r.items))
	copy(out, r.items)
	return out
}

// Status returns the reservation status
func (r *Reservation) Status() ReservationStatus { return r.status }

// CreatedAt returns the creation timestamp
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }

// ExpiresAt returns the expiry deadline
func (r *Reservation) ExpiresAt() time.Time { return r.expiresAt }

// ReleasedAt returns when the reservation left the active state, if it has
func (r *Reservation) ReleasedAt() *time.Time {
	if r.releasedAt == nil {
		return nil
	}
	t := *r.releasedAt
	return &t
}

// ReleaseReason returns the reason recorded on the terminal transition
func (r *Reservation) ReleaseReason() string { return r.releaseReason }

// HoldsProduct reports whether the reservation covers the given product
func (r *Reservation) HoldsProduct(productID string) bool {
	for _, item := range r.items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// IsExpired reports whether an active reservation is past its deadline
func (r *Reservation) IsExpired() bool {
	return r.status == ReservationStatusActive && time.Now().After(r.expiresAt)
}

// Release transitions ACTIVE -> RELEASED, recording the reason
func (r *Reservation) Release(reason string) error {
	if r.status != ReservationStatusActive {
		return errors.NewInvalidReservationStateError(r.id, string(r.status))
	}
	now := time.Now().UTC()
	r.status = ReservationStatusReleased
	r.releasedAt = &now
	r.releaseReason = reason
	return nil
}

// Confirm transitions ACTIVE -> CONFIRMED
func (r *Reservation) Confirm() error {
	if r.status != ReservationStatusActive {
		return errors.NewInvalidReservationStateError(r.id, string(r.status))
	}
	now := time.Now().UTC()
	r.status = ReservationStatusConfirmed
	r.releasedAt = &now
	return nil
}

// Expire transitions ACTIVE -> EXPIRED. Already-terminal reservations are a
// silent no-op: the external sweeper that drives expiry may fire more than
// once.
func (r *Reservation) Expire() {
	if r.status != ReservationStatusActive {
		return
	}
	now := time.Now().UTC()
	r.status = ReservationStatusExpired
	r.releasedAt = &now
	r.releaseReason = ExpiryReleaseReason
}

// TotalItems returns the sum of all item quantities
func (r *Reservation) TotalItems() int64 {
	var total int64
	for _, item := range r.items {
		total += item.Quantity.Int64()
	}
	return total
}

// ReservationSnapshot is the flat persistence view of a reservation
type ReservationSnapshot struct {
	ID            string
	OrderID       string
	Items         []ReservationItem
	Status        ReservationStatus
	CreatedAt     time.Time
	ExpiresAt     time.Time
	ReleasedAt    *time.Time
	ReleaseReason string
}

// Snapshot returns the persistence view of the reservation
func (r *Reservation) Snapshot() ReservationSnapshot {
	return ReservationSnapshot{
		ID:            r.id,
		OrderID:       r.orderID,
		Items:         r.Items(),
		Status:        r.status,
		CreatedAt:     r.createdAt,
		ExpiresAt:     r.expiresAt,
		ReleasedAt:    r.ReleasedAt(),
		ReleaseReason: r.releaseReason,
	}
}

// ReservationFromSnapshot rehydrates a reservation from persistence
func ReservationFromSnapshot(s ReservationSnapshot) *Reservation {
	items := make([]ReservationItem, len(s.Items))
	copy(items, s.Items)
	return &Reservation{
		id:            s.ID,
		orderID:       s.OrderID,
		items:         items,
		status:        s.Status,
		createdAt:     s.CreatedAt,
		expiresAt:     s.ExpiresAt,
		releasedAt:    s.ReleasedAt,
		releaseReason: s.ReleaseReason,
	}
}
