package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/artisanmarket/inventory/internal/domain"
	"github.com/artisanmarket/inventory/internal/pkg/errors"
)

// MemoryProductRepository is a map-keyed-by-id store for unit tests. It is
// a test double only: it offers no real atomicity guarantees under
// concurrent access beyond a mutex around whole operations.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.ProductSnapshot
}

// NewMemoryProductRepository creates an empty in-memory product repository
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[string]domain.ProductSnapshot)}
}

// Seed stores a product bypassing version checks, for test setup
func (r *MemoryProductRepository) Seed(product *domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID()] = product.Snapshot()
}

// FindByID loads a product by id
func (r *MemoryProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot, ok := r.products[id]
	if !ok {
		return nil, errors.NewNotFoundError("product", id)
	}
	return domain.ProductFromSnapshot(snapshot)
}

// FindByIDs loads the products that exist among the given ids
func (r *MemoryProductRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		snapshot, ok := r.products[id]
		if !ok {
			continue
		}
		product, err := domain.ProductFromSnapshot(snapshot)
		if err != nil {
			return nil, err
		}
		out = append(out, product)
	}
	return out, nil
}

// Save stores the product, enforcing the optimistic version check the
// production store performs
func (r *MemoryProductRepository) Save(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := product.Snapshot()
	if existing, ok := r.products[snapshot.ID]; ok && existing.Version != snapshot.Version {
		return errors.NewTransientError(errors.CodeVersionConflict, "product version conflict", nil)
	}
	snapshot.Version++
	r.products[snapshot.ID] = snapshot
	return nil
}

// FindAll returns every stored product
func (r *MemoryProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	return r.filter(func(domain.ProductSnapshot) bool { return true })
}

// FindByCategory returns products in a category
func (r *MemoryProductRepository) FindByCategory(ctx context.Context, categoryID string) ([]*domain.Product, error) {
	return r.filter(func(s domain.ProductSnapshot) bool { return s.CategoryID == categoryID })
}

// FindByArtisan returns products owned by an artisan
func (r *MemoryProductRepository) FindByArtisan(ctx context.Context, artisanID string) ([]*domain.Product, error) {
	return r.filter(func(s domain.ProductSnapshot) bool { return s.ArtisanID == artisanID })
}

// FindLowStock returns active products at or below their reorder point with
// stock remaining
func (r *MemoryProductRepository) FindLowStock(ctx context.Context) ([]*domain.Product, error) {
	return r.filter(func(s domain.ProductSnapshot) bool {
		available := s.CurrentStock - s.ReservedStock
		return s.IsActive && available > 0 && available <= s.ReorderPoint
	})
}

// FindOutOfStock returns active products with no available stock
func (r *MemoryProductRepository) FindOutOfStock(ctx context.Context) ([]*domain.Product, error) {
	return r.filter(func(s domain.ProductSnapshot) bool {
		return s.IsActive && s.CurrentStock-s.ReservedStock <= 0
	})
}

func (r *MemoryProductRepository) filter(match func(domain.ProductSnapshot) bool) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Product
	for _, snapshot := range r.products {
		if !match(snapshot) {
			continue
		}
		product, err := domain.ProductFromSnapshot(snapshot)
		if err != nil {
			return nil, err
		}
		out = append(out, product)
	}
	return out, nil
}

// MemoryReservationRepository is the in-memory test double for reservation
// records
type MemoryReservationRepository struct {
	mu           sync.RWMutex
	reservations map[string]domain.ReservationSnapshot
}

// NewMemoryReservationRepository creates an empty in-memory reservation
// repository
func NewMemoryReservationRepository() *MemoryReservationRepository {
	return &MemoryReservationRepository{reservations: make(map[string]domain.ReservationSnapshot)}
}

// Save stores the reservation
func (r *MemoryReservationRepository) Save(ctx context.Context, reservation *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[reservation.ID()] = reservation.Snapshot()
	return nil
}

// FindByID loads a reservation by id
func (r *MemoryReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot, ok := r.reservations[id]
	if !ok {
		return nil, errors.NewNotFoundError("reservation", id)
	}
	return domain.ReservationFromSnapshot(snapshot), nil
}

// FindByOrderID returns all reservations for an order
func (r *MemoryReservationRepository) FindByOrderID(ctx context.Context, orderID string) ([]*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Reservation
	for _, snapshot := range r.reservations {
		if snapshot.OrderID == orderID {
			out = append(out, domain.ReservationFromSnapshot(snapshot))
		}
	}
	return out, nil
}

// FindActiveExpired returns up to limit ACTIVE reservations whose deadline
// passed before asOf
func (r *MemoryReservationRepository) FindActiveExpired(ctx context.Context, asOf time.Time, limit int) ([]*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Reservation
	for _, snapshot := range r.reservations {
		if snapshot.Status == domain.ReservationStatusActive && snapshot.ExpiresAt.Before(asOf) {
			out = append(out, domain.ReservationFromSnapshot(snapshot))
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}
