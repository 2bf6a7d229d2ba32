package usecases

import (
	"context"
	"time"

	"github.com/artisanmarket/inventory/internal/domain"
)

// ProductRepository is the persistence contract for the Product aggregate.
// Save must be atomic per aggregate; mutual exclusion across concurrent
// writers is the store's responsibility (version check), not the core's.
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error)
	Save(ctx context.Context, product *domain.Product) error
	FindAll(ctx context.Context) ([]*domain.Product, error)
	FindByCategory(ctx context.Context, categoryID string) ([]*domain.Product, error)
	FindByArtisan(ctx context.Context, artisanID string) ([]*domain.Product, error)
	FindLowStock(ctx context.Context) ([]*domain.Product, error)
	FindOutOfStock(ctx context.Context) ([]*domain.Product, error)
}

// ReservationRepository is the persistence contract for reservation records
type ReservationRepository interface {
	Save(ctx context.Context, reservation *domain.Reservation) error
	FindByID(ctx context.Context, id string) (*domain.Reservation, error)
	FindByOrderID(ctx context.Context, orderID string) ([]*domain.Reservation, error)
	FindActiveExpired(ctx context.Context, asOf time.Time, limit int) ([]*domain.Reservation, error)
}

// EventPublisher delivers drained domain events to subscribers. Delivery is
// at-least-once; subscribers deduplicate by event id.
type EventPublisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}
