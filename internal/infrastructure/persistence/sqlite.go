package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/artisanmarket/inventory/internal/domain"
	"github.com/artisanmarket/inventory/internal/infrastructure/config"
	"github.com/artisanmarket/inventory/internal/pkg/errors"
)

// Store is the SQLite-backed persistence layer for products and
// reservations. Product saves carry an optimistic version check: two
// concurrent mutations of the same product race on the version column and
// the loser gets a transient conflict it can retry.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the inventory database at cfg.SQLiteFile
func NewStore(cfg *config.StorageConfig) (*Store, error) {
	dir := filepath.Dir(cfg.SQLiteFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.SQLiteFile+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections / 2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewStoreInMemory opens a throwaway in-memory database, used by
// integration tests. Each call gets its own database.
func NewStoreInMemory() (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a shared in-memory database vanishes when its last connection closes
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		sku TEXT NOT NULL,
		name TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		currency TEXT NOT NULL,
		category_id TEXT NOT NULL DEFAULT '',
		artisan_id TEXT NOT NULL DEFAULT '',
		current_stock INTEGER NOT NULL,
		reserved_stock INTEGER NOT NULL,
		minimum_stock INTEGER NOT NULL DEFAULT 0,
		maximum_stock INTEGER NOT NULL DEFAULT 0,
		reorder_point INTEGER NOT NULL,
		reorder_quantity INTEGER NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		CHECK (reserved_stock >= 0),
		CHECK (reserved_stock <= current_stock)
	);

	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
	CREATE INDEX IF NOT EXISTS idx_products_artisan ON products(artisan_id);

	CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		status TEXT NOT NULL,
		items JSON NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		released_at DATETIME,
		release_reason TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_reservations_order ON reservations(order_id);

	-- the expiry sweeper scans by status and deadline
	CREATE INDEX IF NOT EXISTS idx_reservations_status_expiry
		ON reservations(status, expires_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

const productColumns = `id, sku, name, unit_price, currency, category_id, artisan_id,
	current_stock, reserved_stock, minimum_stock, maximum_stock,
	reorder_point, reorder_quantity, is_active, created_at, updated_at, version`

// FindByID loads a product by id
func (s *Store) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	product, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("product", id)
	}
	return product, err
}

// FindByIDs loads the products that exist among the given ids; unknown ids
// are simply absent from the result
func (s *Store) FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]byte, 0, len(ids)*2)
	args := make([]interface{}, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, id)
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id IN (` + string(placeholders) + `)`
	return s.queryProducts(ctx, query, args...)
}

// Save persists the product. The version predicate in the UPDATE detects a
// concurrent writer; the INSERT path handles first save.
func (s *Store) Save(ctx context.Context, product *domain.Product) error {
	snapshot := product.Snapshot()

	result, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			sku = ?, name = ?, unit_price = ?, currency = ?,
			category_id = ?, artisan_id = ?,
			current_stock = ?, reserved_stock = ?,
			minimum_stock = ?, maximum_stock = ?,
			reorder_point = ?, reorder_quantity = ?,
			is_active = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		snapshot.SKU, snapshot.Name, snapshot.UnitPrice.String(), snapshot.Currency,
		snapshot.CategoryID, snapshot.ArtisanID,
		snapshot.CurrentStock, snapshot.ReservedStock,
		snapshot.MinimumStock, snapshot.MaximumStock,
		snapshot.ReorderPoint, snapshot.ReorderQuantity,
		snapshot.IsActive, snapshot.UpdatedAt, snapshot.ID, snapshot.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// either the product does not exist yet or the version moved underneath us
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM products WHERE id = ?`, snapshot.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check product existence: %w", err)
	}
	if exists > 0 {
		return errors.NewTransientError(errors.CodeVersionConflict,
			fmt.Sprintf("product %s was modified concurrently", snapshot.ID), nil)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID, snapshot.SKU, snapshot.Name, snapshot.UnitPrice.String(), snapshot.Currency,
		snapshot.CategoryID, snapshot.ArtisanID,
		snapshot.CurrentStock, snapshot.ReservedStock,
		snapshot.MinimumStock, snapshot.MaximumStock,
		snapshot.ReorderPoint, snapshot.ReorderQuantity,
		snapshot.IsActive, snapshot.CreatedAt, snapshot.UpdatedAt, snapshot.Version+1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// FindAll returns every product
func (s *Store) FindAll(ctx context.Context) ([]*domain.Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY sku`)
}

// FindByCategory returns products in a category
func (s *Store) FindByCategory(ctx context.Context, categoryID string) ([]*domain.Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE category_id = ? ORDER BY sku`, categoryID)
}

// FindByArtisan returns products owned by an artisan
func (s *Store) FindByArtisan(ctx context.Context, artisanID string) ([]*domain.Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE artisan_id = ? ORDER BY sku`, artisanID)
}

// FindLowStock returns active products whose available stock is above zero
// but at or below their reorder point
func (s *Store) FindLowStock(ctx context.Context) ([]*domain.Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE is_active = 1
		  AND current_stock - reserved_stock > 0
		  AND current_stock - reserved_stock <= reorder_point
		ORDER BY sku`)
}

// FindOutOfStock returns active products with no available stock
func (s *Store) FindOutOfStock(ctx context.Context) ([]*domain.Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE is_active = 1 AND current_stock - reserved_stock <= 0
		ORDER BY sku`)
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var snapshot domain.ProductSnapshot
	var unitPrice string
	err := row.Scan(
		&snapshot.ID, &snapshot.SKU, &snapshot.Name, &unitPrice, &snapshot.Currency,
		&snapshot.CategoryID, &snapshot.ArtisanID,
		&snapshot.CurrentStock, &snapshot.ReservedStock,
		&snapshot.MinimumStock, &snapshot.MaximumStock,
		&snapshot.ReorderPoint, &snapshot.ReorderQuantity,
		&snapshot.IsActive, &snapshot.CreatedAt, &snapshot.UpdatedAt, &snapshot.Version,
	)
	if err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(unitPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to parse unit price: %w", err)
	}
	snapshot.UnitPrice = price
	return domain.ProductFromSnapshot(snapshot)
}

// SaveReservation persists the reservation; items are stored as a JSON
// column since they are only ever read back whole
func (s *Store) SaveReservation(ctx context.Context, reservation *domain.Reservation) error {
	snapshot := reservation.Snapshot()
	items, err := json.Marshal(snapshot.Items)
	if err != nil {
		return fmt.Errorf("failed to encode reservation items: %w", err)
	}

	var releasedAt interface{}
	if snapshot.ReleasedAt != nil {
		releasedAt = *snapshot.ReleasedAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reservations (id, order_id, status, items, created_at, expires_at, released_at, release_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			released_at = excluded.released_at,
			release_reason = excluded.release_reason`,
		snapshot.ID, snapshot.OrderID, string(snapshot.Status), string(items),
		snapshot.CreatedAt, snapshot.ExpiresAt, releasedAt, snapshot.ReleaseReason,
	)
	if err != nil {
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}

// FindReservationByID loads a reservation by id
func (s *Store) FindReservationByID(ctx context.Context, id string) (*domain.Reservation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, order_id, status, items, created_at, expires_at, released_at, release_reason
		FROM reservations WHERE id = ?`, id)
	reservation, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("reservation", id)
	}
	return reservation, err
}

// FindReservationsByOrderID returns all reservations for an order
func (s *Store) FindReservationsByOrderID(ctx context.Context, orderID string) ([]*domain.Reservation, error) {
	return s.queryReservations(ctx, `
		SELECT id, order_id, status, items, created_at, expires_at, released_at, release_reason
		FROM reservations WHERE order_id = ? ORDER BY created_at`, orderID)
}

// FindActiveExpiredReservations returns up to limit active reservations whose
// deadline passed before asOf, oldest first
func (s *Store) FindActiveExpiredReservations(ctx context.Context, asOf time.Time, limit int) ([]*domain.Reservation, error) {
	return s.queryReservations(ctx, `
		SELECT id, order_id, status, items, created_at, expires_at, released_at, release_reason
		FROM reservations
		WHERE status = ? AND expires_at < ?
		ORDER BY expires_at ASC
		LIMIT ?`, string(domain.ReservationStatusActive), asOf, limit)
}

func (s *Store) queryReservations(ctx context.Context, query string, args ...interface{}) ([]*domain.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*domain.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	return reservations, rows.Err()
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var snapshot domain.ReservationSnapshot
	var status, items string
	var releasedAt sql.NullTime
	err := row.Scan(
		&snapshot.ID, &snapshot.OrderID, &status, &items,
		&snapshot.CreatedAt, &snapshot.ExpiresAt, &releasedAt, &snapshot.ReleaseReason,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &snapshot.Items); err != nil {
		return nil, fmt.Errorf("failed to decode reservation items: %w", err)
	}
	snapshot.Status = domain.ReservationStatus(status)
	if releasedAt.Valid {
		t := releasedAt.Time
		snapshot.ReleasedAt = &t
	}
	return domain.ReservationFromSnapshot(snapshot), nil
}

// ProductStore adapts Store to the product repository port
type ProductStore struct{ *Store }

// ReservationStore adapts Store to the reservation repository port
type ReservationStore struct{ *Store }

// Save persists the reservation
func (s ReservationStore) Save(ctx context.Context, reservation *domain.Reservation) error {
	return s.SaveReservation(ctx, reservation)
}

// FindByID loads a reservation by id
func (s ReservationStore) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	return s.FindReservationByID(ctx, id)
}

// FindByOrderID returns all reservations for an order
func (s ReservationStore) FindByOrderID(ctx context.Context, orderID string) ([]*domain.Reservation, error) {
	return s.FindReservationsByOrderID(ctx, orderID)
}

// FindActiveExpired returns active reservations past their deadline
func (s ReservationStore) FindActiveExpired(ctx context.Context, asOf time.Time, limit int) ([]*domain.Reservation, error) {
	return s.FindActiveExpiredReservations(ctx, asOf, limit)
}
