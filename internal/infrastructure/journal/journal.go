package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/artisanmarket/inventory/internal/domain"
)

// Entry is one journaled domain event, as stored
type Entry struct {
	ID          int64
	EventID     string
	EventType   string
	AggregateID string
	SagaID      string
	OccurredOn  time.Time
	Payload     json.RawMessage
}

// Journal is a local append-only record of every published domain event,
// kept for audit queries and replay. Appends buffer in memory and flush in
// batches; the publisher treats journal failures as best effort, so a lost
// batch costs audit detail, never correctness.
type Journal struct {
	db        *sql.DB
	mu        sync.Mutex
	batch     []domain.Event
	batchSize int
	flushTick *time.Ticker
	done      chan struct{}
}

// Open creates (or reopens) the journal database at path
func Open(path string, batchSize int) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	return open(path+"?_journal_mode=WAL&_busy_timeout=5000", batchSize)
}

// OpenInMemory creates a throwaway journal for tests
func OpenInMemory(batchSize int) (*Journal, error) {
	return open(":memory:", batchSize)
}

func open(dsn string, batchSize int) (*Journal, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	db.SetMaxOpenConns(1)

	j := &Journal{
		db:        db,
		batch:     make([]domain.Event, 0, batchSize),
		batchSize: batchSize,
		flushTick: time.NewTicker(5 * time.Second),
		done:      make(chan struct{}),
	}
	if err := j.initSchema(); err != nil {
		return nil, err
	}

	go j.flushWorker()
	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS event_journal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT NOT NULL UNIQUE,
		event_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		saga_id TEXT NOT NULL DEFAULT '',
		occurred_on DATETIME NOT NULL,
		payload JSON NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_aggregate
		ON event_journal(aggregate_id, occurred_on);
	CREATE INDEX IF NOT EXISTS idx_journal_saga ON event_journal(saga_id);
	CREATE INDEX IF NOT EXISTS idx_journal_type ON event_journal(event_type);
	`

	_, err := j.db.Exec(schema)
	return err
}

// Append buffers the events for the next flush
func (j *Journal) Append(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	j.mu.Lock()
	j.batch = append(j.batch, events...)
	shouldFlush := len(j.batch) >= j.batchSize
	j.mu.Unlock()

	if shouldFlush {
		return j.Flush()
	}
	return nil
}

// Flush writes all buffered events in a single transaction
func (j *Journal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.batch) == 0 {
		return nil
	}

	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin journal transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO event_journal
			(event_id, event_type, aggregate_id, saga_id, occurred_on, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare journal insert: %w", err)
	}
	defer stmt.Close()

	for _, event := range j.batch {
		payload, err := json.Marshal(event.EventData)
		if err != nil {
			return fmt.Errorf("failed to encode event payload: %w", err)
		}
		_, err = stmt.Exec(
			event.EventID,
			string(event.EventType),
			event.AggregateID,
			event.SagaID,
			event.OccurredOn,
			string(payload),
		)
		if err != nil {
			return fmt.Errorf("failed to insert journal entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit journal batch: %w", err)
	}

	j.batch = j.batch[:0]
	return nil
}

func (j *Journal) flushWorker() {
	for {
		select {
		case <-j.flushTick.C:
			j.Flush()
		case <-j.done:
			return
		}
	}
}

// Close flushes remaining events and closes the database
func (j *Journal) Close() error {
	j.flushTick.Stop()
	close(j.done)

	if err := j.Flush(); err != nil {
		return err
	}
	return j.db.Close()
}

// ByAggregate returns the journaled events for one aggregate, oldest first
func (j *Journal) ByAggregate(ctx context.Context, aggregateID string) ([]Entry, error) {
	return j.query(ctx, `
		SELECT id, event_id, event_type, aggregate_id, saga_id, occurred_on, payload
		FROM event_journal
		WHERE aggregate_id = ?
		ORDER BY occurred_on ASC, id ASC`, aggregateID)
}

// BySaga returns the journaled events attributed to one saga, oldest first
func (j *Journal) BySaga(ctx context.Context, sagaID string) ([]Entry, error) {
	return j.query(ctx, `
		SELECT id, event_id, event_type, aggregate_id, saga_id, occurred_on, payload
		FROM event_journal
		WHERE saga_id = ?
		ORDER BY occurred_on ASC, id ASC`, sagaID)
}

func (j *Journal) query(ctx context.Context, query string, args ...interface{}) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var payload string
		err := rows.Scan(
			&entry.ID, &entry.EventID, &entry.EventType,
			&entry.AggregateID, &entry.SagaID, &entry.OccurredOn, &payload,
		)
		if err != nil {
			return nil, err
		}
		entry.Payload = json.RawMessage(payload)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
