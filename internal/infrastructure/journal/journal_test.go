package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisanmarket/inventory/internal/domain"
)

func newTestJournal(t *testing.T, batchSize int) *Journal {
	t.Helper()
	j, err := OpenInMemory(batchSize)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func event(eventType domain.EventType, aggregateID, sagaID string) domain.Event {
	return domain.Event{
		EventID:      aggregateID + "-" + string(eventType),
		EventType:    eventType,
		AggregateID:  aggregateID,
		EventVersion: 1,
		OccurredOn:   time.Now().UTC(),
		EventData:    map[string]int64{"quantity": 5},
		SagaID:       sagaID,
	}
}

func TestJournal_AppendAndQuery(t *testing.T) {
	j := newTestJournal(t, 100)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, []domain.Event{
		event(domain.EventStockReserved, "prod-1", "saga-1"),
		event(domain.EventLowStock, "prod-1", "saga-1"),
		event(domain.EventStockReserved, "prod-2", ""),
	}))
	require.NoError(t, j.Flush())

	entries, err := j.ByAggregate(ctx, "prod-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, string(domain.EventStockReserved), entries[0].EventType)
	assert.Equal(t, string(domain.EventLowStock), entries[1].EventType)
	assert.JSONEq(t, `{"quantity":5}`, string(entries[0].Payload))

	bySaga, err := j.BySaga(ctx, "saga-1")
	require.NoError(t, err)
	assert.Len(t, bySaga, 2)
}

func TestJournal_FlushesWhenBatchFull(t *testing.T) {
	j := newTestJournal(t, 2)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, []domain.Event{
		event(domain.EventStockReserved, "prod-1", ""),
		event(domain.EventStockDeducted, "prod-1", ""),
	}))

	// batch size reached, no explicit Flush needed
	entries, err := j.ByAggregate(ctx, "prod-1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestJournal_DeduplicatesByEventID(t *testing.T) {
	j := newTestJournal(t, 100)
	ctx := context.Background()

	duplicate := event(domain.EventStockReserved, "prod-1", "")
	require.NoError(t, j.Append(ctx, []domain.Event{duplicate}))
	require.NoError(t, j.Flush())
	require.NoError(t, j.Append(ctx, []domain.Event{duplicate}))
	require.NoError(t, j.Flush())

	entries, err := j.ByAggregate(ctx, "prod-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
