package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/artisanmarket/inventory/internal/domain"
	"github.com/artisanmarket/inventory/internal/infrastructure/observability"
	"github.com/artisanmarket/inventory/internal/pkg/errors"
)

// Topic names, one per event type. Consumers subscribe per concern, so
// low-stock alerting never has to filter the reservation firehose.
const (
	TopicReserved    = "inventory.reserved"
	TopicOutOfStock  = "inventory.out_of_stock"
	TopicReleased    = "inventory.released"
	TopicDeducted    = "inventory.deducted"
	TopicReplenished = "inventory.replenished"
	TopicLowStock    = "inventory.low_stock"
)

var topicByEventType = map[domain.EventType]string{
	domain.EventStockReserved:    TopicReserved,
	domain.EventOutOfStock:       TopicOutOfStock,
	domain.EventStockReleased:    TopicReleased,
	domain.EventStockDeducted:    TopicDeducted,
	domain.EventStockReplenished: TopicReplenished,
	domain.EventLowStock:         TopicLowStock,
}

// TopicFor resolves the Kafka topic for an event type. Unknown types map to
// the empty string.
func TopicFor(eventType domain.EventType) string {
	return topicByEventType[eventType]
}

// KafkaPublisher writes domain events to Kafka, one topic per event type,
// keyed by aggregate id so per-product ordering holds within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *observability.Logger
}

// NewKafkaPublisher creates a publisher against the given brokers
func NewKafkaPublisher(brokers []string, logger *observability.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish sends the batch. Messages for all events go out in one write so a
// broker rejection fails the whole batch rather than leaving a partial
// publish behind.
func (p *KafkaPublisher) Publish(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		topic := TopicFor(event.EventType)
		if topic == "" {
			return errors.NewPermanentError(errors.CodeValidation, "no topic for event type "+string(event.EventType), nil)
		}
		value, err := json.Marshal(event)
		if err != nil {
			return errors.NewPermanentError(errors.CodeValidation, "failed to encode event", err)
		}
		messages = append(messages, kafka.Message{
			Topic: topic,
			Key:   []byte(event.AggregateID),
			Value: value,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(event.EventType)},
				{Key: "event-id", Value: []byte(event.EventID)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.WithError(err).Error().
			Int("events", len(events)).
			Msg("failed to publish events")
		return errors.NewTransientError("PUBLISH_FAILED", "failed to publish events", err)
	}

	p.logger.Debug().Int("events", len(events)).Msg("events published")
	return nil
}

// Close flushes and closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// EventSink receives a copy of every published event. The journal satisfies
// this.
type EventSink interface {
	Append(ctx context.Context, events []domain.Event) error
}

// JournaledPublisher wraps a publisher with a local event journal. The
// journal write is best effort: a journal failure is logged and counted but
// never fails the publish.
type JournaledPublisher struct {
	next    Publisher
	sink    EventSink
	logger  *observability.Logger
	metrics *observability.Metrics
}

// Publisher is the outbound event port
type Publisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}

// NewJournaledPublisher wraps next so every published batch is also appended
// to sink
func NewJournaledPublisher(next Publisher, sink EventSink, logger *observability.Logger, metrics *observability.Metrics) *JournaledPublisher {
	return &JournaledPublisher{next: next, sink: sink, logger: logger, metrics: metrics}
}

// Publish forwards to the wrapped publisher, then journals
func (p *JournaledPublisher) Publish(ctx context.Context, events []domain.Event) error {
	if err := p.next.Publish(ctx, events); err != nil {
		return err
	}
	if err := p.sink.Append(ctx, events); err != nil {
		p.metrics.JournalWriteFailures.Inc()
		p.logger.WithError(err).Warn().Msg("failed to journal events")
	}
	return nil
}

// Recorder captures published events in memory for tests
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes every subsequent Publish return err
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Publish records the events
func (r *Recorder) Publish(ctx context.Context, events []domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of everything recorded so far
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// EventsOfType returns recorded events matching the given type
func (r *Recorder) EventsOfType(eventType domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, event := range r.events {
		if event.EventType == eventType {
			out = append(out, event)
		}
	}
	return out
}
