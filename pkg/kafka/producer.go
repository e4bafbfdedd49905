package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Ramsey-B/keizu/pkg/metrics"
	"github.com/Ramsey-B/keizu/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles Kafka event emission
type Producer struct {
	writer messageWriter
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return newProducer(writer, cfg.Topic, logger)
}

func newProducer(writer messageWriter, topic string, logger ectologger.Logger) *Producer {
	return &Producer{
		writer: writer,
		logger: logger,
		topic:  topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// EntityEvent represents an event about a samurai or clan
type EntityEvent struct {
	EventType     string          `json:"event_type"` // samurai.created, clan.updated, ...
	SchemaVersion string          `json:"schema_version"`
	EntityID      string          `json:"entity_id"`
	EntityType    string          `json:"entity_type"`
	Data          json.RawMessage `json:"data,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// RelationshipEvent represents an event about a PARENT_OF or HAS_SUB_CLAN edge
type RelationshipEvent struct {
	EventType        string         `json:"event_type"`
	SchemaVersion    string         `json:"schema_version"`
	RelationshipType string         `json:"relationship_type"`
	FromEntityID     string         `json:"from_entity_id"`
	ToEntityID       string         `json:"to_entity_id"`
	Properties       map[string]any `json:"properties,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
}

// PublishEntityEvent publishes a samurai or clan event keyed by the entity identifier, so every
// event of one entity lands on the same partition in order.
func (p *Producer) PublishEntityEvent(ctx context.Context, event *EntityEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishEntityEvent")
	defer span.End()

	stamp(&event.Timestamp, &event.SchemaVersion)

	return p.publish(ctx, event.EntityID, event, []kafka.Header{
		{Key: "event_type", Value: []byte(event.EventType)},
		{Key: "entity_type", Value: []byte(event.EntityType)},
		{Key: "schema_version", Value: []byte(event.SchemaVersion)},
	}, map[string]any{
		"event_type":  event.EventType,
		"entity_id":   event.EntityID,
		"entity_type": event.EntityType,
	})
}

// PublishRelationshipEvent publishes an edge event keyed by the parent (or parent clan) identifier.
func (p *Producer) PublishRelationshipEvent(ctx context.Context, event *RelationshipEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishRelationshipEvent")
	defer span.End()

	stamp(&event.Timestamp, &event.SchemaVersion)

	return p.publish(ctx, event.FromEntityID, event, []kafka.Header{
		{Key: "event_type", Value: []byte(event.EventType)},
		{Key: "relationship_type", Value: []byte(event.RelationshipType)},
		{Key: "schema_version", Value: []byte(event.SchemaVersion)},
	}, map[string]any{
		"event_type":        event.EventType,
		"relationship_type": event.RelationshipType,
		"from_entity_id":    event.FromEntityID,
		"to_entity_id":      event.ToEntityID,
	})
}

func (p *Producer) publish(ctx context.Context, key string, event any, headers []kafka.Header, fields map[string]any) error {
	eventType, _ := fields["event_type"].(string)
	log := p.logger.WithContext(ctx).WithFields(fields)

	value, err := json.Marshal(event)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(eventType, metrics.StatusError).Inc()
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}

	msg := kafka.Message{
		Topic:   p.topic,
		Key:     []byte(key),
		Value:   value,
		Headers: withTraceHeaders(ctx, headers),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(eventType, metrics.StatusError).Inc()
		log.WithError(err).Error("Failed to publish genealogy event")
		return err
	}

	metrics.EventsPublishedTotal.WithLabelValues(eventType, metrics.StatusSuccess).Inc()
	log.Debug("Published genealogy event")
	return nil
}

func stamp(ts *time.Time, version *string) {
	if ts.IsZero() {
		*ts = time.Now().UTC()
	}
	if *version == "" {
		*version = SchemaVersion
	}
}

// withTraceHeaders appends the W3C trace context of ctx so consumers can continue the trace.
func withTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for _, key := range carrier.Keys() {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(carrier.Get(key))})
	}
	return headers
}
