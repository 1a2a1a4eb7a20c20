package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/tenant-commerce/pkg/logger"
)

var eventsPublished = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ecommerce_events_published_total",
		Help: "Domain events published to Kafka",
	},
	[]string{"topic", "result"},
)

func init() {
	prometheus.MustRegister(eventsPublished)
}

// Publisher wraps a synchronous Kafka producer.
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
	origin   string
}

// NewPublisher connects a producer. origin identifies this process in
// cache invalidation events so it can skip its own announcements.
func NewPublisher(brokers []string, origin string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().Strs("brokers", brokers).Msg("Kafka publisher initialized")
	return &Publisher{producer: producer, brokers: brokers, origin: origin}, nil
}

// PublishOrderConfirmed publishes the confirmation of an order.
func (p *Publisher) PublishOrderConfirmed(ctx context.Context, event OrderConfirmedEvent) error {
	event.EventID = uuid.NewString()
	event.EventType = EventTypeOrderConfirmed
	event.Timestamp = time.Now()
	return p.publish(ctx, TopicOrderConfirmed, event.EventType, event.EventID,
		fmt.Sprintf("order_%d", event.OrderID), event,
		attribute.Int64("order.id", int64(event.OrderID)),
		attribute.Int64("tenant.id", int64(event.TenantID)),
	)
}

// PublishCacheInvalidated announces invalidated prefixes to peers.
func (p *Publisher) PublishCacheInvalidated(ctx context.Context, prefixes []string) error {
	event := CacheInvalidatedEvent{
		EventID:   uuid.NewString(),
		EventType: EventTypeCacheInvalidated,
		Origin:    p.origin,
		Prefixes:  prefixes,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, TopicCacheInvalidated, event.EventType, event.EventID, "cache", event)
}

// PublishStockChanged publishes a quant write.
func (p *Publisher) PublishStockChanged(ctx context.Context, event StockChangedEvent) error {
	event.EventID = uuid.NewString()
	event.EventType = EventTypeStockChanged
	event.Timestamp = time.Now()
	return p.publish(ctx, TopicStockChanged, event.EventType, event.EventID,
		fmt.Sprintf("variant_%d", event.VariantID), event,
		attribute.Int64("variant.id", int64(event.VariantID)),
	)
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, eventID, key string, event interface{}, attrs ...attribute.KeyValue) error {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish."+eventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("event.type", eventType),
			attribute.String("event.id", eventID),
		),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	payload, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(eventType)},
		{Key: []byte("event_id"), Value: []byte(eventID)},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: headers,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		eventsPublished.WithLabelValues(topic, "error").Inc()
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	eventsPublished.WithLabelValues(topic, "ok").Inc()

	logger.Debug(ctx).
		Str("event_id", eventID).
		Str("event_type", eventType).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event published")
	return nil
}

// Ping checks that the brokers answer a metadata request.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	config := sarama.NewConfig()
	config.Net.DialTimeout = 3 * time.Second
	client, err := sarama.NewClient(p.brokers, config)
	if err != nil {
		return fmt.Errorf("kafka unreachable: %w", err)
	}
	defer client.Close()
	if len(client.Brokers()) == 0 {
		return fmt.Errorf("kafka returned no brokers")
	}
	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops every event. It stands in when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishOrderConfirmed(context.Context, OrderConfirmedEvent) error { return nil }
func (NopPublisher) PublishCacheInvalidated(context.Context, []string) error       { return nil }
func (NopPublisher) PublishStockChanged(context.Context, StockChangedEvent) error   { return nil }
