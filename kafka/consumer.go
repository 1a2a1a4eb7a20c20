package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/tenant-commerce/pkg/logger"
)

// Consumer wraps a Kafka consumer group.
type Consumer struct {
	group         sarama.ConsumerGroup
	groupID       string
	topics        []string
	handlers      map[string]EventHandler
	handlersMutex sync.RWMutex
	retryMin      time.Duration
	retryMax      time.Duration
}

// EventHandler receives the raw JSON payload of one event.
type EventHandler func(ctx context.Context, payload []byte) error

// NewConsumer joins groupID for topics.
func NewConsumer(brokers []string, groupID string, topics []string) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Str("group_id", groupID).
		Strs("topics", topics).
		Msg("Kafka consumer initialized")

	return &Consumer{
		group:    group,
		groupID:  groupID,
		topics:   topics,
		handlers: make(map[string]EventHandler),
		retryMin: 500 * time.Millisecond,
		retryMax: 30 * time.Second,
	}, nil
}

// RegisterHandler routes eventType to handler.
func (c *Consumer) RegisterHandler(eventType string, handler EventHandler) {
	c.handlersMutex.Lock()
	defer c.handlersMutex.Unlock()
	c.handlers[eventType] = handler
}

// Run consumes until ctx is cancelled. Failed sessions are retried with
// exponential backoff.
func (c *Consumer) Run(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			logger.Logger.Error().Err(err).Msg("Consumer error")
		}
	}()

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = c.retryMin
	retry.MaxInterval = c.retryMax

	handler := &consumerGroupHandler{consumer: c}
	for {
		err := c.group.Consume(ctx, c.topics, handler)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			retry.Reset()
			continue
		}
		wait := retry.NextBackOff()
		logger.Logger.Error().Err(err).Dur("retry_in", wait).Msg("Error from consumer")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// Close closes the consumer group
func (c *Consumer) Close() error {
	if c.group != nil {
		return c.group.Close()
	}
	return nil
}

// CacheInvalidationHandler adapts fn to cache.invalidated payloads and
// skips events announced by origin.
func CacheInvalidationHandler(origin string, fn func(ctx context.Context, prefix string)) EventHandler {
	return func(ctx context.Context, payload []byte) error {
		var event CacheInvalidatedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return fmt.Errorf("decode cache invalidation: %w", err)
		}
		if event.Origin == origin {
			return nil
		}
		for _, prefix := range event.Prefixes {
			fn(ctx, prefix)
		}
		return nil
	}
}

type consumerGroupHandler struct {
	consumer *Consumer
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		h.handleMessage(session.Context(), message)
		session.MarkMessage(message, "")
	}
	return nil
}

func (h *consumerGroupHandler) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) {
	carrier := propagation.MapCarrier{}
	var eventType, eventID string
	for _, header := range message.Headers {
		switch key := string(header.Key); key {
		case "traceparent", "tracestate", "baggage":
			carrier[key] = string(header.Value)
		case "event_type":
			eventType = string(header.Value)
		case "event_id":
			eventID = string(header.Value)
		}
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)

	ctx, span := otel.Tracer("kafka-consumer").Start(ctx, "kafka.consume."+eventType,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.source", message.Topic),
			attribute.Int("messaging.kafka.partition", int(message.Partition)),
			attribute.Int64("messaging.kafka.offset", message.Offset),
			attribute.String("event.id", eventID),
		),
	)
	defer span.End()

	h.consumer.handlersMutex.RLock()
	handler, ok := h.consumer.handlers[eventType]
	h.consumer.handlersMutex.RUnlock()
	if !ok {
		span.SetStatus(codes.Error, "No handler registered")
		logger.Warn(ctx).Str("event_type", eventType).Str("topic", message.Topic).Msg("No handler registered for event type")
		return
	}

	if err := handler(ctx, message.Value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to handle event")
		logger.Error(ctx).Err(err).Str("event_type", eventType).Str("event_id", eventID).Msg("Failed to handle event")
		return
	}
	span.SetStatus(codes.Ok, "Event handled")
}
