package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 100 * time.Millisecond
)

// Handler is a function that processes a Kafka event.
type Handler func(ctx context.Context, event *Event) error

// DeadLetterPublisher receives messages whose handler failed every retry.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, msg kafka.Message, lastErr error, consumerGroup string) error
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topics   []string
	MinBytes int
	MaxBytes int

	// MaxRetries is how many times the handler runs before a message is
	// treated as poison. Zero means 3.
	MaxRetries int
	// RetryBackoff grows linearly with the attempt number. Zero means 100ms.
	RetryBackoff time.Duration
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerOption customizes a Consumer.
type ConsumerOption func(*Consumer)

// WithDeadLetter sends poison messages to dlq before they are committed.
func WithDeadLetter(dlq DeadLetterPublisher) ConsumerOption {
	return func(c *Consumer) { c.dlq = dlq }
}

// WithDedup acknowledges events whose id the store has already seen
// without handling them again.
func WithDedup(store DedupStore) ConsumerOption {
	return func(c *Consumer) { c.dedup = store }
}

// Consumer wraps the kafka-go reader for consuming events.
type Consumer struct {
	reader       messageReader
	logger       *slog.Logger
	handler      Handler
	group        string
	topics       string
	maxRetries   int
	retryBackoff time.Duration
	dlq          DeadLetterPublisher
	dedup        DedupStore
	tracer       trace.Tracer
	closeOnce    sync.Once
}

// NewConsumer creates a consumer for one or more topics within a group.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	rc := kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	}
	if len(cfg.Topics) == 1 {
		rc.Topic = cfg.Topics[0]
	} else {
		rc.GroupTopics = cfg.Topics
	}
	return newConsumer(kafka.NewReader(rc), cfg, handler, logger, opts...)
}

func newConsumer(r messageReader, cfg ConsumerConfig, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Consumer{
		reader:       r,
		logger:       logger,
		handler:      handler,
		group:        cfg.GroupID,
		topics:       strings.Join(cfg.Topics, ","),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		tracer:       otel.Tracer("github.com/utafrali/storefront/pkg/kafka"),
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.retryBackoff <= 0 {
		c.retryBackoff = defaultRetryBackoff
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins consuming messages. It blocks until the context is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("topics", c.topics),
		slog.String("group", c.group),
	)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", slog.String("topics", c.topics))
				return c.Close()
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			continue
		}

		if !c.process(ctx, msg) {
			return c.Close()
		}
	}
}

// process handles one message and commits it. It returns false once ctx is
// canceled mid-retry, leaving the message uncommitted for redelivery.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	event, err := DecodeEvent(msg.Value)
	if err != nil {
		c.logger.Error("dropping undecodable message",
			slog.String("error", err.Error()),
			slog.String("topic", msg.Topic),
		)
		c.deadLetter(ctx, msg, err)
		c.commit(ctx, msg)
		return true
	}

	if c.duplicate(ctx, event) {
		consumedTotal.WithLabelValues(msg.Topic, c.group, outcomeDuplicate).Inc()
		c.logger.DebugContext(ctx, "skipping duplicate event",
			slog.String("event_id", event.EventID),
			slog.String("event_type", event.EventType),
		)
		c.commit(ctx, msg)
		return true
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&msg))
	ctx, span := c.tracer.Start(ctx, "consume "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.String("messaging.kafka.consumer.group", c.group),
			attribute.String("storefront.event_type", event.EventType),
		),
	)
	defer span.End()

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		lastErr = c.handler(ctx, event)
		if lastErr == nil || errors.Is(lastErr, ErrMalformedEvent) {
			break
		}
		c.logger.WarnContext(ctx, "handler failed, will retry",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", lastErr.Error()),
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", c.maxRetries),
		)
		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(time.Duration(attempt) * c.retryBackoff):
			}
		}
	}
	handleSeconds.WithLabelValues(msg.Topic, c.group).Observe(time.Since(start).Seconds())

	if lastErr != nil {
		span.SetStatus(codes.Error, lastErr.Error())
		consumedTotal.WithLabelValues(msg.Topic, c.group, outcomeFailed).Inc()
		c.logger.ErrorContext(ctx, "handler failed after all retries, skipping poison message",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", lastErr.Error()),
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
		)
		c.deadLetter(ctx, msg, lastErr)
	} else {
		consumedTotal.WithLabelValues(msg.Topic, c.group, outcomeProcessed).Inc()
		c.remember(ctx, event)
	}

	c.commit(ctx, msg)
	return true
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) {
	if c.dlq == nil {
		return
	}
	if err := c.dlq.Publish(ctx, msg, cause, c.group); err != nil {
		return
	}
	consumedTotal.WithLabelValues(msg.Topic, c.group, outcomeDeadLettered).Inc()
}

// duplicate reports whether event was already handled. A store failure is
// logged and treated as unseen: handlers are upserts, so a replay is safe.
func (c *Consumer) duplicate(ctx context.Context, event *Event) bool {
	if c.dedup == nil || event.EventID == "" {
		return false
	}
	seen, err := c.dedup.Seen(ctx, event.EventID)
	if err != nil {
		c.logger.WarnContext(ctx, "dedup lookup failed",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return seen
}

func (c *Consumer) remember(ctx context.Context, event *Event) {
	if c.dedup == nil || event.EventID == "" {
		return
	}
	if err := c.dedup.Remember(ctx, event.EventID); err != nil {
		c.logger.WarnContext(ctx, "dedup record failed",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit message",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

// Close closes the consumer. It is safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}

// TopicPrefix namespaces every storefront topic.
const TopicPrefix = "storefront"

// Topic constructs a fully-qualified topic name.
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
