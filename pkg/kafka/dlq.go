package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// DeadLetterSuffix is appended to a topic name to form its dead-letter topic.
const DeadLetterSuffix = ".dlq"

// Dead-letter provenance headers.
const (
	HeaderDLQTopic     = "dlq.topic"
	HeaderDLQPartition = "dlq.partition"
	HeaderDLQOffset    = "dlq.offset"
	HeaderDLQGroup     = "dlq.group"
	HeaderDLQError     = "dlq.error"
	HeaderDLQFailedAt  = "dlq.failed_at"
)

// DeadLetterTopic names the dead-letter topic of topic.
func DeadLetterTopic(topic string) string {
	return topic + DeadLetterSuffix
}

// DLQProducer parks messages that no retry could handle on
// DeadLetterTopic(original), unchanged apart from the dlq.* headers.
type DLQProducer struct {
	writer messageWriter
	logger *slog.Logger
	now    func() time.Time
}

// NewDLQProducer writes synchronously, one message per batch.
func NewDLQProducer(brokers []string, logger *slog.Logger) *DLQProducer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DLQProducer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			BatchSize:              1,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
		now:    time.Now,
	}
}

func (d *DLQProducer) Publish(ctx context.Context, msg kafka.Message, cause error, group string) error {
	topic := DeadLetterTopic(msg.Topic)

	headers := append([]kafka.Header(nil), msg.Headers...)
	set := func(k, v string) { headers = append(headers, kafka.Header{Key: k, Value: []byte(v)}) }
	set(HeaderDLQTopic, msg.Topic)
	set(HeaderDLQPartition, strconv.Itoa(msg.Partition))
	set(HeaderDLQOffset, strconv.FormatInt(msg.Offset, 10))
	set(HeaderDLQGroup, group)
	set(HeaderDLQFailedAt, d.now().UTC().Format(time.RFC3339))
	if cause != nil {
		set(HeaderDLQError, cause.Error())
	}

	attrs := []any{
		slog.String("dlq_topic", topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
		slog.String("group", group),
	}
	err := d.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
	if err != nil {
		d.logger.ErrorContext(ctx, "dead-letter publish failed", append(attrs, slog.String("error", err.Error()))...)
		return fmt.Errorf("dead-letter to %s: %w", topic, err)
	}
	d.logger.WarnContext(ctx, "message dead-lettered", attrs...)
	return nil
}

func (d *DLQProducer) Close() error {
	return d.writer.Close()
}

var _ DeadLetterPublisher = (*DLQProducer)(nil)
