package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/utafrali/storefront/pkg/logger"
)

// Message headers written next to the JSON envelope so brokers and tooling
// can route without decoding the body.
const (
	HeaderEventType     = "event_type"
	HeaderSource        = "source"
	HeaderCorrelationID = "correlation_id"

	// MetadataSessionID is the envelope metadata key for the storefront session.
	MetadataSessionID = "session_id"
)

// ErrMalformedEvent marks a message that can never be handled. The consumer
// dead-letters it without retrying.
var ErrMalformedEvent = errors.New("malformed event")

// Aggregate names the entity an event is about. Its ID is the message key,
// so one cart or product always lands on the same partition.
type Aggregate struct {
	Type string
	ID   string
}

// Event is the JSON envelope of every storefront message.
type Event struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	Version       int               `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
	Source        string            `json:"source"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEvent builds a version 1 envelope around data. The correlation and
// session ids found in ctx are copied onto it.
func NewEvent(ctx context.Context, eventType string, agg Aggregate, source string, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	e := &Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateID:   agg.ID,
		AggregateType: agg.Type,
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		CorrelationID: logger.CorrelationIDFromContext(ctx),
		Data:          raw,
	}
	if sid := logger.SessionIDFromContext(ctx); sid != "" {
		e.Metadata = map[string]string{MetadataSessionID: sid}
	}
	return e, nil
}

// Decode unmarshals the payload into target.
func (e *Event) Decode(target any) error {
	return json.Unmarshal(e.Data, target)
}

// message renders e as a keyed kafka message for topic.
func (e *Event) message(topic string) (kafka.Message, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(e.AggregateID),
		Value: body,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(e.EventType)},
			{Key: HeaderSource, Value: []byte(e.Source)},
		},
	}
	if e.CorrelationID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: HeaderCorrelationID, Value: []byte(e.CorrelationID)})
	}
	return msg, nil
}

// DecodeEvent parses a message body. Bodies that are not JSON, or that lack
// an event id or type, wrap ErrMalformedEvent.
func DecodeEvent(body []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	switch {
	case e.EventID == "":
		return nil, fmt.Errorf("%w: missing event_id", ErrMalformedEvent)
	case e.EventType == "":
		return nil, fmt.Errorf("%w: missing event_type", ErrMalformedEvent)
	}
	return &e, nil
}
