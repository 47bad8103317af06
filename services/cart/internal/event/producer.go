// Package event announces cart changes on Kafka.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/pkg/cart"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/services/cart/internal/domain"
)

var (
	TopicCartUpdated = pkgkafka.Topic("cart", "updated")
	TopicCartCleared = pkgkafka.Topic("cart", "cleared")
)

const (
	AggregateTypeCart = "cart"
	SourceCartService = "cart-service"
)

// CartUpdatedData is a snapshot of the whole cart after a change.
type CartUpdatedData struct {
	SessionID string         `json:"session_id"`
	CartID    string         `json:"cart_id"`
	Cart      cart.LineItems `json:"cart"`
	Count     int            `json:"count"`
	Total     int64          `json:"total"`
	Version   int            `json:"version"`
}

type CartClearedData struct {
	SessionID string `json:"session_id"`
}

// Producer turns cart changes into events. The session id is the aggregate
// id, so one shopper's events stay on one partition and in order.
type Producer struct {
	pub pkgkafka.Publisher
	log *slog.Logger
}

func NewProducer(pub pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{pub: pub, log: logger}
}

func (p *Producer) PublishCartUpdated(ctx context.Context, c *domain.Cart) error {
	data := CartUpdatedData{
		SessionID: c.SessionID,
		CartID:    c.ID,
		Cart:      c.Items,
		Count:     c.Count(),
		Total:     c.Total(),
		Version:   c.Version,
	}
	err := p.emit(ctx, TopicCartUpdated, c.SessionID, c.Version, data)
	if err == nil {
		p.log.DebugContext(ctx, "cart update announced", slog.Int("count", data.Count), slog.Int64("total", data.Total))
	}
	return err
}

func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string) error {
	err := p.emit(ctx, TopicCartCleared, sessionID, 0, CartClearedData{SessionID: sessionID})
	if err == nil {
		p.log.DebugContext(ctx, "cart clear announced")
	}
	return err
}

// emit publishes data on topic; a non-zero version is stamped on the event.
func (p *Producer) emit(ctx context.Context, topic, sessionID string, version int, data any) error {
	agg := pkgkafka.Aggregate{Type: AggregateTypeCart, ID: sessionID}
	e, err := pkgkafka.NewEvent(ctx, topic, agg, SourceCartService, data)
	if err != nil {
		return fmt.Errorf("build %s event: %w", topic, err)
	}
	if version > 0 {
		e.Version = version
	}
	if err := p.pub.Publish(ctx, topic, e); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
