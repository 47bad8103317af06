// Package event keeps the search index in step with catalog product events.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/pkg/catalog"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

var (
	TopicProductCreated = pkgkafka.Topic("product", "created")
	TopicProductUpdated = pkgkafka.Topic("product", "updated")
	TopicProductDeleted = pkgkafka.Topic("product", "deleted")
)

// Topics lists every topic Handle understands.
func Topics() []string {
	return []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted}
}

// ProductIndexer is the part of the search service the consumer drives.
type ProductIndexer interface {
	IndexProduct(ctx context.Context, product *catalog.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type Consumer struct {
	indexer ProductIndexer
	logger  *slog.Logger
}

func NewConsumer(indexer ProductIndexer, logger *slog.Logger) *Consumer {
	return &Consumer{indexer: indexer, logger: logger}
}

// Handle applies one catalog event to the index. Created and updated events
// carry the product document; deleted events carry {"id": ...}. Either falls
// back to the aggregate id when the payload has none. A payload that does not
// decode is reported as malformed so it is dead-lettered without retries.
// Unknown types are acknowledged.
func (c *Consumer) Handle(ctx context.Context, e *pkgkafka.Event) error {
	switch e.EventType {
	case TopicProductCreated, TopicProductUpdated:
		var p catalog.Product
		if err := decode(e, &p); err != nil {
			return err
		}
		p.ID = orAggregate(p.ID, e)
		if err := c.indexer.IndexProduct(ctx, &p); err != nil {
			return fmt.Errorf("index %s from %s: %w", p.ID, e.EventType, err)
		}
		c.logger.InfoContext(ctx, "indexed product from event",
			slog.String("event_type", e.EventType),
			slog.String("product_id", p.ID),
		)

	case TopicProductDeleted:
		var body struct {
			ID string `json:"id"`
		}
		if err := decode(e, &body); err != nil {
			return err
		}
		id := orAggregate(body.ID, e)
		if err := c.indexer.DeleteProduct(ctx, id); err != nil {
			return fmt.Errorf("delete %s from %s: %w", id, e.EventType, err)
		}
		c.logger.InfoContext(ctx, "removed product from event", slog.String("product_id", id))

	default:
		c.logger.WarnContext(ctx, "ignoring unknown event type",
			slog.String("event_type", e.EventType),
			slog.String("event_id", e.EventID),
		)
	}
	return nil
}

func decode(e *pkgkafka.Event, dst any) error {
	if err := e.Decode(dst); err != nil {
		return fmt.Errorf("%w: unmarshal %s data: %w", pkgkafka.ErrMalformedEvent, e.EventType, err)
	}
	return nil
}

func orAggregate(id string, e *pkgkafka.Event) string {
	if id == "" {
		return e.AggregateID
	}
	return id
}
