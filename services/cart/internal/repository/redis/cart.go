package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/pkg/cart"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/cart/internal/domain"
)

const keyPrefix = cart.StorageKey + ":"

var errStaleVersion = errors.New("stale cart version")

// CartRepository implements repository.CartRepository using Redis.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a new Redis-backed cart repository.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

// Key returns the Redis key holding the cart of sessionID.
func Key(sessionID string) string {
	return keyPrefix + sessionID
}

// Get retrieves a session's cart from Redis.
func (r *CartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, Key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", sessionID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	return decode(data)
}

// SaveIfVersion writes the cart inside a WATCH/MULTI transaction so that a
// concurrent writer between the version check and the SET aborts this one.
func (r *CartRepository) SaveIfVersion(ctx context.Context, c *domain.Cart, expectedVersion int) (bool, error) {
	key := Key(c.SessionID)
	next := *c
	next.Version = expectedVersion + 1

	data, err := json.Marshal(&next)
	if err != nil {
		return false, fmt.Errorf("marshal cart: %w", err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if expectedVersion != 0 {
				return errStaleVersion
			}
		case err != nil:
			return fmt.Errorf("redis get cart: %w", err)
		default:
			stored, err := decode(current)
			if err != nil {
				return err
			}
			if stored.Version != expectedVersion {
				return errStaleVersion
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		c.Version = next.Version
		return true, nil
	case errors.Is(err, errStaleVersion), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("redis save cart: %w", err)
	}
}

// Delete removes a session's cart. Deleting an absent cart is not an error.
func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}

func decode(data []byte) (*domain.Cart, error) {
	var c domain.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	if c.Items == nil {
		c.Items = cart.LineItems{}
	}
	return &c, nil
}
