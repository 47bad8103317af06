package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/utafrali/storefront/pkg/catalog"
)

// Repository persists a whole cart under a key. Loading a key that was never
// saved returns an empty cart.
type Repository interface {
	Load(ctx context.Context, key string) (LineItems, error)
	Save(ctx context.Context, key string, items LineItems) error
	Delete(ctx context.Context, key string) error
}

// Store is the application-owned cart. Each operation runs to completion
// under a lock and then writes the full cart back to the repository, so the
// last writer wins.
type Store struct {
	mu     sync.Mutex
	repo   Repository
	key    string
	items  LineItems
	logger *slog.Logger
}

// NewStore rehydrates the cart saved under key. An empty key selects StorageKey.
func NewStore(ctx context.Context, repo Repository, key string, logger *slog.Logger) (*Store, error) {
	if key == "" {
		key = StorageKey
	}
	items, err := repo.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("rehydrate cart: %w", err)
	}
	if items == nil {
		items = LineItems{}
	}

	logger.DebugContext(ctx, "cart rehydrated",
		slog.String("key", key),
		slog.Int("lines", items.Count()),
	)

	return &Store{
		repo:   repo,
		key:    key,
		items:  items,
		logger: logger,
	}, nil
}

// AddToCart adds product in size and persists the cart. A failed save is
// returned but the in-memory cart keeps the line, so retrying the call after
// an error adds the quantity again.
func (s *Store) AddToCart(ctx context.Context, product catalog.Product, size string) error {
	return s.mutate(ctx, "add", func(items *LineItems) {
		items.AddToCart(product, size)
	})
}

// UpdateQuantity changes the quantity of an existing line and persists the cart.
// Unknown lines are left alone.
func (s *Store) UpdateQuantity(ctx context.Context, id, size string, quantity int) error {
	return s.mutate(ctx, "update", func(items *LineItems) {
		items.UpdateQuantity(id, size, quantity)
	})
}

// RemoveFromCart drops a line and persists the cart. Unknown lines are ignored.
func (s *Store) RemoveFromCart(ctx context.Context, id, size string) error {
	return s.mutate(ctx, "remove", func(items *LineItems) {
		items.RemoveFromCart(id, size)
	})
}

// ClearCart empties the cart and persists the empty cart.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, "clear", func(items *LineItems) {
		items.ClearCart()
	})
}

// Items returns a copy of the current lines.
func (s *Store) Items() LineItems {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone()
}

// Total returns the cart value.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Total()
}

// Count returns the number of distinct lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Count()
}

func (s *Store) mutate(ctx context.Context, op string, fn func(*LineItems)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.items)

	if err := s.repo.Save(ctx, s.key, s.items.Clone()); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist cart",
			slog.String("op", op),
			slog.String("key", s.key),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("persist cart after %s: %w", op, err)
	}

	s.logger.DebugContext(ctx, "cart persisted",
		slog.String("op", op),
		slog.Int("lines", s.items.Count()),
		slog.Int64("total", s.items.Total()),
	)
	return nil
}
