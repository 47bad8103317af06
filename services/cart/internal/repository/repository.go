package repository

import (
	"context"

	"github.com/utafrali/storefront/services/cart/internal/domain"
)

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get returns the session's cart, or a NOT_FOUND AppError if none is stored.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	// SaveIfVersion writes cart only if the stored version still equals
	// expectedVersion (0 for a cart that has never been saved). On success
	// cart.Version is advanced. It reports false when another writer won.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}
