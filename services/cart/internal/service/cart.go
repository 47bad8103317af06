package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/pkg/cart"
	"github.com/utafrali/storefront/pkg/catalog"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/cart/internal/domain"
	"github.com/utafrali/storefront/services/cart/internal/event"
	"github.com/utafrali/storefront/services/cart/internal/repository"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single line.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct lines allowed in a cart.
	MaxItemsPerCart = 50
)

const (
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
	opClear  = "clear"
)

// CartService implements the business logic for cart operations.
type CartService struct {
	repo     repository.CartRepository
	producer *event.Producer
	logger   *slog.Logger
	cartTTL  time.Duration
	now      func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, producer *event.Producer, logger *slog.Logger, cartTTL time.Duration) *CartService {
	return &CartService{
		repo:     repo,
		producer: producer,
		logger:   logger,
		cartTTL:  cartTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetCart retrieves the session's cart. A session without a stored cart gets
// an empty, unsaved one.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	return s.load(ctx, sessionID)
}

// AddToCart adds product in size to the session's cart, merging into an
// existing line for the same product and size.
func (s *CartService) AddToCart(ctx context.Context, sessionID string, product catalog.Product, size string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if strings.TrimSpace(product.ID) == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if size == "" {
		return nil, apperrors.InvalidInput("size is required")
	}
	if len(product.Sizes) > 0 && !product.HasSize(size) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("size %q is not offered for product %s", size, product.ID))
	}
	qty := product.Quantity
	if qty < 1 {
		qty = 1
	}
	if qty > MaxQuantityPerItem {
		return nil, s.reject(opAdd, fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	expectedVersion := c.Version

	if i := c.Items.Find(product.ID, size); i >= 0 {
		if c.Items[i].Quantity+qty > MaxQuantityPerItem {
			return nil, s.reject(opAdd, fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerItem))
		}
	} else if c.Count() >= MaxItemsPerCart {
		return nil, s.reject(opAdd, fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
	}

	c.Items.AddToCart(product, size)

	if err := s.commit(ctx, opAdd, c, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("product_id", product.ID),
		slog.String("size", size),
		slog.Int("quantity", qty),
	)
	return c, nil
}

// UpdateQuantity sets the quantity of the (id, size) line, clamped to at
// least 1. A missing line leaves the cart untouched.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, id, size string, quantity int) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if quantity > MaxQuantityPerItem {
		return nil, s.reject(opUpdate, fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	expectedVersion := c.Version

	if !c.Items.UpdateQuantity(id, size, quantity) {
		OperationsTotal.WithLabelValues(opUpdate, "noop").Inc()
		return c, nil
	}

	if err := s.commit(ctx, opUpdate, c, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("product_id", id),
		slog.String("size", size),
		slog.Int("quantity", c.Items[c.Items.Find(id, size)].Quantity),
	)
	return c, nil
}

// RemoveFromCart deletes the (id, size) line. A missing line leaves the cart
// untouched.
func (s *CartService) RemoveFromCart(ctx context.Context, sessionID, id, size string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	expectedVersion := c.Version

	if !c.Items.RemoveFromCart(id, size) {
		OperationsTotal.WithLabelValues(opRemove, "noop").Inc()
		return c, nil
	}

	if err := s.commit(ctx, opRemove, c, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("product_id", id),
		slog.String("size", size),
	)
	return c, nil
}

// ClearCart empties the session's cart.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.InvalidInput("session id is required")
	}

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		OperationsTotal.WithLabelValues(opClear, "error").Inc()
		return fmt.Errorf("delete cart: %w", err)
	}
	OperationsTotal.WithLabelValues(opClear, "saved").Inc()

	if err := s.producer.PublishCartCleared(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared")
	return nil
}

// load returns the stored cart or a fresh empty one.
func (s *CartService) load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	c, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(sessionID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if c.Items == nil {
		c.Items = cart.LineItems{}
	}
	return c, nil
}

// commit saves c if nobody else wrote the cart since it was read at
// expectedVersion, then announces the new state.
func (s *CartService) commit(ctx context.Context, op string, c *domain.Cart, expectedVersion int) error {
	c.Touch(s.now(), s.cartTTL)

	ok, err := s.repo.SaveIfVersion(ctx, c, expectedVersion)
	if err != nil {
		OperationsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("save cart: %w", err)
	}
	if !ok {
		OperationsTotal.WithLabelValues(op, "conflict").Inc()
		s.logger.WarnContext(ctx, "cart version conflict",
			slog.String("operation", op),
			slog.Int("expected_version", expectedVersion),
		)
		return apperrors.Conflict("cart was modified concurrently, please retry")
	}
	OperationsTotal.WithLabelValues(op, "saved").Inc()
	CartValue.Observe(float64(c.Total()))

	if err := s.producer.PublishCartUpdated(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (s *CartService) reject(op, msg string) error {
	OperationsTotal.WithLabelValues(op, "rejected").Inc()
	return apperrors.InvalidInput(msg)
}

func (s *CartService) newEmptyCart(sessionID string) *domain.Cart {
	now := s.now()
	return &domain.Cart{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Items:     cart.LineItems{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.cartTTL),
	}
}
