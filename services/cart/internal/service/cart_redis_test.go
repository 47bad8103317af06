package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/catalog"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/cart/internal/event"
	redisrepo "github.com/utafrali/storefront/services/cart/internal/repository/redis"
)

func newRedisBackedService(t *testing.T) (*CartService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := redisrepo.NewCartRepository(client, time.Hour)
	return NewCartService(repo, event.NewProducer(pub, logger), logger, time.Hour), mr
}

func TestCartService_Redis_Lifecycle(t *testing.T) {
	svc, mr := newRedisBackedService(t)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, sessionID, catalog.Product{ID: "p1", CurrentPrice: "₹1,200", Quantity: 2}, "M")
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, sessionID, catalog.Product{ID: "p1", CurrentPrice: "₹1,200", Quantity: 1}, "M")
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, sessionID, catalog.Product{ID: "p2", CurrentPrice: "750"}, "S")
	require.NoError(t, err)

	c, err := svc.GetCart(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, int64(3600), c.Items[0].TotalPrice)
	assert.Equal(t, int64(4350), c.Total())
	assert.Equal(t, 2, c.Count())
	assert.Equal(t, 3, c.Version)

	_, err = svc.UpdateQuantity(ctx, sessionID, "p1", "M", 0)
	require.NoError(t, err)
	c, err = svc.RemoveFromCart(ctx, sessionID, "p2", "S")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), c.Total())

	require.NoError(t, svc.ClearCart(ctx, sessionID))
	assert.False(t, mr.Exists(redisrepo.Key(sessionID)))

	c, err = svc.GetCart(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestCartService_Redis_StaleWriterConflicts(t *testing.T) {
	svc, _ := newRedisBackedService(t)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, sessionID, catalog.Product{ID: "p1"}, "M")
	require.NoError(t, err)

	// Simulate a request that read the cart before the write above.
	stale, err := svc.GetCart(ctx, sessionID)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, sessionID, catalog.Product{ID: "p2"}, "M")
	require.NoError(t, err)

	stale.Items.AddToCart(catalog.Product{ID: "p3"}, "M")
	err = svc.commit(ctx, opAdd, stale, stale.Version)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}
