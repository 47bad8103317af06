package redis

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/cart"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/cart/internal/domain"
)

func setupTestRedis(t *testing.T) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewCartRepository(client, 24*time.Hour)
	return repo, mr
}

func sampleCart() *domain.Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Cart{
		ID:        "cart-001",
		SessionID: "sess-001",
		Items: cart.LineItems{
			{
				ID:           "p1",
				Size:         "M",
				Quantity:     2,
				UnitPrice:    1200,
				TotalPrice:   2400,
				Title:        "Red Silk Dress",
				CurrentPrice: "₹1,200",
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestCartRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	stored := sampleCart()
	stored.Version = 3
	data, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, mr.Set("storefront-cart:sess-001", string(data)))

	got, err := repo.Get(context.Background(), "sess-001")
	require.NoError(t, err)
	assert.Equal(t, "cart-001", got.ID)
	assert.Equal(t, 3, got.Version)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(2400), got.Items[0].TotalPrice)
}

func TestCartRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	got, err := repo.Get(context.Background(), "missing")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Get_CorruptData(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("storefront-cart:sess-001", "{not json"))

	_, err := repo.Get(context.Background(), "sess-001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal cart")
}

func TestCartRepository_Get_NullItems(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("storefront-cart:sess-001", `{"id":"c1","session_id":"sess-001","cart":null}`))

	got, err := repo.Get(context.Background(), "sess-001")
	require.NoError(t, err)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
}

// ---------------------------------------------------------------------------
// SaveIfVersion
// ---------------------------------------------------------------------------

func TestCartRepository_SaveIfVersion_NewCart(t *testing.T) {
	repo, mr := setupTestRedis(t)
	c := sampleCart()

	ok, err := repo.SaveIfVersion(context.Background(), c, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, c.Version)

	assert.True(t, mr.Exists("storefront-cart:sess-001"))
	assert.Equal(t, 24*time.Hour, mr.TTL("storefront-cart:sess-001"))

	raw, err := mr.Get("storefront-cart:sess-001")
	require.NoError(t, err)
	var doc cart.Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	require.Len(t, doc.Cart, 1)
	assert.Equal(t, "p1", doc.Cart[0].ID)
}

func TestCartRepository_SaveIfVersion_SequentialWrites(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()
	c := sampleCart()

	ok, err := repo.SaveIfVersion(ctx, c, 0)
	require.NoError(t, err)
	require.True(t, ok)

	c.Items.UpdateQuantity("p1", "M", 5)
	ok, err = repo.SaveIfVersion(ctx, c, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, c.Version)

	got, err := repo.Get(ctx, "sess-001")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, 5, got.Items[0].Quantity)
	assert.Equal(t, int64(6000), got.Items[0].TotalPrice)
}

func TestCartRepository_SaveIfVersion_StaleVersion(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	first := sampleCart()
	ok, err := repo.SaveIfVersion(ctx, first, 0)
	require.NoError(t, err)
	require.True(t, ok)

	// A second writer that read the cart before it existed loses.
	second := sampleCart()
	ok, err = repo.SaveIfVersion(ctx, second, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, second.Version)
}

func TestCartRepository_SaveIfVersion_MissingWithNonZeroVersion(t *testing.T) {
	repo, mr := setupTestRedis(t)

	ok, err := repo.SaveIfVersion(context.Background(), sampleCart(), 4)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("storefront-cart:sess-001"))
}

func TestCartRepository_SaveIfVersion_ConcurrentWriters(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	const writers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.SaveIfVersion(ctx, sampleCart(), 0)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestCartRepository_SaveIfVersion_RedisDown(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.Close()

	ok, err := repo.SaveIfVersion(context.Background(), sampleCart(), 0)
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestCartRepository_Delete(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, err := repo.SaveIfVersion(ctx, sampleCart(), 0)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.Delete(ctx, "sess-001"))
	assert.False(t, mr.Exists("storefront-cart:sess-001"))
}

func TestCartRepository_Delete_Missing(t *testing.T) {
	repo, _ := setupTestRedis(t)
	assert.NoError(t, repo.Delete(context.Background(), "nobody"))
}

func TestCartRepository_SessionsAreIsolated(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	a := sampleCart()
	b := sampleCart()
	b.SessionID = "sess-002"
	b.Items = cart.LineItems{}

	for _, c := range []*domain.Cart{a, b} {
		ok, err := repo.SaveIfVersion(ctx, c, 0)
		require.NoError(t, err)
		require.True(t, ok)
	}

	got, err := repo.Get(ctx, "sess-002")
	require.NoError(t, err)
	assert.Empty(t, got.Items)

	got, err = repo.Get(ctx, "sess-001")
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}
