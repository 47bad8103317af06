package database

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func miniConfig(t *testing.T, mr *miniredis.Miniredis) RedisConfig {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	cfg := DefaultRedisConfig()
	cfg.Host = mr.Host()
	cfg.Port = port
	return cfg
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := DefaultRedisConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr())
	assert.Equal(t, 10, cfg.PoolSize)
}

func TestNewRedisClient_Success(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), miniConfig(t, mr), discardLogger())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRedisClient_WrongPasswordFailsWithoutRetry(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	cfg := miniConfig(t, mr)
	cfg.Password = "wrong"

	start := time.Now()
	_, err := NewRedisClient(context.Background(), cfg, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
	assert.Less(t, time.Since(start), 500*time.Millisecond, "auth errors must not be retried")
}

func TestPingWithRetry_RetriesConnectionErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	var buf bytes.Buffer
	attempts := 0
	err := pingWithRetry(context.Background(), client, slog.New(slog.NewTextHandler(&buf, nil)), func(int) time.Duration {
		attempts++
		return time.Millisecond
	})

	require.Error(t, err)
	assert.Equal(t, defaultRetryAttempts-1, attempts)
	assert.Contains(t, buf.String(), "redis ping failed, retrying")
}

func TestPingWithRetry_ContextCanceled(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	err := pingWithRetry(ctx, client, discardLogger(), func(int) time.Duration {
		cancel()
		return time.Hour
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryBackoff_ExponentialWithJitter(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		base := defaultRetryBaseWait << attempt
		minExpected := time.Duration(float64(base) * (1 - retryJitterFraction))
		maxExpected := time.Duration(float64(base) * (1 + retryJitterFraction))

		for i := 0; i < 20; i++ {
			d := retryBackoff(attempt)
			assert.GreaterOrEqual(t, d, minExpected)
			assert.LessOrEqual(t, d, maxExpected)
		}
	}
}

type errStr string

func (e errStr) Error() string { return string(e) }

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.True(t, isConnectionError(errStr("dial tcp 127.0.0.1:6379: connection refused")))
	assert.True(t, isConnectionError(errStr("read: connection reset by peer")))
	assert.True(t, isConnectionError(errStr("LOADING Redis is loading the dataset in memory")))
	assert.True(t, isConnectionError(context.DeadlineExceeded))
	assert.False(t, isConnectionError(errStr("WRONGPASS invalid username-password pair")))
	assert.False(t, isConnectionError(errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")))
}
