package database

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func hookedClient(t *testing.T, hook redis.Hook) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	client.AddHook(hook)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestTracingHook_CommandSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	client := hookedClient(t, NewTracingHook(0, nil))

	require.NoError(t, client.Set(context.Background(), "storefront-cart:s1", "{}", 0).Err())

	var names []string
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "redis.set")
}

func TestTracingHook_MissIsNotAnError(t *testing.T) {
	exporter := setupTestTracer(t)
	client := hookedClient(t, NewTracingHook(0, nil))

	err := client.Get(context.Background(), "absent").Err()
	require.ErrorIs(t, err, redis.Nil)

	for _, s := range exporter.GetSpans() {
		if s.Name == "redis.get" {
			assert.NotEqual(t, codes.Error, s.Status.Code)
			return
		}
	}
	t.Fatal("no redis.get span recorded")
}

func TestTracingHook_PipelineSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	client := hookedClient(t, NewTracingHook(0, nil))

	_, err := client.TxPipelined(context.Background(), func(p redis.Pipeliner) error {
		p.Set(context.Background(), "a", "1", 0)
		p.Set(context.Background(), "b", "2", 0)
		return nil
	})
	require.NoError(t, err)

	var found bool
	for _, s := range exporter.GetSpans() {
		if s.Name == "redis.pipeline" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTracingHook_SlowCommandLogging(t *testing.T) {
	setupTestTracer(t)
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	// Any command takes at least a nanosecond.
	client := hookedClient(t, NewTracingHook(1, l))
	require.NoError(t, client.Ping(context.Background()).Err())

	assert.Contains(t, buf.String(), "slow redis command")
	assert.Contains(t, buf.String(), "operation=ping")
}

func TestTracingHook_SlowLoggingDisabled(t *testing.T) {
	setupTestTracer(t)
	var buf bytes.Buffer
	client := hookedClient(t, NewTracingHook(0, slog.New(slog.NewTextHandler(&buf, nil))))
	require.NoError(t, client.Ping(context.Background()).Err())
	assert.Zero(t, buf.Len())
}
