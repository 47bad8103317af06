package tracing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"disabled defaults", Config{SampleRate: 1}, ""},
		{"rate above one", Config{SampleRate: 2}, "OTEL_SAMPLE_RATE"},
		{"negative rate", Config{SampleRate: -0.1}, "OTEL_SAMPLE_RATE"},
		{"enabled without endpoint", Config{Enabled: true, SampleRate: 0.5}, "OTEL_EXPORTER_OTLP_ENDPOINT"},
		{"enabled with endpoint", Config{Enabled: true, SampleRate: 0.5, OTLPEndpoint: "otel:4318"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitTracer_DisabledInstallsPropagatorOnly(t *testing.T) {
	restoreGlobals(t)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
	before := otel.GetTracerProvider()

	shutdown, err := InitTracer(context.Background(), Config{ServiceName: "cart-service"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "baggage")
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestInitTracer_EnabledSetsSDKProvider(t *testing.T) {
	restoreGlobals(t)

	// Export is batched, so an unreachable collector does not fail startup.
	shutdown, err := InitTracer(context.Background(), Config{
		ServiceName:  "search-service",
		Environment:  "test",
		OTLPEndpoint: "127.0.0.1:0",
		SampleRate:   1,
		Enabled:      true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)

	_, span := otel.Tracer("test").Start(context.Background(), "index product")
	defer span.End()
	assert.True(t, span.IsRecording())
	assert.True(t, span.SpanContext().IsSampled())
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate   float64
		prefix string
	}{
		{1.5, "ParentBased{root:AlwaysOnSampler"},
		{1, "ParentBased{root:AlwaysOnSampler"},
		{0, "ParentBased{root:AlwaysOffSampler"},
		{-1, "ParentBased{root:AlwaysOffSampler"},
		{0.25, "ParentBased{root:TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		got := Sampler(tt.rate).Description()
		assert.True(t, strings.HasPrefix(got, tt.prefix), "rate %v: %s", tt.rate, got)
	}
}

func TestSampler_FollowsSampledParent(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	parent := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled, Remote: true,
	}))

	res := Sampler(0).ShouldSample(sdktrace.SamplingParameters{
		ParentContext: parent,
		TraceID:       traceID,
		Name:          "GET /api/v1/cart",
	})
	assert.Equal(t, sdktrace.RecordAndSample, res.Decision)
}
