package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return exp
}

func tracedCartRouter(status int) *chi.Mux {
	r := chi.NewRouter()
	r.Use(Tracing("cart"))
	r.Put("/api/v1/cart/items/{id}/{size}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	return r
}

func spanAttrs(s tracetest.SpanStub) map[string]string {
	out := make(map[string]string, len(s.Attributes))
	for _, kv := range s.Attributes {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestTracing_NamesSpanAfterRoute(t *testing.T) {
	exp := recordSpans(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/p1/M", nil)
	req.Header.Set(SessionIDHeader, "sess-7")
	req.RemoteAddr = "203.0.113.9:51000"
	tracedCartRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "PUT /api/v1/cart/items/{id}/{size}", spans[0].Name)

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "cart", attrs["storefront.service"])
	assert.Equal(t, "sess-7", attrs["storefront.session_id"])
	assert.Equal(t, "/api/v1/cart/items/{id}/{size}", attrs["http.route"])
	assert.Equal(t, "/api/v1/cart/items/p1/M", attrs["url.path"])
	assert.Equal(t, "203.0.113.9", attrs["client.address"])
	assert.Equal(t, "200", attrs["http.response.status_code"])
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestTracing_ServerErrorMarksSpan(t *testing.T) {
	exp := recordSpans(t)

	tracedCartRouter(http.StatusServiceUnavailable).ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/p1/M", nil))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotContains(t, spanAttrs(spans[0]), "storefront.session_id")
}

func TestTracing_ContinuesCallerTrace(t *testing.T) {
	exp := recordSpans(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/p1/M", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	tracedCartRouter(http.StatusOK).ServeHTTP(rec, req)

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
	assert.Contains(t, rec.Header().Get("traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")
}

func TestTracing_UnmatchedRouteKeepsMethodName(t *testing.T) {
	exp := recordSpans(t)

	tracedCartRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/elsewhere", nil))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP GET", spans[0].Name)
}
