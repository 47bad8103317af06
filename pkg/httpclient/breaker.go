package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// BreakerConfig tunes a Breaker.
type BreakerConfig struct {
	// Name labels the breaker in logs, metrics and errors. Use the
	// downstream service name.
	Name string
	// HalfOpenProbes requests may run while the breaker is half-open.
	HalfOpenProbes uint32
	// Window clears the closed-state counts. Zero keeps them forever.
	Window time.Duration
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// The breaker opens once MinRequests were seen in the window and at
	// least TripRatio of them failed.
	TripRatio   float64
	MinRequests uint32
}

// DefaultBreakerConfig opens after half of at least five requests fail and
// probes again after 30s.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:           name,
		HalfOpenProbes: 1,
		Window:         time.Minute,
		Cooldown:       30 * time.Second,
		TripRatio:      0.5,
		MinRequests:    5,
	}
}

var (
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "http_client",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per downstream (0 closed, 1 half-open, 2 open).",
		},
		[]string{"name"},
	)

	breakerRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "http_client",
			Name:      "breaker_rejected_total",
			Help:      "Requests refused without being sent because the breaker was open.",
		},
		[]string{"name"},
	)
)

// ErrCircuitOpen is wrapped by the error a Breaker returns while open.
var ErrCircuitOpen = gobreaker.ErrOpenState

// Breaker guards a Client with a circuit breaker. Transport errors and 5xx
// answers count as failures; 4xx answers are returned to the caller and
// count as successes.
type Breaker struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[*http.Response]
	name   string
}

func NewBreaker(client *Client, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenProbes,
		Interval:    cfg.Window,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= cfg.MinRequests &&
				float64(c.TotalFailures)/float64(c.Requests) >= cfg.TripRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	breakerState.WithLabelValues(cfg.Name).Set(float64(gobreaker.StateClosed))
	return &Breaker{client: client, cb: cb, name: cfg.Name}
}

// Do sends req through the breaker. While the breaker refuses requests the
// error is a 503 AppError wrapping ErrCircuitOpen or gobreaker.ErrTooManyRequests.
// A 5xx answer is consumed and returned as the error ParseResponseError builds.
func (b *Breaker) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		resp, err := b.client.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, ParseResponseError(resp, b.name)
		}
		return resp, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		breakerRejected.WithLabelValues(b.name).Inc()
		return nil, apperrors.ServiceUnavailable(b.name+" is unavailable", err)
	}
	return resp, err
}

func (b *Breaker) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	return b.Do(ctx, req)
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
