// Package middleware holds gateway-only HTTP middleware.
package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/utafrali/storefront/pkg/httputil"
)

// idleBucketTTL is how long a client's bucket survives without traffic.
const idleBucketTTL = 3 * time.Minute

var rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "storefront",
	Subsystem: "gateway",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the per-client rate limiter.",
}, []string{"upstream"})

type bucket struct {
	limiter *rate.Limiter
	used    time.Time
}

// buckets is a token bucket per client, for one upstream. Buckets unused for
// ttl are dropped during a lookup, at most once per ttl.
type buckets struct {
	mu    sync.Mutex
	byKey map[string]*bucket
	limit rate.Limit
	burst int
	ttl   time.Duration
	swept time.Time
	clock func() time.Time
}

func newBuckets(rps, burst int, ttl time.Duration) *buckets {
	return &buckets{
		byKey: make(map[string]*bucket),
		limit: rate.Limit(rps),
		burst: burst,
		ttl:   ttl,
		swept: time.Now(),
		clock: time.Now,
	}
}

func (b *buckets) get(key string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock()
	if now.Sub(b.swept) > b.ttl {
		for k, bk := range b.byKey {
			if now.Sub(bk.used) > b.ttl {
				delete(b.byKey, k)
			}
		}
		b.swept = now
	}

	bk, ok := b.byKey[key]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.byKey[key] = bk
	}
	bk.used = now
	return bk.limiter
}

func (b *buckets) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byKey)
}

// retryAfter is the whole seconds until lim has a token again, at least one.
func retryAfter(lim *rate.Limiter, now time.Time) int {
	r := lim.ReserveN(now, 1)
	defer r.CancelAt(now)
	if !r.OK() {
		return 1
	}
	return max(1, int(math.Ceil(r.DelayFrom(now).Seconds())))
}

// RateLimit rejects a client's requests to upstream with 429 once its token
// bucket (rps sustained, burst peak) is empty.
func RateLimit(upstream string, rps, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	clients := newBuckets(rps, burst, idleBucketTTL)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			lim := clients.get(ip)
			now := time.Now()
			if lim.AllowN(now, 1) {
				next.ServeHTTP(w, r)
				return
			}

			rateLimitedTotal.WithLabelValues(upstream).Inc()
			logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("upstream", upstream),
				slog.String("client", ip),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter(lim, now)))
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "RATE_LIMITED", Message: "too many requests"},
			})
		})
	}
}

// clientIP is the first parseable address in X-Forwarded-For, else
// X-Real-IP, else the peer address.
func clientIP(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if addr, err := netip.ParseAddr(strings.TrimSpace(part)); err == nil {
			return addr.Unmap().String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.Unmap().String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
