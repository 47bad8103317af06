package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/pkg/health"
	pkgmiddleware "github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/services/gateway/internal/config"
	gwmiddleware "github.com/utafrali/storefront/services/gateway/internal/middleware"
	"github.com/utafrali/storefront/services/gateway/internal/proxy"
)

// NewRouter creates a chi router with global middleware, health endpoints,
// and rate-limited proxy routes to the search and cart services.
func NewRouter(cfg *config.Config, sp *proxy.ServiceProxy, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	cors := pkgmiddleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.ExposedHeaders = []string{pkgmiddleware.CorrelationIDHeader, "Retry-After"}

	r.Use(pkgmiddleware.CORS(cors))
	r.Use(pkgmiddleware.Recovery(logger))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(pkgmiddleware.RequestLogging(logger))
	r.Use(pkgmiddleware.PrometheusMetrics("gateway"))
	r.Use(pkgmiddleware.Tracing("gateway"))
	r.Use(pkgmiddleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", metricsIPAllowlist(cfg.MetricsAllowedCIDRs, logger)(promhttp.Handler()))

	for _, svc := range []struct{ name, prefix string }{
		{"search", "/api/v1/search"},
		{"cart", "/api/v1/cart"},
	} {
		upstream := gwmiddleware.RateLimit(svc.name, cfg.RateLimitRPS, cfg.RateLimitBurst, logger)(sp.Handler(svc.name))
		r.Handle(svc.prefix, upstream)
		r.Handle(svc.prefix+"/*", upstream)
	}

	return r
}
