// Package http exposes the search service over HTTP.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/services/search/internal/service"
)

const requestTimeout = 30 * time.Second

// NewRouter mounts the query, indexing and operational routes.
func NewRouter(svc *service.SearchService, probes *health.Handler, cors middleware.CORSConfig, logger *slog.Logger) http.Handler {
	h := &searchHandler{svc: svc, log: logger}

	r := chi.NewRouter()
	r.Use(
		middleware.CORS(cors),
		middleware.Recovery(logger),
		chimw.Compress(5),
		chimw.Timeout(requestTimeout),
		middleware.RequestLogging(logger),
		middleware.PrometheusMetrics("search"),
		middleware.Tracing("search"),
		middleware.RequestLogger(logger),
	)

	r.Get("/health/live", probes.LivenessHandler())
	r.Get("/health/ready", probes.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/search", func(r chi.Router) {
		r.Get("/", h.search)
		r.Get("/stats", h.stats)

		// Writes carry JSON bodies.
		r.With(middleware.ContentTypeJSON).Post("/index", h.index)
		r.With(middleware.ContentTypeJSON).Post("/bulk", h.bulk)
		r.With(middleware.ContentTypeJSON).Post("/reindex", h.reindex)
		r.With(middleware.ContentTypeJSON).Delete("/{id}", h.remove)
	})
	return r
}
