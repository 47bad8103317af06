package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/lifecycle"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/search"
	"github.com/utafrali/storefront/pkg/tracing"
	"github.com/utafrali/storefront/services/search/internal/client"
	"github.com/utafrali/storefront/services/search/internal/config"
	"github.com/utafrali/storefront/services/search/internal/engine/memory"
	"github.com/utafrali/storefront/services/search/internal/event"
	handler "github.com/utafrali/storefront/services/search/internal/handler/http"
	"github.com/utafrali/storefront/services/search/internal/service"
)

// App is the search service: an in-memory index fed by catalog events and
// full reindexes.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	service  *service.SearchService
	consumer *pkgkafka.Consumer
	dlq      *pkgkafka.DLQProducer
	server   *http.Server
	flush    func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	flush, err := tracing.InitTracer(context.Background(), cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Matching engine and in-memory catalog index.
	opts := cfg.SearchOptions()
	eng := memory.New(search.NewEngine(opts))
	logger.Info("in-memory search index initialized",
		slog.String("match_mode", string(opts.Match)),
		slog.Bool("fallback_to_all", opts.FallbackToAll),
	)

	// Catalog client for full reindexing, guarded by a circuit breaker.
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.CatalogTimeout
	httpCfg.MaxRetries = cfg.CatalogMaxRetries
	catalogHTTP := httpclient.NewBreaker(
		httpclient.New(httpCfg),
		httpclient.DefaultBreakerConfig("catalog"),
		logger,
	)
	catalogClient := client.NewCatalogClient(cfg.CatalogURL, catalogHTTP)

	searchService := service.NewSearchService(eng, catalogClient, logger)

	// Kafka consumer for catalog product events.
	eventConsumer := event.NewConsumer(searchService, logger)
	consumerOpts := []pkgkafka.ConsumerOption{
		pkgkafka.WithDedup(pkgkafka.NewMemoryDedupStore(24 * time.Hour)),
	}
	var dlq *pkgkafka.DLQProducer
	if cfg.KafkaDLQEnabled {
		dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		consumerOpts = append(consumerOpts, pkgkafka.WithDeadLetter(dlq))
	}
	consumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaConsumerGroup,
		Topics:   event.Topics(),
		MinBytes: 1,
		MaxBytes: 10e6, // 10 MB
	}, eventConsumer.Handle, logger, consumerOpts...)
	logger.Info("kafka consumer initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Any("topics", event.Topics()),
	)

	// Health checks. The index is served from memory, so neither dependency
	// takes the service out of rotation.
	healthHandler := health.NewHandler()
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})
	healthHandler.RegisterNonCritical("catalog", func(context.Context) error {
		if catalogHTTP.State() == gobreaker.StateOpen {
			return errors.New("catalog circuit breaker is open")
		}
		return nil
	})

	// HTTP router.
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	router := handler.NewRouter(searchService, healthHandler, cors, logger)

	return &App{
		cfg:      cfg,
		logger:   logger,
		service:  searchService,
		consumer: consumer,
		dlq:      dlq,
		flush:    flush,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}, nil
}

// Run serves queries and consumes catalog events until ctx is canceled. With
// SEARCH_REINDEX_ON_START the index is rebuilt from the catalog in the
// background; queries are answered from whatever is indexed meanwhile.
func (a *App) Run(ctx context.Context) error {
	workers := []lifecycle.Worker{{Name: "kafka consumer", Run: a.consumer.Start}}
	if a.cfg.ReindexOnStart {
		workers = append(workers, lifecycle.Worker{Name: "startup reindex", Run: a.startupReindex})
	}

	steps := []lifecycle.Step{
		{Name: "kafka consumer", Timeout: 5 * time.Second, Stop: lifecycle.Closer(a.consumer.Close)},
	}
	if a.dlq != nil {
		steps = append(steps, lifecycle.Step{Name: "dlq producer", Timeout: 5 * time.Second, Stop: lifecycle.Closer(a.dlq.Close)})
	}
	steps = append(steps, lifecycle.Step{Name: "tracer", Timeout: 5 * time.Second, Stop: a.flush})

	return lifecycle.Run(ctx, a.logger, a.server, workers, steps)
}

// startupReindex never fails the service; an unreachable catalog leaves the
// index to be filled by events.
func (a *App) startupReindex(ctx context.Context) error {
	n, err := a.service.Reindex(ctx)
	if err != nil {
		a.logger.Error("startup reindex failed", slog.String("error", err.Error()))
		return nil
	}
	a.logger.Info("startup reindex completed", slog.Int("count", n))
	return nil
}
