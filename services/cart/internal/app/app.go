package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/lifecycle"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
	"github.com/utafrali/storefront/services/cart/internal/config"
	"github.com/utafrali/storefront/services/cart/internal/event"
	handler "github.com/utafrali/storefront/services/cart/internal/handler/http"
	redisrepo "github.com/utafrali/storefront/services/cart/internal/repository/redis"
	"github.com/utafrali/storefront/services/cart/internal/service"
)

// App is the cart service: Redis-backed carts with best-effort Kafka events.
type App struct {
	logger   *slog.Logger
	server   *http.Server
	rdb      *redis.Client
	producer *pkgkafka.Producer
	flush    func(context.Context) error
}

// NewApp connects to Redis and builds the HTTP stack. It fails if Redis
// cannot be reached.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	flush, err := tracing.InitTracer(context.Background(), cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Redis holds one cart document per session.
	redisCfg := cfg.Redis()
	rdb, err := database.NewRedisClient(ctx, redisCfg, logger)
	if err != nil {
		_ = flush(context.Background())
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, rdb, "cart"); err != nil {
		logger.Warn("redis pool metrics not registered", slog.String("error", err.Error()))
	}
	logger.Info("connected to Redis",
		slog.String("addr", redisCfg.Addr()),
		slog.Int("db", redisCfg.DB),
	)

	// Kafka producer for cart events.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	repo := redisrepo.NewCartRepository(rdb, cfg.CartTTL())
	eventProducer := event.NewProducer(producer, logger)
	cartService := service.NewCartService(repo, eventProducer, logger, cfg.CartTTL())

	// Health checks. Carts cannot be served without Redis; events are best effort.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", producer.Ping)

	// HTTP router.
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	router := handler.NewRouter(cartService, healthHandler, cors, logger)

	return &App{
		logger:   logger,
		rdb:      rdb,
		producer: producer,
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

// Run serves until ctx is canceled. Redis closes after the producer so
// in-flight requests can finish their writes and events.
func (a *App) Run(ctx context.Context) error {
	return lifecycle.Run(ctx, a.logger, a.server, nil, []lifecycle.Step{
		{Name: "kafka producer", Timeout: 5 * time.Second, Stop: lifecycle.Closer(a.producer.Close)},
		{Name: "redis", Timeout: time.Second, Stop: lifecycle.Closer(a.rdb.Close)},
		{Name: "tracer", Timeout: 5 * time.Second, Stop: a.flush},
	})
}
