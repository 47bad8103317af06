package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/lifecycle"
	"github.com/utafrali/storefront/pkg/tracing"
	"github.com/utafrali/storefront/services/gateway/internal/config"
	"github.com/utafrali/storefront/services/gateway/internal/handler"
	"github.com/utafrali/storefront/services/gateway/internal/proxy"
)

const (
	flushTimeout = 3 * time.Second
	probeTimeout = 2 * time.Second
)

// App is the storefront gateway: a stateless reverse proxy in front of the
// search and cart services.
type App struct {
	logger *slog.Logger
	server *http.Server
	flush  func(context.Context) error
}

func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	flush, err := tracing.InitTracer(context.Background(), cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	upstreams := proxy.NewServiceProxy(cfg, logger)

	// Upstreams are probed for visibility only; the gateway itself is always
	// ready to answer.
	checks := health.NewHandler()
	for _, name := range upstreams.Services() {
		target, _ := upstreams.Target(name)
		checks.RegisterNonCritical(name, reachable(target.Host))
	}

	return &App{
		logger: logger,
		flush:  flush,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:           handler.NewRouter(cfg, upstreams, checks, logger),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			// Longer than PROXY_RESPONSE_TIMEOUT so upstream timeouts surface as 504.
			WriteTimeout: cfg.ProxyResponseTimeout + 5*time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}, nil
}

func reachable(hostport string) health.Checker {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", hostport)
		if err != nil {
			return fmt.Errorf("dial %s: %w", hostport, err)
		}
		return conn.Close()
	}
}

// Run serves until ctx is canceled, then drains in-flight proxied requests
// and flushes pending spans.
func (a *App) Run(ctx context.Context) error {
	return lifecycle.Run(ctx, a.logger, a.server, nil, []lifecycle.Step{
		{Name: "tracer", Timeout: flushTimeout, Stop: a.flush},
	})
}
