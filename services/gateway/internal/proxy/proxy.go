// Package proxy forwards storefront API calls to the search and cart
// services.
package proxy

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"slices"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	pkghttputil "github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/services/gateway/internal/config"
)

const (
	reasonTimeout     = "timeout"
	reasonUnreachable = "unreachable"
	reasonCanceled    = "canceled"
)

var (
	upstreamResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "gateway",
		Name:      "upstream_responses_total",
		Help:      "Responses received from upstream services by status class.",
	}, []string{"upstream", "class"})

	upstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "gateway",
		Name:      "upstream_errors_total",
		Help:      "Proxied requests that got no upstream response.",
	}, []string{"upstream", "reason"})
)

type upstream struct {
	target  *url.URL
	handler *httputil.ReverseProxy
}

// ServiceProxy holds one reverse proxy per upstream service. They share a
// transport so idle connections are pooled.
type ServiceProxy struct {
	upstreams map[string]upstream
	logger    *slog.Logger
}

// NewServiceProxy builds proxies for cfg.Upstreams. An unparsable URL is
// logged and that upstream left out, so its routes answer 502.
func NewServiceProxy(cfg *config.Config, logger *slog.Logger) *ServiceProxy {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: cfg.ProxyDialTimeout}).DialContext,
		MaxIdleConns:          cfg.ProxyMaxIdleConns,
		MaxIdleConnsPerHost:   cfg.ProxyMaxIdleConns,
		IdleConnTimeout:       cfg.ProxyIdleTimeout,
		ResponseHeaderTimeout: cfg.ProxyResponseTimeout,
	}

	sp := &ServiceProxy{upstreams: make(map[string]upstream), logger: logger}
	for name, raw := range cfg.Upstreams() {
		target, err := url.Parse(raw)
		if err != nil {
			logger.Error("invalid upstream URL", slog.String("upstream", name), slog.String("url", raw), slog.String("error", err.Error()))
			continue
		}
		sp.upstreams[name] = upstream{
			target: target,
			handler: &httputil.ReverseProxy{
				Rewrite: func(pr *httputil.ProxyRequest) {
					pr.SetURL(target)
					pr.SetXForwarded()
				},
				Transport: transport,
				ModifyResponse: func(resp *http.Response) error {
					upstreamResponses.WithLabelValues(name, strconv.Itoa(resp.StatusCode/100)+"xx").Inc()
					return nil
				},
				ErrorHandler: sp.failed(name),
			},
		}
		logger.Info("upstream registered", slog.String("upstream", name), slog.String("target", raw))
	}
	return sp
}

// Handler proxies to the named upstream.
func (sp *ServiceProxy) Handler(name string) http.Handler {
	if u, ok := sp.upstreams[name]; ok {
		return u.handler
	}
	sp.logger.Error("no upstream registered", slog.String("upstream", name))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusBadGateway, "SERVICE_UNAVAILABLE", "service not configured")
	})
}

// Services lists the registered upstream names, sorted.
func (sp *ServiceProxy) Services() []string {
	names := make([]string, 0, len(sp.upstreams))
	for name := range sp.upstreams {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Target is the base URL of a registered upstream.
func (sp *ServiceProxy) Target(name string) (*url.URL, bool) {
	u, ok := sp.upstreams[name]
	return u.target, ok
}

// reason classifies a transport error. A response header timeout surfaces
// as a net.Error with Timeout set.
func reason(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return reasonCanceled
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return reasonTimeout
	default:
		return reasonUnreachable
	}
}

func (sp *ServiceProxy) failed(name string) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		why := reason(err)
		upstreamErrors.WithLabelValues(name, why).Inc()

		level := slog.LevelError
		if why == reasonCanceled {
			level = slog.LevelInfo
		}
		sp.logger.Log(r.Context(), level, "upstream request failed",
			slog.String("upstream", name),
			slog.String("reason", why),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)

		if why == reasonTimeout {
			writeError(w, http.StatusGatewayTimeout, "GATEWAY_TIMEOUT", "upstream service timed out")
			return
		}
		writeError(w, http.StatusBadGateway, "BAD_GATEWAY", "upstream service unavailable")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	pkghttputil.WriteJSON(w, status, pkghttputil.Response{
		Error: &pkghttputil.ErrorResponse{Code: code, Message: message},
	})
}
