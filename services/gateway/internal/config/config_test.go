package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "http://localhost:8010", cfg.SearchServiceURL)
	assert.Equal(t, "http://localhost:8003", cfg.CartServiceURL)
	assert.Equal(t, 30*time.Second, cfg.ProxyResponseTimeout)
	assert.Equal(t, 100, cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Len(t, cfg.MetricsAllowedCIDRs, 4)
	assert.Equal(t, "gateway", cfg.Tracing.ServiceName)
}

func TestLoad_RelativeUpstreamURL(t *testing.T) {
	t.Setenv("CART_SERVICE_URL", "cart:8003")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CART_SERVICE_URL")
}

func TestLoad_InvalidRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT")
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("GATEWAY_HTTP_PORT", "70000")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestUpstreams(t *testing.T) {
	cfg := &Config{SearchServiceURL: "http://search:8010", CartServiceURL: "http://cart:8003"}

	assert.Equal(t, map[string]string{
		"search": "http://search:8010",
		"cart":   "http://cart:8003",
	}, cfg.Upstreams())
}
