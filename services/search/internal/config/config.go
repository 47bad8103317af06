package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/search"
	"github.com/utafrali/storefront/pkg/tracing"
)

// Config holds all configuration for the search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"SEARCH_HTTP_PORT" envDefault:"8010"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Matching policy
	MatchMode     string `env:"SEARCH_MATCH_MODE" envDefault:"substring"`
	FallbackToAll bool   `env:"SEARCH_FALLBACK_TO_ALL" envDefault:"true"`

	// Catalog document store used for full reindexing
	CatalogURL        string        `env:"CATALOG_URL" envDefault:"http://localhost:8001"`
	CatalogTimeout    time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`
	CatalogMaxRetries int           `env:"CATALOG_MAX_RETRIES" envDefault:"2"`
	ReindexOnStart    bool          `env:"SEARCH_REINDEX_ON_START" envDefault:"false"`

	// Kafka
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup string   `env:"SEARCH_CONSUMER_GROUP" envDefault:"search-service"`
	KafkaDLQEnabled    bool     `env:"KAFKA_DLQ_ENABLED" envDefault:"true"`

	// OpenTelemetry
	Tracing tracing.Config
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	cfg.Tracing.ServiceName = "search-service"
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if _, err := search.ParseMatchMode(c.MatchMode); err != nil {
		return fmt.Errorf("SEARCH_MATCH_MODE: %w", err)
	}
	if u, err := url.Parse(c.CatalogURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("CATALOG_URL must be an absolute URL, got %q", c.CatalogURL)
	}
	if c.CatalogMaxRetries < 0 {
		return fmt.Errorf("CATALOG_MAX_RETRIES must not be negative")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if err := c.Tracing.Validate(); err != nil {
		return err
	}
	return nil
}

// SearchOptions converts the matching policy into engine options.
func (c *Config) SearchOptions() search.Options {
	mode, _ := search.ParseMatchMode(c.MatchMode)
	return search.Options{
		FallbackToAll: c.FallbackToAll,
		Match:         mode,
	}
}
