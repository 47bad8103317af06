package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceConfig struct {
	Port     int           `env:"HTTP_PORT" envDefault:"8080"`
	Brokers  []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	CartTTL  time.Duration `env:"CART_TTL" envDefault:"168h"`
	Fallback bool          `env:"FALLBACK_TO_ALL" envDefault:"true"`
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		opts    []Option
		want    serviceConfig
		wantErr string
	}{
		{
			name: "defaults",
			vars: map[string]string{},
			want: serviceConfig{Port: 8080, Brokers: []string{"localhost:9092"}, CartTTL: 168 * time.Hour, Fallback: true},
		},
		{
			name: "overrides",
			vars: map[string]string{"HTTP_PORT": "9090", "KAFKA_BROKERS": "k1:9092,k2:9092", "CART_TTL": "1h", "FALLBACK_TO_ALL": "false"},
			want: serviceConfig{Port: 9090, Brokers: []string{"k1:9092", "k2:9092"}, CartTTL: time.Hour},
		},
		{
			name: "prefix",
			vars: map[string]string{"SEARCH_HTTP_PORT": "8010", "HTTP_PORT": "1"},
			opts: []Option{WithPrefix("SEARCH_")},
			want: serviceConfig{Port: 8010, Brokers: []string{"localhost:9092"}, CartTTL: 168 * time.Hour, Fallback: true},
		},
		{
			name:    "bad int",
			vars:    map[string]string{"HTTP_PORT": "eighty"},
			wantErr: "parse config",
		},
		{
			name:    "bad duration",
			vars:    map[string]string{"CART_TTL": "a week"},
			wantErr: "parse config",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg serviceConfig
			err := Load(&cfg, append(tt.opts, WithEnvironment(tt.vars))...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestLoad_ProcessEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "8003")

	var cfg serviceConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, 8003, cfg.Port)
}

func TestLoad_Required(t *testing.T) {
	type secretConfig struct {
		URL string `env:"CATALOG_URL,required"`
	}

	var missing secretConfig
	err := Load(&missing, WithEnvironment(map[string]string{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATALOG_URL")

	var present secretConfig
	require.NoError(t, Load(&present, WithEnvironment(map[string]string{"CATALOG_URL": "http://catalog:8001"})))
	assert.Equal(t, "http://catalog:8001", present.URL)
}

type modeConfig struct {
	Mode string `env:"MATCH_MODE" envDefault:"substring"`
}

func (c *modeConfig) Validate() error {
	if c.Mode != "substring" && c.Mode != "whole-word" {
		return errors.New("unknown match mode " + c.Mode)
	}
	return nil
}

func TestLoad_RunsValidate(t *testing.T) {
	var ok modeConfig
	require.NoError(t, Load(&ok, WithEnvironment(map[string]string{})))

	var bad modeConfig
	err := Load(&bad, WithEnvironment(map[string]string{"MATCH_MODE": "fuzzy"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
	assert.Contains(t, err.Error(), "fuzzy")
}
