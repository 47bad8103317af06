// Package config fills service config structs from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Validator is implemented by configs with rules beyond what the env tags
// express. Load calls it after parsing.
type Validator interface {
	Validate() error
}

// Option adjusts how Load reads variables.
type Option func(*env.Options)

// WithPrefix prepends prefix to every variable name, so "SEARCH_" makes a
// field tagged `env:"HTTP_PORT"` read SEARCH_HTTP_PORT.
func WithPrefix(prefix string) Option {
	return func(o *env.Options) { o.Prefix = prefix }
}

// WithEnvironment reads from vars instead of the process environment.
func WithEnvironment(vars map[string]string) Option {
	return func(o *env.Options) { o.Environment = vars }
}

// Load parses `env`-tagged fields of cfg, which must be a struct pointer, and
// then runs its Validate method if it has one.
func Load(cfg any, opts ...Option) error {
	var o env.Options
	for _, opt := range opts {
		opt(&o)
	}
	if err := env.ParseWithOptions(cfg, o); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
	}
	return nil
}
