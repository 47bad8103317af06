// Package cli implements the storefront command line tool: searching a
// catalog file, keeping a cart on the local device and generating sample
// catalogs.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/utafrali/storefront/pkg/cart"
	"github.com/utafrali/storefront/pkg/cart/filestore"
	"github.com/utafrali/storefront/pkg/logger"
)

const envPrefix = "STOREFRONT"

// app is the state shared by every subcommand of one invocation.
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

// NewRootCommand builds the storefront command tree writing results to out
// and diagnostics to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		out:    out,
		errOut: errOut,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Search a product catalog and manage a local cart",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg := a.v.GetString("config"); cfg != "" {
				a.v.SetConfigFile(cfg)
				if err := a.v.ReadInConfig(); err != nil {
					return fmt.Errorf("read config %s: %w", cfg, err)
				}
			}
			a.logger = logger.NewText(a.v.GetString("log-level"), a.errOut)
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.String("catalog", "", "product catalog file (JSON or YAML)")
	flags.String("cart-file", defaultCartFile(), "cart file")
	flags.String("config", "", "config file")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	for _, name := range []string{"catalog", "cart-file", "config", "log-level"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		newSearchCommand(a),
		newPriceCommand(a),
		newCartCommand(a),
		newSeedCommand(a),
	)
	return root
}

// Execute runs the storefront command line against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func defaultCartFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".storefront", "cart.json")
	}
	return filepath.Join(home, ".storefront", "cart.json")
}

// openCart rehydrates the cart kept in the configured cart file.
func (a *app) openCart(ctx context.Context) (*cart.Store, error) {
	path := a.v.GetString("cart-file")
	if path == "" {
		return nil, fmt.Errorf("cart file is not set")
	}
	return cart.NewStore(ctx, filestore.New(path), cart.StorageKey, a.logger.With(slog.String("cart_file", path)))
}
