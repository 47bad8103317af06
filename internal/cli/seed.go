package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/utafrali/storefront/internal/seed"
	"github.com/utafrali/storefront/pkg/catalog"
	"github.com/utafrali/storefront/pkg/httpclient"
)

func newSeedCommand(a *app) *cobra.Command {
	var (
		count int
		rng   int64
		out   string
		push  string
		batch int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a sample apparel catalog",
		Long: "Generate a deterministic apparel catalog. The catalog is written to --out " +
			"(YAML for .yaml/.yml, JSON otherwise), pushed to the search service at --push, " +
			"or printed as JSON when neither is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			products := seed.Generate(count, rng)
			a.logger.InfoContext(cmd.Context(), "catalog generated",
				slog.Int("count", len(products)),
				slog.Int64("seed", rng),
			)

			if out == "" && push == "" {
				return writeCatalog(a.out, products, false)
			}

			if out != "" {
				if err := saveCatalog(out, products); err != nil {
					return err
				}
				fmt.Fprintf(a.errOut, "wrote %d products to %s\n", len(products), out)
			}

			if push != "" {
				cfg := httpclient.DefaultConfig()
				cfg.Timeout = time.Minute
				n, err := seed.Push(cmd.Context(), httpclient.New(cfg), push, products, batch, a.logger)
				if err != nil {
					return fmt.Errorf("seed search service (%d indexed before failure): %w", n, err)
				}
				fmt.Fprintf(a.errOut, "indexed %d products at %s\n", n, push)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&count, "count", 1000, "number of products")
	flags.Int64Var(&rng, "seed", seed.DefaultSeed, "random seed")
	flags.StringVar(&out, "out", "", "write the catalog to this file")
	flags.StringVar(&push, "push", "", "search service base URL to bulk index into")
	flags.IntVar(&batch, "batch", seed.MaxBatch, "products per bulk request")
	return cmd
}

func saveCatalog(path string, products []catalog.Product) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create catalog dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create catalog: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	werr := writeCatalog(f, products, ext == ".yaml" || ext == ".yml")
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("write catalog %s: %w", path, werr)
	}
	return nil
}

func writeCatalog(w io.Writer, products []catalog.Product, asYAML bool) error {
	if asYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(catalogFile{Products: products}); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(catalogFile{Products: products})
}
