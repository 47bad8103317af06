package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/pkg/search"
)

func newSearchCommand(a *app) *cobra.Command {
	var (
		wholeWord  bool
		noFallback bool
		limit      int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Rank catalog products against a free-text query",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := loadCatalog(a.v.GetString("catalog"))
			if err != nil {
				return err
			}

			opts := search.DefaultOptions()
			opts.FallbackToAll = !noFallback
			if wholeWord {
				opts.Match = search.MatchWholeWord
			}
			query := strings.Join(args, " ")
			ranking := search.NewEngine(opts).Rank(query, products)

			a.logger.DebugContext(cmd.Context(), "search ranked",
				slog.String("query", query),
				slog.Int("catalog_size", len(products)),
				slog.Int("matches", len(ranking.Matches)),
				slog.Bool("fallback", ranking.Fallback),
			)

			matches := ranking.Matches
			if limit > 0 && len(matches) > limit {
				matches = matches[:limit]
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"products": matches,
					"total":    len(ranking.Matches),
					"fallback": ranking.Fallback,
				})
			}

			if ranking.Fallback {
				fmt.Fprintln(a.errOut, "no products matched; showing the full catalog")
			}
			if len(matches) == 0 {
				fmt.Fprintln(a.errOut, "no products found")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCORE\tID\tTITLE\tPRICE")
			for _, m := range matches {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.Score, m.Product.ID, m.Product.Title, m.Product.CurrentPrice)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&wholeWord, "whole-word", false, "match query tokens on word boundaries only")
	cmd.Flags().BoolVar(&noFallback, "no-fallback", false, "print nothing instead of the full catalog when nothing matches")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many products (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
