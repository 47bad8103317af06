package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/pkg/cart"
)

func newCartCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart kept in the cart file",
	}
	cmd.AddCommand(
		newCartShowCommand(a),
		newCartAddCommand(a),
		newCartUpdateCommand(a),
		newCartRemoveCommand(a),
		newCartClearCommand(a),
	)
	return cmd
}

func newCartShowCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the cart lines and total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"cart":  store.Items(),
					"total": store.Total(),
					"count": store.Count(),
				})
			}
			return a.printCart(store)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newCartAddCommand(a *app) *cobra.Command {
	var qty int
	cmd := &cobra.Command{
		Use:   "add <product-id> <size>",
		Short: "Add a catalog product in the given size",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, size := args[0], args[1]

			products, err := loadCatalog(a.v.GetString("catalog"))
			if err != nil {
				return err
			}
			product, ok := findProduct(products, id)
			if !ok {
				return fmt.Errorf("product %s is not in the catalog", id)
			}
			if len(product.Sizes) > 0 && !product.HasSize(size) {
				return fmt.Errorf("size %q is not offered for product %s (sizes: %v)", size, id, product.Sizes)
			}
			product.Quantity = qty

			store, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.AddToCart(cmd.Context(), product, size); err != nil {
				return err
			}
			a.logger.InfoContext(cmd.Context(), "item added to cart",
				slog.String("product_id", id),
				slog.String("size", size),
			)
			return a.printCart(store)
		},
	}
	cmd.Flags().IntVar(&qty, "qty", 1, "quantity to add")
	return cmd
}

func newCartUpdateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <product-id> <size> <quantity>",
		Short: "Set the quantity of a cart line (at least 1)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("quantity %q is not a whole number", args[2])
			}
			store, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.UpdateQuantity(cmd.Context(), args[0], args[1], qty); err != nil {
				return err
			}
			return a.printCart(store)
		},
	}
}

func newCartRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id> <size>",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.RemoveFromCart(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return a.printCart(store)
		},
	}
}

func newCartClearCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.ClearCart(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "cart cleared")
			return nil
		},
	}
}

func (a *app) printCart(store *cart.Store) error {
	items := store.Items()
	if len(items) == 0 {
		_, err := fmt.Fprintln(a.out, "cart is empty")
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSIZE\tQTY\tUNIT\tTOTAL\tTITLE")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			item.ID, item.Size, item.Quantity, item.UnitPrice, item.TotalPrice, item.Title)
	}
	fmt.Fprintf(tw, "\t\t\t\t%d\t%d line(s)\n", store.Total(), store.Count())
	return tw.Flush()
}
