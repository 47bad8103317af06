package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/pkg/catalog"
)

func newPriceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "price <raw>",
		Short: "Print the integer amount of a displayed price such as \"₹1,299\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(a.out, catalog.ParsePrice(catalog.Price(args[0])))
			return err
		},
	}
}
