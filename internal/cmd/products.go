package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gamex/gamex-cli/internal/api"
	"github.com/gamex/gamex-cli/internal/cache"
	"github.com/gamex/gamex-cli/internal/outfmt"
)

func newProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product", "p"},
		Short:   "List top-up packages",
	}
	cmd.AddCommand(newProductsListCmd())
	return cmd
}

func newProductsListCmd() *cobra.Command {
	var refresh, activeOnly bool

	cmd := &cobra.Command{
		Use:     "list <game|category-id>",
		Aliases: []string{"ls"},
		Short:   "List the packages of a game",
		Long:    "Listings are cached for GAMEX_CACHE_TTL (default 10m). Use --refresh to bypass the cache.",
		Example: strings.TrimSpace(`
  gamex products list mobile-legends
  gamex products list 3 --active
  gamex products list genshin --jq '.items[] | select(.harga | tonumber < 50000)'
`),
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeGames,
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			categoryID, game, err := resolveCategory(args[0])
			if err != nil {
				return err
			}
			resp, err := loadProducts(cmd, categoryID, refresh)
			if err != nil {
				return err
			}

			items := resp.Items()
			if activeOnly {
				kept := items[:0:0]
				for _, p := range items {
					if p.Active {
						kept = append(kept, p)
					}
				}
				items = kept
			}

			if isJSON(cmd) {
				return printJSON(cmd, items)
			}

			f := outfmt.NewFormatter(cmdContext(cmd), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if len(items) == 0 {
				f.Empty("No products found")
				return nil
			}
			if game != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (category %d)\n\n", game.Name, categoryID)
			}
			f.StartTable([]string{"ID", "CODE", "PACKAGE", "PRICE", "STATUS"})
			for _, p := range items {
				status := "active"
				if !p.Active {
					status = "inactive"
				}
				f.Row(strconv.Itoa(p.ID), p.Code, p.Label(), rupiah(p.Price), status)
			}
			return f.EndTable()
		}),
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cache and fetch from the backend")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only show packages that can be bought")
	return cmd
}

// loadProducts returns a category's listing from the cache or the backend.
func loadProducts(cmd *cobra.Command, categoryID int, refresh bool) (*api.ProductResponse, error) {
	a, err := appFrom(cmd)
	if err != nil {
		return nil, err
	}
	ctx := cmdContext(cmd)
	key := cache.ProductsKey(categoryID)
	store := a.Cache()

	if !refresh {
		var cached api.ProductResponse
		if store.Get(ctx, key, &cached) {
			return &cached, nil
		}
	}

	resp, err := a.Client().Catalog().Products(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products for category %d: %w", categoryID, err)
	}
	store.Put(ctx, key, resp)
	return resp, nil
}

// findProduct looks a product up in the category listing.
func findProduct(cmd *cobra.Command, categoryID, productID int) (*api.Product, error) {
	resp, err := loadProducts(cmd, categoryID, false)
	if err != nil {
		return nil, err
	}
	for _, p := range resp.Items() {
		if p.ID == productID {
			return &p, nil
		}
	}
	return nil, &usageError{err: fmt.Errorf("product %d is not in category %d (see 'gamex products list %d')", productID, categoryID, categoryID)}
}
