package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gamex/gamex-cli/internal/catalog"
	"github.com/gamex/gamex-cli/internal/status"
)

// CompletionItem represents an autocomplete suggestion
type CompletionItem struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

func outputCompletionItems(cmd *cobra.Command, items []CompletionItem) error {
	if isJSON(cmd) {
		return printJSON(cmd, items)
	}

	w := newTabWriterFromCmd(cmd)
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", item.Value, item.Label, item.Description)
	}
	return w.Flush()
}

func newCompletionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completions",
		Short: "Get autocomplete values",
		Long:  "Print valid values for game ids, product ids, statuses and payment methods, for shell completion and scripts.",
	}

	cmd.AddCommand(newCompletionsGamesCmd())
	cmd.AddCommand(newCompletionsProductsCmd())
	cmd.AddCommand(newCompletionsStatusesCmd())
	cmd.AddCommand(newCompletionsMethodsCmd())

	return cmd
}

func gameCompletionItems() ([]CompletionItem, error) {
	games, err := catalog.Games()
	if err != nil {
		return nil, err
	}
	items := make([]CompletionItem, len(games))
	for i, g := range games {
		items[i] = CompletionItem{
			Value:       g.ID,
			Label:       g.Name,
			Description: "category " + strconv.Itoa(g.CategoryID),
		}
	}
	return items, nil
}

func newCompletionsGamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List game ids",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			items, err := gameCompletionItems()
			if err != nil {
				return err
			}
			return outputCompletionItems(cmd, items)
		}),
	}
}

func newCompletionsProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products <game|category-id>",
		Short: "List product ids of a game",
		Long:  "Uses the product listing cache, so repeated completion does not hit the backend.",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			categoryID, _, err := resolveCategory(args[0])
			if err != nil {
				return err
			}
			resp, err := loadProducts(cmd, categoryID, false)
			if err != nil {
				return err
			}
			var items []CompletionItem
			for _, p := range resp.Items() {
				if !p.Active {
					continue
				}
				items = append(items, CompletionItem{
					Value:       strconv.Itoa(p.ID),
					Label:       p.Label(),
					Description: rupiah(p.Price),
				})
			}
			return outputCompletionItems(cmd, items)
		}),
	}
}

func newCompletionsStatusesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "List order and deposit statuses",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var items []CompletionItem
			for _, s := range []status.Transaction{status.TxPending, status.TxPaid, status.TxProcess, status.TxSuccess, status.TxFailed, status.TxRefund} {
				p := status.ReduceTransaction(string(s))
				items = append(items, CompletionItem{Value: string(s), Label: p.Label, Description: "order: " + p.Message})
			}
			for _, s := range []status.Deposit{status.DepPending, status.DepSuccess, status.DepCancelled} {
				p := status.ReduceDeposit(string(s))
				items = append(items, CompletionItem{Value: string(s), Label: p.Label, Description: "deposit: " + p.Message})
			}
			return outputCompletionItems(cmd, items)
		}),
	}
}

func newCompletionsMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "payment-methods",
		Short: "List usable payment methods",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var items []CompletionItem
			for _, m := range catalog.PaymentMethods() {
				if m.Available {
					items = append(items, CompletionItem{Value: m.ID, Label: m.Name, Description: m.Description})
				}
			}
			return outputCompletionItems(cmd, items)
		}),
	}
}

// completeGames is a cobra ValidArgsFunction for commands taking a game.
func completeGames(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	items, err := gameCompletionItems()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, it := range items {
		if strings.HasPrefix(it.Value, toComplete) {
			out = append(out, it.Value+"\t"+it.Label)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completePaymentMethods completes the --method flag.
func completePaymentMethods(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, m := range catalog.PaymentMethods() {
		if m.Available {
			out = append(out, m.ID+"\t"+m.Name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
