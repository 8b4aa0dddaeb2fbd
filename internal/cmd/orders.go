package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gamex/gamex-cli/internal/api"
	"github.com/gamex/gamex-cli/internal/catalog"
	"github.com/gamex/gamex-cli/internal/cli"
	"github.com/gamex/gamex-cli/internal/display"
	"github.com/gamex/gamex-cli/internal/dryrun"
	"github.com/gamex/gamex-cli/internal/events"
	"github.com/gamex/gamex-cli/internal/outfmt"
	"github.com/gamex/gamex-cli/internal/status"
)

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order", "o", "transactions", "tx"},
		Short:   "Place and track top-up orders",
	}
	cmd.AddCommand(newOrdersCreateCmd())
	cmd.AddCommand(newOrdersStatusCmd())
	cmd.AddCommand(newOrdersRefreshCmd())
	cmd.AddCommand(newOrdersMineCmd())
	cmd.AddCommand(newOrdersListCmd())
	return cmd
}

// shortageError carries the balance breakdown of an insufficient balance
// response.
type shortageError struct {
	err      error
	required api.Money
	balance  api.Money
	shortage int64
}

func (e *shortageError) Error() string { return e.err.Error() }
func (e *shortageError) Unwrap() error { return e.err }

// withShortage decodes the 422 body of a failed order so the breakdown can be
// shown. Other errors pass through.
func withShortage(err error) error {
	var httpErr *api.HTTPError
	if !api.IsInsufficientBalance(err) || !errors.As(err, &httpErr) {
		return err
	}
	var body api.TransactionResponse
	if json.Unmarshal([]byte(httpErr.Body), &body) != nil || body.Required == "" {
		return err
	}
	shortage := int64(body.Shortage)
	if !body.InsufficientBalance() {
		shortage = body.Required.Int() - body.CurrentBalance.Int()
	}
	return &shortageError{err: err, required: body.Required, balance: body.CurrentBalance, shortage: shortage}
}

func newOrdersCreateCmd() *cobra.Command {
	var (
		game      string
		productID int
		player    string
		zone      string
	)

	cmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"buy", "new"},
		Short:   "Buy a top-up package with your wallet balance",
		Long: strings.TrimSpace(`
Places an order for one package. The price is charged to your wallet
balance straight away; the order then moves pending -> paid -> process ->
success (or failed / refund).

Creating an order is not idempotent. If a request times out, check
'gamex orders mine' before retrying.`),
		Example: strings.TrimSpace(`
  gamex orders create --game mlbb --product 12 --player 123456789 --zone 2001
  gamex orders create --game 5 --product 40 --player 800123456 --dry-run
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(game) == "" {
				return &usageError{err: fmt.Errorf("--game is required (a game name or a category id)")}
			}
			if productID <= 0 {
				return &usageError{err: fmt.Errorf("--product is required (see 'gamex products list <game>')")}
			}
			categoryID, g, err := resolveCategory(game)
			if err != nil {
				return err
			}

			if player, err = promptIfEmpty(cmd, player, "player", "Player ID", false); err != nil {
				return err
			}
			target, err := orderTarget(g, player, zone)
			if err != nil {
				return &usageError{err: err}
			}

			product, err := findProduct(cmd, categoryID, productID)
			if err != nil {
				return err
			}
			if !product.Active {
				return &usageError{err: fmt.Errorf("product %d (%s) is not available right now", product.ID, product.Label())}
			}

			req := api.TransactionRequest{
				ProductID: product.ID,
				TargetID:  target.PlayerID,
				ServerID:  target.ServerID,
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			details := map[string]any{
				"product": product.Label(),
				"price":   rupiah(product.Price),
				"player":  target.PlayerID,
			}
			if target.ServerID != "" {
				details["zone"] = target.ServerID
			}
			if g != nil {
				details["game"] = g.Name
			}
			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "place an order",
				Method:    http.MethodPost,
				URL:       client.Endpoints.Transactions(),
				Body:      req,
				Details:   details,
				Warnings:  []string{dryrun.NotIdempotent},
			}); done {
				return err
			}

			if isInteractive(cmd) {
				ok, err := confirmAction(cmd, confirmOptions{
					Prompt:        fmt.Sprintf("Buy %s for %s (player %s)? [y/N]: ", product.Label(), rupiah(product.Price), target.PlayerID),
					CancelMessage: "Order cancelled.",
				})
				if err != nil || !ok {
					return err
				}
			}

			ctx := cmdContext(cmd)
			resp, err := api.Call(ctx, client, func(ctx context.Context) (*api.TransactionResponse, error) {
				return client.Transactions().Create(ctx, req)
			})
			if err != nil {
				return fmt.Errorf("failed to place order: %w", withShortage(err))
			}
			if resp.Transaction == nil {
				return fmt.Errorf("failed to place order: backend returned no transaction")
			}
			tx := resp.Transaction
			publishOrder(cmd, events.OrderCreated, tx)

			if isJSON(cmd) {
				return printJSON(cmd, resp)
			}
			pres := status.ReduceTransaction(tx.Status)
			w := newTabWriterFromCmd(cmd)
			if resp.Message != "" {
				_, _ = fmt.Fprintf(w, "%s\n\n", resp.Message)
			}
			_, _ = fmt.Fprintf(w, "Order:\t#%d\n", tx.ID)
			_, _ = fmt.Fprintf(w, "Package:\t%s\n", product.Label())
			_, _ = fmt.Fprintf(w, "Player:\t%s\n", targetLabel(tx.TargetID, tx.ServerID))
			_, _ = fmt.Fprintf(w, "Amount:\t%s\n", rupiah(tx.Amount))
			_, _ = fmt.Fprintf(w, "Status:\t%s\n", pres.Label)
			if resp.NewBalance != "" {
				_, _ = fmt.Fprintf(w, "Balance:\t%s\n", rupiah(resp.NewBalance))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if !flags.Quiet {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nTrack it: gamex orders status %d\n", tx.ID)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&game, "game", "", "Game name or category id")
	cmd.Flags().IntVar(&productID, "product", 0, "Product id from 'gamex products list'")
	cmd.Flags().StringVar(&player, "player", "", "Player id in the game")
	cmd.Flags().StringVar(&zone, "zone", "", "Server zone, for games that use one")
	flagAlias(cmd.Flags(), "game", "category")
	flagAlias(cmd.Flags(), "player", "target")
	flagAlias(cmd.Flags(), "zone", "server")
	_ = cmd.RegisterFlagCompletionFunc("game", func(c *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return completeGames(c, nil, toComplete)
	})

	return cmd
}

// orderTarget validates the target against the game when it is known.
// For an unlisted category the zone is passed through when given.
func orderTarget(g *catalog.Game, player, zone string) (catalog.Target, error) {
	if g != nil {
		return g.ValidateTarget(player, zone)
	}
	t, err := catalog.Game{Name: "this game"}.ValidateTarget(player, "")
	if err != nil {
		return t, err
	}
	t.ServerID = strings.TrimSpace(zone)
	return t, nil
}

func targetLabel(playerID, serverID string) string {
	if serverID == "" {
		return playerID
	}
	return fmt.Sprintf("%s (%s)", playerID, serverID)
}

func publishOrder(cmd *cobra.Command, typ string, tx *api.Transaction) {
	a, err := appFrom(cmd)
	if err != nil {
		return
	}
	a.Publish(cmdContext(cmd), events.Event{
		Type:   typ,
		ID:     tx.ID,
		Status: tx.Status,
		Amount: tx.Amount.Int(),
	})
}

// orderStatusView is the JSON shape of `orders status`.
type orderStatusView struct {
	Transaction    *api.Transaction    `json:"transaction"`
	Message        string              `json:"message,omitempty"`
	Status         status.Presentation `json:"presentation"`
	PreviousStatus string              `json:"previous_status,omitempty"`
	Refreshed      bool                `json:"refreshed"`
}

func newOrdersStatusCmd() *cobra.Command {
	var followExit bool

	cmd := &cobra.Command{
		Use:   "status <order-id>",
		Short: "Re-check an order with the provider",
		Long: strings.TrimSpace(`
Loads the order and asks the backend to re-check it with the top-up provider.
Terminal states (success, failed, refund) cannot be refreshed again: such an
order is shown as stored, without a provider check.

With --follow-exit the command waits a moment after a terminal status
before returning, the way the status screen closes itself.`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0], "order")
			if err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			stored, err := api.Call(ctx, client, func(ctx context.Context) (*api.TransactionStatusResponse, error) {
				return client.Transactions().Get(ctx, id)
			})
			if err != nil {
				return fmt.Errorf("failed to load order %d: %w", id, err)
			}
			if stored.Transaction == nil {
				return fmt.Errorf("failed to load order %d: backend returned no transaction", id)
			}

			view := orderStatusView{
				Transaction:    stored.Transaction,
				Message:        stored.Message,
				PreviousStatus: stored.Transaction.Status,
			}
			if status.ReduceTransaction(view.PreviousStatus).RefreshAllowed {
				resp, err := api.Call(ctx, client, func(ctx context.Context) (*api.TransactionStatusResponse, error) {
					return client.Transactions().RefreshStatus(ctx, id)
				})
				if err != nil {
					return fmt.Errorf("failed to refresh order %d: %w", id, err)
				}
				if resp.Transaction == nil {
					return fmt.Errorf("failed to refresh order %d: backend returned no transaction", id)
				}
				view.Transaction, view.Message, view.Refreshed = resp.Transaction, resp.Message, true
				warnTransition(cmd, "order", id, view.PreviousStatus, resp.Transaction.Status, status.CanTransition)
				publishOrder(cmd, events.OrderStatus, resp.Transaction)
			}
			tx := view.Transaction
			pres := status.ReduceTransaction(tx.Status)
			view.Status = pres

			if isJSON(cmd) {
				if err := printJSON(cmd, view); err != nil {
					return err
				}
			} else {
				w := newTabWriterFromCmd(cmd)
				_, _ = fmt.Fprintf(w, "Order:\t#%d\n", tx.ID)
				if tx.Product != nil {
					_, _ = fmt.Fprintf(w, "Package:\t%s\n", tx.Product.Label())
				}
				_, _ = fmt.Fprintf(w, "Player:\t%s\n", targetLabel(tx.TargetID, tx.ServerID))
				_, _ = fmt.Fprintf(w, "Amount:\t%s\n", rupiah(tx.Amount))
				_, _ = fmt.Fprintf(w, "Status:\t%s\n", pres.Label)
				if tx.UpdatedAt != "" {
					_, _ = fmt.Fprintf(w, "Updated:\t%s\n", display.FormatTimestamp(tx.UpdatedAt))
				}
				if err := w.Flush(); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", pres.Message)
				if view.Message != "" && view.Message != pres.Message {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), view.Message)
				}
				if !view.Refreshed {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Order is final; not re-checked with the provider.")
				}
			}

			if followExit && pres.Terminal {
				return sleepCtx(ctx, status.ExitDelay)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&followExit, "follow-exit", false, "Pause briefly after a terminal status before exiting")
	return cmd
}

// warnTransition notes on stderr a status change the state machine does not
// allow. Unknown statuses pass silently.
func warnTransition(cmd *cobra.Command, kind string, id int, from, to string, allowed func(from, to string) bool) {
	if from == "" || to == "" || from == to || allowed(from, to) {
		return
	}
	known := func(s string) bool {
		return status.ParseTransaction(s) != status.TxUnknown || status.ParseDeposit(s) != status.DepUnknown
	}
	if !known(from) || !known(to) {
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s %d moved from %q to %q, which is not an expected transition.\n", kind, id, from, to)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newOrdersRefreshCmd() *cobra.Command {
	var concurrency int64
	var progress bool

	cmd := &cobra.Command{
		Use:   "refresh <order-id>...",
		Short: "Re-check several orders at once",
		Example: strings.TrimSpace(`
  gamex orders refresh 101 102 103
  gamex orders refresh 101,102,103 --concurrency 2
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args, "order")
			if err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			var progressOut = cmd.ErrOrStderr()
			if !progress || isJSON(cmd) || flags.Quiet {
				progressOut = nil
			}
			results := runBulkOperation(cmdContext(cmd), ids, concurrency, progressOut,
				func(ctx context.Context, id int) (*api.Transaction, error) {
					resp, err := client.Transactions().RefreshStatus(ctx, id)
					if err != nil {
						return nil, err
					}
					if resp.Transaction == nil {
						return nil, fmt.Errorf("backend returned no transaction")
					}
					publishOrder(cmd, events.OrderStatus, resp.Transaction)
					return resp.Transaction, nil
				})
			return printBulkResults(cmd, results, func(r BulkResult) []string {
				tx, _ := r.Data.(*api.Transaction)
				if tx == nil {
					return []string{strconv.Itoa(r.ID), "-", "-", r.Error}
				}
				pres := status.ReduceTransaction(tx.Status)
				return []string{strconv.Itoa(r.ID), pres.Label, rupiah(tx.Amount), pres.Message}
			}, []string{"ID", "STATUS", "AMOUNT", "MESSAGE"})
		}),
	}

	cmd.Flags().Int64Var(&concurrency, "concurrency", DefaultConcurrency, "Maximum parallel requests")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show progress on stderr")
	return cmd
}

// printBulkResults prints one row per result and fails when every
// operation failed.
func printBulkResults(cmd *cobra.Command, results []BulkResult, row func(BulkResult) []string, header []string) error {
	success, failure := countResults(results)
	if isJSON(cmd) {
		if err := printJSON(cmd, map[string]any{
			"results":   results,
			"succeeded": success,
			"failed":    failure,
		}); err != nil {
			return err
		}
	} else {
		w := newTabWriterFromCmd(cmd)
		_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
		for _, r := range results {
			_, _ = fmt.Fprintln(w, strings.Join(row(r), "\t"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if !flags.Quiet {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d succeeded, %d failed\n", success, failure)
		}
	}
	if success == 0 && failure > 0 {
		return firstError(results)
	}
	return nil
}

func newOrdersMineCmd() *cobra.Command {
	var (
		since string
		light bool
	)

	cmd := &cobra.Command{
		Use:     "mine",
		Aliases: []string{"history", "my"},
		Short:   "List your orders",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			cutoff, err := parseSinceFlag(since)
			if err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			page, err := api.Call(cmdContext(cmd), client, client.Transactions().Mine)
			if err != nil {
				return fmt.Errorf("failed to list orders: %w", err)
			}
			filterSince(page, cutoff)
			if light {
				return printLightOrders(cmd, page)
			}
			return printTransactions(cmd, page, false)
		}),
	}

	cmd.Flags().StringVar(&since, "since", "", "Only orders created since (e.g. 24h, 7d, yesterday, 2025-01-31)")
	cmd.Flags().BoolVar(&light, "light", false, "Print compact JSON rows (id, short status, amount, player)")
	flagAlias(cmd.Flags(), "light", "li")
	return cmd
}

func newOrdersListCmd() *cobra.Command {
	var (
		page  int
		since string
		light bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every order (admin)",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if page <= 0 {
				return &usageError{err: fmt.Errorf("--page must be a positive integer")}
			}
			cutoff, err := parseSinceFlag(since)
			if err != nil {
				return err
			}
			if err := requireAdmin(cmd); err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			result, err := api.Call(cmdContext(cmd), client, func(ctx context.Context) (*api.Paginated[api.Transaction], error) {
				return client.Transactions().List(ctx, page)
			})
			if err != nil {
				return fmt.Errorf("failed to list orders: %w", err)
			}
			filterSince(result, cutoff)
			if light {
				return printLightOrders(cmd, result)
			}
			return printTransactions(cmd, result, true)
		}),
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().StringVar(&since, "since", "", "Only orders on this page created since the given time")
	cmd.Flags().BoolVar(&light, "light", false, "Print compact JSON rows (id, short status, amount, player)")
	flagAlias(cmd.Flags(), "light", "li")
	return cmd
}

type lightOrder struct {
	ID      int    `json:"id"`
	Status  string `json:"st"`
	Amount  int64  `json:"amt"`
	Target  string `json:"tgt"`
	Created string `json:"at,omitempty"`
}

// printLightOrders writes one compact record per order. It is always JSON;
// --query and --template still apply under --json.
func printLightOrders(cmd *cobra.Command, page *api.Paginated[api.Transaction]) error {
	warnInvalidPage(cmd, page)
	rows := make([]lightOrder, 0, len(page.Data))
	for _, tx := range page.Data {
		rows = append(rows, lightOrder{
			ID:      tx.ID,
			Status:  status.Short(tx.Status),
			Amount:  tx.Amount.Int(),
			Target:  targetLabel(tx.TargetID, tx.ServerID),
			Created: tx.CreatedAt,
		})
	}
	if isJSON(cmd) {
		return printJSON(cmd, rows)
	}
	return outfmt.WriteJSONMaybeCompact(cmd.OutOrStdout(), map[string]any{"items": rows}, true)
}

func parseSinceFlag(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := cli.ParseSince(raw, time.Now())
	if err != nil {
		return time.Time{}, &usageError{err: err}
	}
	return t, nil
}

// filterSince drops rows created before cutoff, and rows whose timestamp
// can't be read. A zero cutoff keeps everything.
func filterSince(page *api.Paginated[api.Transaction], cutoff time.Time) {
	if page == nil || cutoff.IsZero() {
		return
	}
	page.Data = slices.DeleteFunc(page.Data, func(tx api.Transaction) bool {
		created, ok := display.ParseTimestamp(tx.CreatedAt)
		return !ok || created.Before(cutoff)
	})
}

func printTransactions(cmd *cobra.Command, page *api.Paginated[api.Transaction], withUser bool) error {
	warnInvalidPage(cmd, page)
	if isJSON(cmd) {
		return printJSON(cmd, page)
	}
	out := cmd.OutOrStdout()
	if len(page.Data) == 0 {
		_, _ = fmt.Fprintln(out, "No orders found")
		return nil
	}

	w := newTabWriterFromCmd(cmd)
	if withUser {
		_, _ = fmt.Fprintln(w, "ID\tUSER\tPACKAGE\tPLAYER\tAMOUNT\tSTATUS\tCREATED")
	} else {
		_, _ = fmt.Fprintln(w, "ID\tPACKAGE\tPLAYER\tAMOUNT\tSTATUS\tCREATED")
	}
	for _, tx := range page.Data {
		pkg := fmt.Sprintf("product %d", tx.ProductID)
		if tx.Product != nil {
			pkg = tx.Product.Label()
		}
		cols := []string{
			strconv.Itoa(tx.ID),
			pkg,
			targetLabel(tx.TargetID, tx.ServerID),
			rupiah(tx.Amount),
			status.ReduceTransaction(tx.Status).Label,
			display.FormatTimestamp(tx.CreatedAt),
		}
		if withUser {
			cols = slices.Insert(cols, 1, strconv.Itoa(tx.UserID))
		}
		_, _ = fmt.Fprintln(w, strings.Join(cols, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if page.LastPage > 1 && !flags.Quiet {
		_, _ = fmt.Fprintf(out, "\nPage %d of %d (%d total)", page.CurrentPage, page.LastPage, page.Total)
		if page.HasNextPage() {
			_, _ = fmt.Fprintf(out, ", next: --page %d", page.CurrentPage+1)
		}
		_, _ = fmt.Fprintln(out)
	}
	return nil
}
