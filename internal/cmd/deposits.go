package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gamex/gamex-cli/internal/api"
	"github.com/gamex/gamex-cli/internal/cache"
	"github.com/gamex/gamex-cli/internal/catalog"
	"github.com/gamex/gamex-cli/internal/display"
	"github.com/gamex/gamex-cli/internal/dryrun"
	"github.com/gamex/gamex-cli/internal/events"
	"github.com/gamex/gamex-cli/internal/status"
	"github.com/gamex/gamex-cli/internal/validation"
)

func newDepositsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deposits",
		Aliases: []string{"deposit", "d"},
		Short:   "Add money to your wallet with QRIS",
	}
	cmd.AddCommand(newDepositsCreateCmd())
	cmd.AddCommand(newDepositsStatusCmd())
	cmd.AddCommand(newDepositsMethodsCmd())
	return cmd
}

// parseTopupAmount accepts "50000", "50.000" or "Rp 50.000" and enforces the
// configured minimum.
func parseTopupAmount(cmd *cobra.Command, raw string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, &usageError{err: fmt.Errorf("--amount is required")}
	}
	amount, err := validation.ParseAmount(raw)
	if err != nil {
		return 0, &usageError{err: err}
	}
	a, err := appFrom(cmd)
	if err != nil {
		return 0, err
	}
	if err := validation.ValidateAmount(amount, a.cfg.MinTopup); err != nil {
		return 0, &usageError{err: err}
	}
	return amount, nil
}

func publishDeposit(cmd *cobra.Command, typ string, resp *api.DepositResponse, amount int64) {
	a, err := appFrom(cmd)
	if err != nil || resp.Data == nil || resp.Data.Deposit == nil {
		return
	}
	dep := resp.Data.Deposit
	if total := dep.TotalAmount.Int(); total != 0 {
		amount = total
	}
	a.Publish(cmdContext(cmd), events.Event{
		Type:   typ,
		ID:     dep.ID,
		Status: resp.EffectiveStatus(),
		Amount: amount,
	})
}

// rememberDepositStatus records the status this run saw, so the next
// `deposits status` can tell whether the move made sense.
func rememberDepositStatus(cmd *cobra.Command, resp *api.DepositResponse) {
	a, err := appFrom(cmd)
	if err != nil || resp.Data == nil || resp.Data.Deposit == nil {
		return
	}
	st := resp.EffectiveStatus()
	if st == "" {
		return
	}
	a.Cache().Put(cmdContext(cmd), cache.DepositStatusKey(resp.Data.Deposit.ID), st)
}

func lastDepositStatus(cmd *cobra.Command, id int) string {
	a, err := appFrom(cmd)
	if err != nil {
		return ""
	}
	var st string
	if !a.Cache().Get(cmdContext(cmd), cache.DepositStatusKey(id), &st) {
		return ""
	}
	return st
}

// writeDeposit prints a deposit with its payment instructions.
func writeDeposit(cmd *cobra.Command, resp *api.DepositResponse) error {
	out := cmd.OutOrStdout()
	if resp.Data == nil || resp.Data.Deposit == nil {
		if resp.Message != "" {
			_, _ = fmt.Fprintln(out, resp.Message)
		}
		return nil
	}
	dep := resp.Data.Deposit
	pres := status.ReduceDeposit(resp.EffectiveStatus())

	w := newTabWriterFromCmd(cmd)
	_, _ = fmt.Fprintf(w, "Deposit:\t#%d\n", dep.ID)
	_, _ = fmt.Fprintf(w, "Amount:\t%s\n", rupiah(dep.Amount))
	if dep.RandomAmount != 0 {
		_, _ = fmt.Fprintf(w, "Unique code:\t+%d\n", int(dep.RandomAmount))
	}
	if dep.TotalAmount != "" {
		_, _ = fmt.Fprintf(w, "Pay exactly:\t%s\n", rupiah(dep.TotalAmount))
	}
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", pres.Label)
	if dep.PaidAt != "" {
		_, _ = fmt.Fprintf(w, "Paid:\t%s\n", display.FormatTimestamp(dep.PaidAt))
	}
	if dep.CancelledAt != "" {
		_, _ = fmt.Fprintf(w, "Cancelled:\t%s\n", display.FormatTimestamp(dep.CancelledAt))
	}
	if url := resp.Data.QRISImageURL; url != "" && !pres.Terminal {
		_, _ = fmt.Fprintf(w, "QR code:\t%s\n", url)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !pres.Terminal && len(resp.Data.Instructions) > 0 {
		_, _ = fmt.Fprintln(out, "\nHow to pay:")
		for i, step := range resp.Data.Instructions {
			_, _ = fmt.Fprintf(out, "  %d. %s\n", i+1, step)
		}
	}
	_, _ = fmt.Fprintf(out, "\n%s\n", pres.Message)
	if pres.RefreshAllowed && !flags.Quiet {
		_, _ = fmt.Fprintf(out, "Check payment: gamex deposits status %d\n", dep.ID)
	}
	return nil
}

func newDepositsCreateCmd() *cobra.Command {
	var amountRaw string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a QRIS deposit",
		Long: strings.TrimSpace(`
Opens a deposit and prints the QRIS code to pay. The backend adds a small
unique code to the amount; pay the exact total shown.

Creating a deposit is not idempotent.`),
		Example: strings.TrimSpace(`
  gamex deposits create --amount 50000
  gamex deposits create --amount "Rp 100.000" -o json
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			amount, err := parseTopupAmount(cmd, amountRaw)
			if err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "open a deposit",
				Method:    http.MethodPost,
				URL:       client.Endpoints.Deposits(),
				Body:      api.DepositRequest{Amount: amount},
				Details:   map[string]any{"amount": display.FormatRupiah(amount)},
				Warnings:  []string{dryrun.NotIdempotent},
			}); done {
				return err
			}

			resp, err := api.Call(cmdContext(cmd), client, func(ctx context.Context) (*api.DepositResponse, error) {
				return client.Deposits().Create(ctx, amount)
			})
			if err != nil {
				return fmt.Errorf("failed to create deposit: %w", err)
			}
			publishDeposit(cmd, events.DepositCreated, resp, amount)
			rememberDepositStatus(cmd, resp)

			if isJSON(cmd) {
				return printJSON(cmd, resp)
			}
			return writeDeposit(cmd, resp)
		}),
	}

	cmd.Flags().StringVar(&amountRaw, "amount", "", "Amount in rupiah")
	flagAlias(cmd.Flags(), "amount", "a")
	return cmd
}

func newDepositsStatusCmd() *cobra.Command {
	var followExit bool

	cmd := &cobra.Command{
		Use:   "status <deposit-id>",
		Short: "Check whether a deposit was paid",
		Long: strings.TrimSpace(`
Asks the backend to re-check the deposit with the payment gateway. Success
and cancelled are terminal. The last status seen for each deposit is kept in
the cache; a move the deposit flow does not allow is reported on stderr.`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0], "deposit")
			if err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			prev := lastDepositStatus(cmd, id)
			resp, err := api.Call(ctx, client, func(ctx context.Context) (*api.DepositResponse, error) {
				return client.Deposits().RefreshStatus(ctx, id)
			})
			if err != nil {
				return fmt.Errorf("failed to check deposit %d: %w", id, err)
			}
			warnTransition(cmd, "deposit", id, prev, resp.EffectiveStatus(), status.CanTransitionDeposit)
			rememberDepositStatus(cmd, resp)
			publishDeposit(cmd, events.DepositStatus, resp, 0)
			pres := status.ReduceDeposit(resp.EffectiveStatus())

			if isJSON(cmd) {
				if err := printJSON(cmd, map[string]any{
					"deposit":      resp.Data,
					"message":      resp.Message,
					"presentation": pres,
				}); err != nil {
					return err
				}
			} else if err := writeDeposit(cmd, resp); err != nil {
				return err
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

func newDepositsMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List payment methods",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			methods := catalog.PaymentMethods()
			if isJSON(cmd) {
				return printJSON(cmd, methods)
			}
			w := newTabWriterFromCmd(cmd)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION\tAVAILABLE")
			for _, m := range methods {
				available := "yes"
				if !m.Available {
					available = "coming soon"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Description, available)
			}
			return w.Flush()
		}),
	}
}

func newTopupCmd() *cobra.Command {
	var amountRaw, method string

	cmd := &cobra.Command{
		Use:   "topup",
		Short: "Top up your balance through a payment method",
		Long: strings.TrimSpace(`
Requests a balance top-up. Only QRIS is settled today; the other methods are
listed by 'gamex deposits methods' but cannot be used yet.`),
		Example: strings.TrimSpace(`
  gamex topup --amount 25000
  gamex topup --amount 25000 --method qris --dry-run
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			amount, err := parseTopupAmount(cmd, amountRaw)
			if err != nil {
				return err
			}
			pm, err := catalog.LookupPaymentMethod(method)
			if err != nil {
				return &usageError{err: err}
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "request a top-up",
				Method:    http.MethodPost,
				URL:       client.Endpoints.Topup(),
				Body:      api.TopupRequest{Amount: amount, PaymentMethod: pm.ID},
				Details:   map[string]any{"amount": display.FormatRupiah(amount), "method": pm.Name},
				Warnings:  []string{dryrun.NotIdempotent},
			}); done {
				return err
			}

			resp, err := api.Call(cmdContext(cmd), client, func(ctx context.Context) (*api.DepositResponse, error) {
				return client.Deposits().Topup(ctx, amount, pm.ID)
			})
			if err != nil {
				return fmt.Errorf("failed to top up: %w", err)
			}
			publishDeposit(cmd, events.TopupCreated, resp, amount)
			rememberDepositStatus(cmd, resp)

			if isJSON(cmd) {
				return printJSON(cmd, resp)
			}
			if resp.Data == nil && resp.Message == "" {
				printAction(cmd, "Requested", "top-up of", display.FormatRupiah(amount), pm.Name)
				return nil
			}
			return writeDeposit(cmd, resp)
		}),
	}

	cmd.Flags().StringVar(&amountRaw, "amount", "", "Amount in rupiah")
	cmd.Flags().StringVar(&method, "method", catalog.DefaultPaymentMethod, "Payment method (see 'gamex deposits methods')")
	flagAlias(cmd.Flags(), "amount", "a")
	_ = cmd.RegisterFlagCompletionFunc("method", completePaymentMethods)
	return cmd
}
