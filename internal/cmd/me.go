package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gamex/gamex-cli/internal/api"
	"github.com/gamex/gamex-cli/internal/display"
	"github.com/gamex/gamex-cli/internal/session"
)

func newMeCmd() *cobra.Command {
	var balanceOnly bool

	cmd := &cobra.Command{
		Use:     "me",
		Aliases: []string{"profile", "whoami"},
		Short:   "Show your profile and balance",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			user, err := api.Call(ctx, client, client.Auth().Me)
			if err != nil {
				return fmt.Errorf("failed to load profile: %w", err)
			}

			// The profile carries the role, so keep the cached one current.
			if store, err := getStore(cmd); err == nil {
				_, _, err := session.RefreshRole(ctx, store, func(context.Context) (string, error) {
					return user.Role, nil
				})
				if err != nil {
					slog.Warn("failed to cache role", "error", err)
				}
			}

			if balanceOnly {
				if isJSON(cmd) {
					return printJSON(cmd, map[string]any{"balance": user.Balance})
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), rupiah(user.Balance))
				return nil
			}

			if isJSON(cmd) {
				return printJSON(cmd, user)
			}

			w := newTabWriterFromCmd(cmd)
			_, _ = fmt.Fprintf(w, "Name:\t%s\n", user.Name)
			_, _ = fmt.Fprintf(w, "Email:\t%s\n", user.Email)
			if user.Phone != "" {
				_, _ = fmt.Fprintf(w, "Phone:\t%s\n", user.Phone)
			}
			role := user.Role
			if role == "" {
				role = session.RoleUser
			}
			_, _ = fmt.Fprintf(w, "Role:\t%s\n", role)
			_, _ = fmt.Fprintf(w, "Balance:\t%s\n", rupiah(user.Balance))
			if user.CreatedAt != "" {
				_, _ = fmt.Fprintf(w, "Member since:\t%s\n", display.FormatTimestamp(user.CreatedAt))
			}
			return w.Flush()
		}),
	}

	cmd.Flags().BoolVar(&balanceOnly, "balance", false, "Print only the wallet balance")
	return cmd
}
