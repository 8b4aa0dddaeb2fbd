package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gamex/gamex-cli/internal/api"
	"github.com/gamex/gamex-cli/internal/display"
	"github.com/gamex/gamex-cli/internal/dryrun"
	"github.com/gamex/gamex-cli/internal/validation"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer the store (admin accounts only)",
	}

	users := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user", "u"},
		Short:   "Manage user accounts",
	}
	users.AddCommand(newAdminUsersListCmd())
	users.AddCommand(newAdminUsersCreateCmd())
	users.AddCommand(newAdminUsersUpdateCmd())
	users.AddCommand(newAdminUsersToggleRoleCmd())
	users.AddCommand(newAdminUsersDeleteCmd())
	cmd.AddCommand(users)

	return cmd
}

func newAdminUsersListCmd() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if page <= 0 {
				return &usageError{err: fmt.Errorf("--page must be a positive integer")}
			}
			if err := requireAdmin(cmd); err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			result, err := api.Call(cmdContext(cmd), client, func(ctx context.Context) (*api.Paginated[api.User], error) {
				return client.Admin().Users(ctx, page)
			})
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}
			warnInvalidPage(cmd, result)
			if isJSON(cmd) {
				return printJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			if len(result.Data) == 0 {
				_, _ = fmt.Fprintln(out, "No users found")
				return nil
			}
			w := newTabWriterFromCmd(cmd)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tBALANCE\tJOINED")
			for _, u := range result.Data {
				role := u.Role
				if role == "" {
					role = api.RoleUser
				}
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					u.ID, u.Name, u.Email, role, rupiah(u.Balance), display.FormatTimestamp(u.CreatedAt))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if result.LastPage > 1 && !flags.Quiet {
				_, _ = fmt.Fprintf(out, "\nPage %d of %d (%d users)\n", result.CurrentPage, result.LastPage, result.Total)
			}
			return nil
		}),
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

func newAdminUsersCreateCmd() *cobra.Command {
	var name, email, password, phone string
	var admin bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Example: strings.TrimSpace(`
  gamex admin users create --name "Siti" --email siti@example.com --password "$PW"
  gamex admin users create --name Ops --email ops@example.com --password "$PW" --admin
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if err := validation.ValidateName(name, true); err != nil {
				return &usageError{err: err}
			}
			if err := validation.ValidateEmail(email); err != nil {
				return &usageError{err: err}
			}
			var err error
			if password, err = promptIfEmpty(cmd, password, "password", "Password", true); err != nil {
				return err
			}
			if err := validation.ValidatePassword(password); err != nil {
				return &usageError{err: err}
			}
			if err := validation.ValidatePhoneFormat(phone); err != nil {
				return &usageError{err: err}
			}
			if err := requireAdmin(cmd); err != nil {
				return err
			}

			req := api.CreateUserRequest{
				Name:     strings.TrimSpace(name),
				Email:    strings.TrimSpace(email),
				Password: password,
				Phone:    strings.TrimSpace(phone),
			}
			if admin {
				req.Role = api.RoleAdmin
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			preview := req
			preview.Password = "[REDACTED]"
			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "create a user",
				Method:    http.MethodPost,
				URL:       client.Endpoints.AdminUsers(),
				Body:      preview,
			}); done {
				return err
			}

			user, err := api.Call(cmdContext(cmd), client, func(ctx context.Context) (*api.User, error) {
				return client.Admin().CreateUser(ctx, req)
			})
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, user)
			}
			printAction(cmd, "Created", "user", user.ID, user.Email)
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Initial password (prompted when omitted)")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().BoolVar(&admin, "admin", false, "Create the user as an admin")
	return cmd
}

func newAdminUsersUpdateCmd() *cobra.Command {
	var name, email, phone, balance string

	cmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Edit a user's profile or balance",
		Long:  "Only the flags you pass are sent. --balance sets the wallet balance, it does not add to it.",
		Example: strings.TrimSpace(`
  gamex admin users update 42 --name "Siti Rahma"
  gamex admin users update 42 --balance "Rp 150.000"
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0], "user")
			if err != nil {
				return err
			}

			var req api.UpdateUserRequest
			if cmd.Flags().Changed("name") {
				if err := validation.ValidateName(name, true); err != nil {
					return &usageError{err: err}
				}
				req.Name = strings.TrimSpace(name)
			}
			if cmd.Flags().Changed("email") {
				if err := validation.ValidateEmail(email); err != nil {
					return &usageError{err: err}
				}
				req.Email = strings.TrimSpace(email)
			}
			if cmd.Flags().Changed("phone") {
				if err := validation.ValidatePhoneFormat(phone); err != nil {
					return &usageError{err: err}
				}
				req.Phone = strings.TrimSpace(phone)
			}
			if cmd.Flags().Changed("balance") {
				amount, err := validation.ParseAmount(balance)
				if err != nil || amount < 0 {
					return &usageError{err: fmt.Errorf("invalid balance %q", balance)}
				}
				req.Balance = strconv.FormatInt(amount, 10)
			}
			if req == (api.UpdateUserRequest{}) {
				return &usageError{err: fmt.Errorf("nothing to update: pass at least one of --name, --email, --phone, --balance")}
			}
			if err := requireAdmin(cmd); err != nil {
				return err
			}

			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: fmt.Sprintf("update user %d", id),
				Method:    http.MethodPut,
				URL:       client.Endpoints.AdminUser(id),
				Body:      req,
			}); done {
				return err
			}

			user, err := api.Call(cmdContext(cmd), client, func(ctx context.Context) (*api.User, error) {
				return client.Admin().UpdateUser(ctx, id, req)
			})
			if err != nil {
				return fmt.Errorf("failed to update user %d: %w", id, err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, user)
			}
			printAction(cmd, "Updated", "user", id, user.Email)
			if req.Balance != "" && !flags.Quiet {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Balance: %s\n", rupiah(user.Balance))
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&email, "email", "", "New email")
	cmd.Flags().StringVar(&phone, "phone", "", "New phone number")
	cmd.Flags().StringVar(&balance, "balance", "", "New wallet balance in rupiah")
	return cmd
}

func newAdminUsersToggleRoleCmd() *cobra.Command {
	var concurrency int64

	cmd := &cobra.Command{
		Use:   "toggle-role <user-id>...",
		Short: "Switch users between user and admin",
		Example: strings.TrimSpace(`
  gamex admin users toggle-role 42
  gamex admin users toggle-role 42,43,44 --yes
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args, "user")
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
			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: fmt.Sprintf("toggle the role of %d user(s)", len(ids)),
				Method:    http.MethodPatch,
				URL:       client.Endpoints.AdminUserToggleRole(ids[0]),
				Details:   map[string]any{"user_ids": ids},
			}); done {
				return err
			}
			if len(ids) > 1 {
				ok, err := confirmAction(cmd, confirmOptions{
					Prompt:        fmt.Sprintf("Toggle the role of %d users? [y/N]: ", len(ids)),
					CancelMessage: "Cancelled.",
				})
				if err != nil || !ok {
					return err
				}
			}

			results := runBulkOperation(cmdContext(cmd), ids, concurrency, nil,
				func(ctx context.Context, id int) (*api.User, error) {
					resp, err := client.Admin().ToggleRole(ctx, id)
					if err != nil {
						return nil, err
					}
					return resp.User, nil
				})
			return printBulkResults(cmd, results, func(r BulkResult) []string {
				u, _ := r.Data.(*api.User)
				if u == nil {
					if r.Success {
						return []string{strconv.Itoa(r.ID), "-", "-", "toggled"}
					}
					return []string{strconv.Itoa(r.ID), "-", "-", r.Error}
				}
				return []string{strconv.Itoa(r.ID), u.Email, u.Role, "toggled"}
			}, []string{"ID", "EMAIL", "ROLE", "RESULT"})
		}),
	}

	cmd.Flags().Int64Var(&concurrency, "concurrency", DefaultConcurrency, "Maximum parallel requests")
	return cmd
}

func newAdminUsersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <user-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a user",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0], "user")
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
			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: fmt.Sprintf("delete user %d", id),
				Method:    http.MethodDelete,
				URL:       client.Endpoints.AdminUser(id),
				Warnings:  []string{"the user's orders and deposits stay on the backend"},
			}); done {
				return err
			}
			ok, err := confirmAction(cmd, confirmOptions{
				Prompt:        fmt.Sprintf("Delete user %d? This cannot be undone. [y/N]: ", id),
				CancelMessage: "Cancelled.",
			})
			if err != nil || !ok {
				return err
			}

			msg, err := api.Call(cmdContext(cmd), client, func(ctx context.Context) (string, error) {
				return client.Admin().DeleteUser(ctx, id)
			})
			if err != nil {
				return fmt.Errorf("failed to delete user %d: %w", id, err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"id": id, "deleted": true, "message": msg})
			}
			printAction(cmd, "Deleted", "user", id, "")
			return nil
		}),
	}
}
