package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gamex/gamex-cli/internal/api"
	"github.com/gamex/gamex-cli/internal/debug"
	"github.com/gamex/gamex-cli/internal/session"
	"github.com/gamex/gamex-cli/internal/validation"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Log in, register and manage the stored session",
		Long:    "The session token and role are stored together (OS keyring by default, or redis with GAMEX_SESSION_BACKEND=redis).",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthRegisterCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthRefreshRoleCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Example: strings.TrimSpace(`
  # Prompt for credentials
  gamex auth login

  # Non-interactive
  gamex auth login --email budi@example.com --password "$GAMEX_PASSWORD"
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var err error
			if email, err = promptIfEmpty(cmd, email, "email", "Email", false); err != nil {
				return err
			}
			if err := validation.ValidateEmail(email); err != nil {
				return &usageError{err: err}
			}
			if password, err = promptIfEmpty(cmd, password, "password", "Password", true); err != nil {
				return err
			}

			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			resp, err := client.Auth().Login(cmdContext(cmd), api.LoginRequest{
				Email:    strings.TrimSpace(email),
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			return saveSession(cmd, resp, "Logged in")
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	flagAlias(cmd.Flags(), "email", "e")

	return cmd
}

func newAuthRegisterCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var err error
			if name, err = promptIfEmpty(cmd, name, "name", "Name", false); err != nil {
				return err
			}
			if err := validation.ValidateName(name, true); err != nil {
				return &usageError{err: err}
			}
			if email, err = promptIfEmpty(cmd, email, "email", "Email", false); err != nil {
				return err
			}
			if err := validation.ValidateEmail(email); err != nil {
				return &usageError{err: err}
			}
			if password, err = promptIfEmpty(cmd, password, "password", "Password", true); err != nil {
				return err
			}
			if err := validation.ValidatePassword(password); err != nil {
				return &usageError{err: err}
			}

			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			resp, err := client.Auth().Register(cmdContext(cmd), api.RegisterRequest{
				Name:     strings.TrimSpace(name),
				Email:    strings.TrimSpace(email),
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			if resp.AccessToken == "" {
				if isJSON(cmd) {
					return printJSON(cmd, map[string]any{"registered": true, "logged_in": false, "user": resp.User})
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Registered. Run 'gamex auth login' to sign in.")
				return nil
			}
			return saveSession(cmd, resp, "Registered and logged in")
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password, at least 8 characters (prompted when omitted)")

	return cmd
}

// saveSession stores the token and role from a login or register response,
// then re-reads the role from /api/auth/me the way the app does on launch.
func saveSession(cmd *cobra.Command, resp *api.AuthResponse, verb string) error {
	if strings.TrimSpace(resp.AccessToken) == "" {
		return fmt.Errorf("%s: backend returned no access token", strings.ToLower(verb))
	}
	store, err := getStore(cmd)
	if err != nil {
		return err
	}
	if err := store.Save(resp.AccessToken); err != nil {
		return err
	}
	if err := store.SaveRole(resp.Role()); err != nil {
		return err
	}

	client, err := getClient(cmd)
	if err != nil {
		return err
	}
	role, _, err := session.RefreshRole(cmdContext(cmd), store, meRole(client))
	if err != nil {
		slog.Warn("role refresh after login failed", "error", err)
	}

	if isJSON(cmd) {
		return printJSON(cmd, map[string]any{
			"logged_in": true,
			"role":      role,
			"user":      resp.User,
		})
	}
	who := ""
	if resp.User != nil {
		who = fmt.Sprintf(" as %s <%s>", resp.User.Name, resp.User.Email)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s%s (role: %s)\n", verb, who, role)
	return nil
}

// meRole fetches the role through the client's worker.
func meRole(client *api.Client) session.RoleFetcher {
	return func(ctx context.Context) (string, error) {
		user, err := api.Call(ctx, client, client.Auth().Me)
		if err != nil {
			return "", err
		}
		return user.Role, nil
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token and role",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			store, err := getStore(cmd)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"logged_out": true})
			}
			printAction(cmd, "Logged", "out", nil, "")
			return nil
		}),
	}
}

type authStatus struct {
	LoggedIn  bool       `json:"logged_in"`
	Profile   string     `json:"profile"`
	Backend   string     `json:"backend"`
	BaseURL   string     `json:"base_url"`
	Role      string     `json:"role,omitempty"`
	Token     string     `json:"token,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired,omitempty"`
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Long:  "Shows the active profile, the cached role and, for JWT tokens, when the token expires. The token itself is redacted.",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			store, err := a.Store()
			if err != nil {
				return err
			}
			sess, err := store.Load()
			if err != nil {
				return err
			}

			status := authStatus{
				LoggedIn: sess.LoggedIn(),
				Profile:  a.cfg.Profile,
				Backend:  a.cfg.SessionBackend,
				BaseURL:  a.cfg.BaseURL,
			}
			if status.LoggedIn {
				status.Role = sess.EffectiveRole()
				status.Token = debug.Redact(sess.Token)
				if claims, ok := session.ParseClaims(sess.Token); ok {
					status.Subject = claims.Subject
					if !claims.ExpiresAt.IsZero() {
						exp := claims.ExpiresAt.UTC()
						status.ExpiresAt = &exp
						status.Expired = claims.Expired(time.Now())
					}
				}
			}

			if isJSON(cmd) {
				return printJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			if !status.LoggedIn {
				_, _ = fmt.Fprintf(out, "Not logged in (profile %s).\nRun: gamex auth login\n", status.Profile)
				return nil
			}
			w := newTabWriterFromCmd(cmd)
			_, _ = fmt.Fprintf(w, "Profile:\t%s\n", status.Profile)
			_, _ = fmt.Fprintf(w, "Backend:\t%s\n", status.Backend)
			_, _ = fmt.Fprintf(w, "Origin:\t%s\n", status.BaseURL)
			_, _ = fmt.Fprintf(w, "Role:\t%s\n", status.Role)
			_, _ = fmt.Fprintf(w, "Token:\t%s\n", status.Token)
			if status.ExpiresAt != nil {
				state := "valid"
				if status.Expired {
					state = "expired, log in again"
				}
				_, _ = fmt.Fprintf(w, "Expires:\t%s (%s)\n", status.ExpiresAt.Format(time.RFC3339), state)
			}
			return w.Flush()
		}),
	}
}

func newAuthRefreshRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-role",
		Short: "Re-read your role from the backend",
		Long:  "Fetches /api/auth/me and updates the cached role when it changed. On failure the cached role is kept.",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			store, err := getStore(cmd)
			if err != nil {
				return err
			}
			if !store.IsLoggedIn() {
				return &api.NotAuthenticatedError{}
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			role, changed, err := session.RefreshRole(cmdContext(cmd), store, meRole(client))
			if err != nil {
				return fmt.Errorf("failed to refresh role (cached role %q kept): %w", role, err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"role": role, "changed": changed})
			}
			if changed {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Role updated: %s\n", role)
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Role unchanged: %s\n", role)
			}
			return nil
		}),
	}
}
