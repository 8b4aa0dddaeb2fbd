package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gamex/gamex-cli/internal/api"
	"github.com/gamex/gamex-cli/internal/display"
	"github.com/gamex/gamex-cli/internal/dryrun"
	"github.com/gamex/gamex-cli/internal/iocontext"
	"github.com/gamex/gamex-cli/internal/outfmt"
	"github.com/gamex/gamex-cli/internal/session"
)

// getJQQuery returns the jq query from --jq or --query flags.
// --jq takes precedence over --query for consistency with gh CLI.
func getJQQuery() string {
	if flags.JQ != "" {
		return flags.JQ
	}
	return flags.Query
}

func getClient(cmd *cobra.Command) (*api.Client, error) {
	a, err := appFrom(cmd)
	if err != nil {
		return nil, err
	}
	return a.Client(), nil
}

func getStore(cmd *cobra.Command) (session.Store, error) {
	a, err := appFrom(cmd)
	if err != nil {
		return nil, err
	}
	return a.Store()
}

// requireAdmin fails fast when the cached role is not admin. The backend
// still enforces the role; this only saves a round trip.
func requireAdmin(cmd *cobra.Command) error {
	store, err := getStore(cmd)
	if err != nil {
		return err
	}
	if !store.IsLoggedIn() {
		return &api.NotAuthenticatedError{}
	}
	if !store.IsAdmin() {
		return api.NewStructuredError(api.ErrForbidden, "this command requires an admin account (run 'gamex auth refresh-role' if your role changed)")
	}
	return nil
}

func newTabWriterFromCmd(cmd *cobra.Command) *tabwriter.Writer {
	ioStreams := iocontext.GetIO(cmd.Context())
	return tabwriter.NewWriter(ioStreams.Out, 0, 4, 2, ' ', 0)
}

// printJSON outputs data as JSON with optional query/template filtering
func printJSON(cmd *cobra.Command, v any) error {
	ioStreams := iocontext.GetIO(cmd.Context())
	return outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut).Output(v)
}

// isJSON checks if the command context wants JSON output
func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

func printAction(cmd *cobra.Command, action, resource string, id any, name string) {
	if flags.Quiet || isJSON(cmd) {
		return
	}
	ioStreams := iocontext.GetIO(cmd.Context())
	message := fmt.Sprintf("%s %s", action, resource)
	if id != nil {
		message = fmt.Sprintf("%s %v", message, id)
	}
	if name != "" {
		message = fmt.Sprintf("%s: %s", message, name)
	}
	_, _ = fmt.Fprintln(ioStreams.Out, message)
}

// cmdContext returns the command context
func cmdContext(cmd *cobra.Command) context.Context {
	return cmd.Context()
}

func rupiah(m api.Money) string {
	return display.FormatRupiah(m.Int())
}

// warnInvalidPage notes on stderr a page that breaks the pagination
// invariant, such as a --page past the last page.
func warnInvalidPage[T any](cmd *cobra.Command, p *api.Paginated[T]) {
	if p == nil || p.Valid() {
		return
	}
	errOut := cmd.ErrOrStderr()
	if p.CurrentPage > p.LastPage {
		_, _ = fmt.Fprintf(errOut, "Warning: page %d is past the last page (%d).\n", p.CurrentPage, p.LastPage)
		return
	}
	_, _ = fmt.Fprintf(errOut, "Warning: inconsistent page from the backend (page %d of %d, %d rows for %d per page).\n",
		p.CurrentPage, p.LastPage, len(p.Data), p.PerPage)
}

func maybeDryRun(cmd *cobra.Command, preview *dryrun.Preview) (bool, error) {
	if !dryrun.IsEnabled(cmd.Context()) {
		return false, nil
	}
	if isJSON(cmd) {
		return true, printJSON(cmd, map[string]any{
			"dry_run": true,
			"preview": preview,
		})
	}
	preview.Write(iocontext.GetIO(cmd.Context()).Out)
	return true, nil
}

// aliasBridgeValue wraps a pflag.Value so that Set() on the alias also
// marks the canonical flag as Changed. This lets aliases satisfy Cobra's
// MarkFlagRequired check transparently.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

// flagAlias registers a hidden alias for an existing flag. Both flags share
// the same underlying Value, so setting either one sets both.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}
	a := *f
	a.Name = alias
	a.Shorthand = ""
	a.Usage = ""
	a.Hidden = true
	a.Value = &aliasBridgeValue{Value: f.Value, canonical: f}
	ann := map[string][]string{"alias-of": {name}}
	for k, v := range f.Annotations {
		if k == cobra.BashCompOneRequiredFlag {
			continue
		}
		ann[k] = v
	}
	a.Annotations = ann
	fs.AddFlag(&a)
}

// flagOrAliasChanged returns true if the named flag or any of its
// hidden aliases was explicitly set by the user.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) || cmd.InheritedFlags().Changed(name) {
		return true
	}
	aliasChanged := func(fs *pflag.FlagSet) bool {
		found := false
		fs.VisitAll(func(f *pflag.Flag) {
			if found {
				return
			}
			if ann, ok := f.Annotations["alias-of"]; ok && len(ann) > 0 && ann[0] == name && fs.Changed(f.Name) {
				found = true
			}
		})
		return found
	}
	return aliasChanged(cmd.Flags()) || aliasChanged(cmd.InheritedFlags())
}

func isInteractive(cmd *cobra.Command) bool {
	if flags.NoInput || flags.Yes {
		return false
	}
	if forceInteractive() {
		return true
	}
	return iocontext.GetIO(cmd.Context()).IsInteractive()
}

func forceInteractive() bool {
	enabled, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("GAMEX_FORCE_INTERACTIVE")))
	return err == nil && enabled
}

// promptIfEmpty returns value, or asks for it when it is empty and a
// terminal is attached. flagName is used in the error otherwise.
func promptIfEmpty(cmd *cobra.Command, value, flagName, label string, secret bool) (string, error) {
	if strings.TrimSpace(value) != "" {
		return value, nil
	}
	if !isInteractive(cmd) {
		return "", &usageError{err: fmt.Errorf("--%s is required", flagName)}
	}
	ioStreams := iocontext.GetIO(cmd.Context())
	if secret {
		return ioStreams.PromptSecret(label + ": ")
	}
	return ioStreams.Prompt(label + ": ")
}

type confirmOptions struct {
	Prompt        string
	CancelMessage string
}

// confirmAction asks for a y/N answer. --yes confirms; non-interactive runs
// without --yes are refused rather than silently confirmed.
func confirmAction(cmd *cobra.Command, opts confirmOptions) (bool, error) {
	if flags.Yes {
		return true, nil
	}
	if !isInteractive(cmd) {
		return false, &usageError{err: fmt.Errorf("confirmation required: re-run with --yes")}
	}
	ioStreams := iocontext.GetIO(cmd.Context())
	answer, err := ioStreams.Prompt(opts.Prompt)
	if err != nil {
		return false, nil
	}
	if a := strings.ToLower(answer); a != "y" && a != "yes" {
		if opts.CancelMessage != "" {
			_, _ = fmt.Fprintln(ioStreams.ErrOut, opts.CancelMessage)
		}
		return false, nil
	}
	return true, nil
}

// parseIDArgs parses positional ids, also accepting comma separated lists
// ("1,2 3").
func parseIDArgs(args []string, label string) ([]int, error) {
	var ids []int
	seen := make(map[int]bool)
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "#"))
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil || id <= 0 {
				return nil, &usageError{err: fmt.Errorf("invalid %s id %q: must be a positive integer", label, part)}
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil, &usageError{err: fmt.Errorf("at least one %s id is required", label)}
	}
	return ids, nil
}

func parseIDArg(arg, label string) (int, error) {
	ids, err := parseIDArgs([]string{arg}, label)
	if err != nil {
		return 0, err
	}
	if len(ids) != 1 {
		return 0, &usageError{err: fmt.Errorf("expected a single %s id, got %q", label, arg)}
	}
	return ids[0], nil
}

// errAlreadyHandled is a sentinel error indicating the error was already printed to stderr.
// Commands using RunE return this to signal Cobra that an error occurred (for exit code)
// without Cobra printing it again (since SilenceErrors is true on root command).
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() error {
	return errAlreadyHandled
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

// usageError marks bad input so it exits with the usage code.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// printJSONErr writes a JSON value to stderr.
func printJSONErr(cmd *cobra.Command, v any) error {
	ioStreams := iocontext.GetIO(cmd.Context())
	return outfmt.WriteJSON(ioStreams.ErrOut, v)
}

// RunE wraps a command function with enhanced error handling
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil {
			if isJSON(cmd) {
				_ = printJSONErr(cmd, map[string]any{"error": structuredError(err)})
			} else {
				_, _ = fmt.Fprint(cmd.ErrOrStderr(), HandleError(err))
			}
			// Return a handled error so tests can still inspect the original message.
			return &handledError{err: err, exitCode: ExitCode(err)}
		}
		return nil
	}
}

// structuredError is api.StructuredErrorFromError plus the balance breakdown
// of a failed order.
func structuredError(err error) *api.StructuredError {
	se := api.StructuredErrorFromError(err)
	var short *shortageError
	if errors.As(err, &short) {
		if se.Context == nil {
			se.Context = map[string]any{}
		}
		se.Context["required"] = short.required.Int()
		se.Context["current_balance"] = short.balance.Int()
		se.Context["shortage"] = short.shortage
	}
	return se
}
