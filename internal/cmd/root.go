package cmd

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gamex/gamex-cli/internal/config"
	"github.com/gamex/gamex-cli/internal/debug"
	"github.com/gamex/gamex-cli/internal/dryrun"
	"github.com/gamex/gamex-cli/internal/filter"
	"github.com/gamex/gamex-cli/internal/iocontext"
	"github.com/gamex/gamex-cli/internal/outfmt"
	"github.com/gamex/gamex-cli/internal/validation"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Output       string
	JSON         bool
	Compact      bool
	Query        string
	JQ           string
	Template     string
	Debug        bool
	DryRun       bool
	Yes          bool
	NoInput      bool
	Quiet        bool
	AllowPrivate bool
	Timeout      time.Duration
	BaseURL      string
	Profile      string
	MetricsFile  string
}

// flags holds the global command flags. This is package-level mutable state
// that MUST be reset at the start of every Execute() call. Tests depend on
// this reset to get clean state; any code that reads flags outside of a
// command's RunE is reading stale data from the previous Execute() call.
var flags rootFlags

func normalizeOutputFormat(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "ndjson" {
		return "jsonl"
	}
	return value
}

//go:embed help.txt
var helpText string

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	// .env values become defaults; exported variables win.
	config.LoadDotenv()
	cfg, cfgErr := config.Load()

	flags = rootFlags{
		Output:       normalizeOutputFormat(cfg.Output),
		Timeout:      cfg.Timeout,
		BaseURL:      cfg.BaseURL,
		Profile:      cfg.Profile,
		AllowPrivate: cfg.AllowPrivate,
	}

	var application *app
	defer func() {
		if application != nil {
			application.Close(context.WithoutCancel(ctx))
		}
	}()

	root := &cobra.Command{
		Use:                "gamex",
		Short:              "CLI for the GameX game top-up storefront",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true, // We provide our own did-you-mean via enhanceUnknownError
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cfgErr != nil {
				return &usageError{err: cfgErr}
			}
			ctx := cmd.Context()

			flags.Output = normalizeOutputFormat(flags.Output)
			if flags.Yes {
				flags.NoInput = true
			}
			if flags.JSON {
				if flagOrAliasChanged(cmd, "output") && flags.Output != "json" {
					return &usageError{err: fmt.Errorf("--json conflicts with --output %s", flags.Output)}
				}
				flags.Output = "json"
			}
			query := getJQQuery()
			if (query != "" || flags.Template != "") && flags.Output == "text" {
				if flagOrAliasChanged(cmd, "output") {
					return &usageError{err: fmt.Errorf("--query/--jq/--template require --output json or jsonl (or --json)")}
				}
				flags.Output = "json"
			}

			mode, err := outfmt.Parse(flags.Output)
			if err != nil {
				return &usageError{err: err}
			}
			ctx = outfmt.WithMode(ctx, mode)
			ctx = outfmt.WithCompact(ctx, flags.Compact)

			if query != "" {
				query = filter.NormalizeExpression(query)
				if _, err := filter.Compile(query); err != nil {
					return &usageError{err: err}
				}
				ctx = outfmt.WithQuery(ctx, query)
			}
			if flags.Template != "" {
				tmpl, err := loadTemplate(flags.Template)
				if err != nil {
					return err
				}
				ctx = outfmt.WithTemplate(ctx, tmpl)
			}

			ioStreams := iocontext.DefaultIO()
			if flags.Quiet {
				ioStreams.ErrOut = io.Discard
				if mode == outfmt.Text {
					ioStreams.Out = io.Discard
				}
			}
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			validation.SetAllowPrivate(flags.AllowPrivate)
			if flags.AllowPrivate && !flags.Quiet {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Warning: allowing private/localhost URLs (use only with trusted targets).")
			}

			// JSON logs keep stderr machine readable next to JSON output.
			debug.SetupLogger(flags.Debug, mode != outfmt.Text)
			ctx = debug.WithDebug(ctx, flags.Debug)
			ctx = dryrun.WithDryRun(ctx, flags.DryRun)

			if flags.Timeout <= 0 {
				return &usageError{err: fmt.Errorf("--timeout must be > 0")}
			}
			cfg.BaseURL = strings.TrimSpace(flags.BaseURL)
			cfg.Timeout = flags.Timeout
			cfg.Profile = strings.TrimSpace(flags.Profile)
			cfg.AllowPrivate = flags.AllowPrivate
			if cfg.Profile == "" {
				cfg.Profile = config.DefaultProfile
			}

			application = newApp(ctx, cfg, flags.MetricsFile)
			ctx = withApp(ctx, application)

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)
	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd.Name() == root.Name() && !cmd.HasParent() {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), helpText)
			return
		}
		defaultHelp(cmd, args)
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl|ndjson (env GAMEX_OUTPUT)")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	pf.BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.StringVarP(&flags.Query, "query", "q", "", "JQ expression to filter JSON output")
	pf.StringVar(&flags.JQ, "jq", "", "Alias for --query")
	pf.StringVar(&flags.Template, "template", "", "Go template string (or @path) to render JSON output")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.BoolVar(&flags.DryRun, "dry-run", false, "Preview changes without executing")
	pf.BoolVarP(&flags.Yes, "yes", "y", false, "Skip confirmation prompts")
	pf.BoolVar(&flags.NoInput, "no-input", false, "Disable interactive prompts")
	pf.BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress non-essential output")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "HTTP request timeout (e.g., 15s, 1m; env GAMEX_TIMEOUT)")
	pf.StringVar(&flags.BaseURL, "base-url", flags.BaseURL, "Backend origin (env GAMEX_BASE_URL)")
	pf.StringVar(&flags.Profile, "profile", flags.Profile, "Session profile (env GAMEX_PROFILE)")
	pf.StringVar(&flags.MetricsFile, "metrics-file", "", "Write Prometheus request metrics to this file on exit")
	pf.BoolVar(&flags.AllowPrivate, "allow-private", flags.AllowPrivate, "Allow private/localhost base URLs (unsafe)")

	flagAlias(pf, "dry-run", "dr")
	flagAlias(pf, "output", "out")
	flagAlias(pf, "compact-json", "cj")
	flagAlias(pf, "template", "tpl")
	flagAlias(pf, "timeout", "to")
	flagAlias(pf, "debug", "dbg")
	flagAlias(pf, "no-input", "ni")
	flagAlias(pf, "allow-private", "ap")

	root.AddCommand(newAuthCmd())
	root.AddCommand(newMeCmd())
	root.AddCommand(newGamesCmd())
	root.AddCommand(newProductsCmd())
	root.AddCommand(newOrdersCmd())
	root.AddCommand(newDepositsCmd())
	root.AddCommand(newTopupCmd())
	root.AddCommand(newAdminCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newCompletionsCmd())
	root.AddCommand(newVersionCmd())

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			enhanced := enhanceUnknownError(err, root, targetCmd)
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanced)
		}
		return err
	}
	return nil
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
// targetCmd is the command Cobra resolved before the error (may be root itself).
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		if unknown := extractQuoted(msg); unknown != "" {
			parent := root
			if targetCmd != nil {
				parent = targetCmd
			}
			var names []string
			for _, c := range parent.Commands() {
				if c.IsAvailableCommand() || c.Name() == "help" {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := suggestCommand(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		if unknown := extractFlag(msg); unknown != "" {
			seen := make(map[string]bool)
			var flagNames []string
			addFlags := func(fs *pflag.FlagSet) {
				fs.VisitAll(func(f *pflag.Flag) {
					if f.Hidden {
						return
					}
					name := "--" + f.Name
					if !seen[name] {
						seen[name] = true
						flagNames = append(flagNames, name)
					}
				})
			}
			helpCmd := "gamex --help"
			if targetCmd != nil {
				addFlags(targetCmd.Flags())
				addFlags(targetCmd.InheritedFlags())
				helpCmd = targetCmd.CommandPath() + " --help"
			} else {
				addFlags(root.PersistentFlags())
			}
			if suggestion := suggestFlag(unknown, flagNames); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
			}
			return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
		}
	}

	return msg
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name (e.g., "--foo") from an error message.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		// "unknown shorthand flag: 'a' in -a"
		idx = strings.LastIndex(s, " -")
		if idx < 0 {
			return ""
		}
		rest := strings.TrimRight(strings.TrimSpace(s[idx+1:]), ".,;:!?\"'")
		if strings.HasPrefix(rest, "-") && len(rest) > 1 {
			return rest
		}
		return ""
	}
	rest := s[idx:]
	if end := strings.IndexByte(rest, ' '); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimRight(rest, ".,;:!?\"'")
}

func loadTemplate(value string) (string, error) {
	if path, ok := strings.CutPrefix(value, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(data), nil
	}
	return value, nil
}
