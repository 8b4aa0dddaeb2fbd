package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gamex/gamex-cli/internal/display"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Inspect CLI configuration",
	}

	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

type configView struct {
	BaseURL        string   `json:"base_url"`
	Timeout        string   `json:"timeout"`
	Profile        string   `json:"profile"`
	SessionBackend string   `json:"session_backend"`
	RedisAddr      string   `json:"redis_addr,omitempty"`
	RedisDB        int      `json:"redis_db,omitempty"`
	CacheBackend   string   `json:"cache_backend"`
	CacheTTL       string   `json:"cache_ttl"`
	CacheDir       string   `json:"cache_dir,omitempty"`
	KafkaBrokers   []string `json:"kafka_brokers,omitempty"`
	KafkaTopic     string   `json:"kafka_topic,omitempty"`
	MinTopup       int64    `json:"min_topup"`
	AllowPrivate   bool     `json:"allow_private"`
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		Long:  "Shows the settings after defaults, .env files, environment variables and flags are merged. Secrets are never printed.",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			cfg := a.cfg
			view := configView{
				BaseURL:        cfg.BaseURL,
				Timeout:        cfg.Timeout.String(),
				Profile:        cfg.Profile,
				SessionBackend: cfg.SessionBackend,
				CacheBackend:   cfg.CacheBackend,
				CacheTTL:       cfg.CacheTTL.String(),
				CacheDir:       cfg.CacheDir,
				KafkaBrokers:   cfg.KafkaBrokers,
				KafkaTopic:     cfg.KafkaTopic,
				MinTopup:       cfg.MinTopup,
				AllowPrivate:   cfg.AllowPrivate,
			}
			if cfg.SessionBackend == "redis" || cfg.CacheBackend == "redis" {
				view.RedisAddr = cfg.RedisAddr
				view.RedisDB = cfg.RedisDB
			}
			if isJSON(cmd) {
				return printJSON(cmd, view)
			}

			w := newTabWriterFromCmd(cmd)
			_, _ = fmt.Fprintf(w, "Base URL:\t%s\n", view.BaseURL)
			_, _ = fmt.Fprintf(w, "Timeout:\t%s\n", view.Timeout)
			_, _ = fmt.Fprintf(w, "Profile:\t%s\n", view.Profile)
			_, _ = fmt.Fprintf(w, "Session:\t%s\n", view.SessionBackend)
			_, _ = fmt.Fprintf(w, "Cache:\t%s (ttl %s)\n", view.CacheBackend, view.CacheTTL)
			if view.RedisAddr != "" {
				_, _ = fmt.Fprintf(w, "Redis:\t%s db %d\n", view.RedisAddr, view.RedisDB)
			}
			if len(view.KafkaBrokers) > 0 {
				_, _ = fmt.Fprintf(w, "Events:\t%s -> %s\n", strings.Join(view.KafkaBrokers, ","), view.KafkaTopic)
			} else {
				_, _ = fmt.Fprintln(w, "Events:\toff")
			}
			_, _ = fmt.Fprintf(w, "Minimum top-up:\t%s\n", display.FormatRupiah(view.MinTopup))
			return w.Flush()
		}),
	}
}
