package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gamex/gamex-cli/internal/config"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Aliases: []string{"ch"},
		Short:   "Manage the product listing cache",
	}

	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached product listing",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := a.Cache().Clear(cmdContext(cmd)); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"cleared": true, "backend": a.cfg.CacheBackend})
			}
			switch a.cfg.CacheBackend {
			case config.BackendRedis:
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: redis %s\n", a.cfg.RedisAddr)
			case config.BackendNone:
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cache is disabled, nothing to clear")
			default:
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", a.cfg.CacheDir)
			}
			return nil
		}),
	}
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the cache directory and its files",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			dir := a.cfg.CacheDir
			if dir == "" {
				return fmt.Errorf("could not determine cache directory")
			}

			type cacheFile struct {
				Name string `json:"name"`
				Size int64  `json:"size"`
			}
			var files []cacheFile
			entries, _ := os.ReadDir(dir)
			for _, e := range entries {
				if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
					continue
				}
				info, err := e.Info()
				if err != nil {
					continue
				}
				files = append(files, cacheFile{Name: e.Name(), Size: info.Size()})
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"dir": dir, "backend": a.cfg.CacheBackend, "files": files})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), dir)
			for _, f := range files {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s (%d bytes)\n", f.Name, f.Size)
			}
			return nil
		}),
	}
}
