package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gamex/gamex-cli/internal/catalog"
)

func newGamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "games",
		Aliases: []string{"game", "g"},
		Short:   "Browse the bundled game catalog",
	}
	cmd.AddCommand(newGamesListCmd())
	cmd.AddCommand(newGamesShowCmd())
	return cmd
}

func newGamesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List games",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			games, err := catalog.Games()
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, games)
			}

			w := newTabWriterFromCmd(cmd)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tZONE")
			for _, g := range games {
				zone := "no"
				if g.UsesServerZone {
					zone = "required"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", g.ID, g.Name, g.CategoryID, zone)
			}
			return w.Flush()
		}),
	}
}

func newGamesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <game>",
		Short: "Show one game",
		Long:  "Looks the game up by id, name or a fuzzy abbreviation (\"mlbb\", \"genshin\").",
		Example: strings.TrimSpace(`
  gamex games show genshin
  gamex games show mobile-legends -o json
`),
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeGames,
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			game, err := catalog.Find(strings.Join(args, " "))
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, game)
			}

			w := newTabWriterFromCmd(cmd)
			_, _ = fmt.Fprintf(w, "Game:\t%s\n", game.Name)
			_, _ = fmt.Fprintf(w, "ID:\t%s\n", game.ID)
			_, _ = fmt.Fprintf(w, "Category:\t%d\n", game.CategoryID)
			if game.UsesServerZone {
				_, _ = fmt.Fprintln(w, "Target:\tplayer id and server zone")
			} else {
				_, _ = fmt.Fprintln(w, "Target:\tplayer id")
			}
			if game.Description != "" {
				_, _ = fmt.Fprintf(w, "About:\t%s\n", game.Description)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nPackages: gamex products list %s\n", game.ID)
			return nil
		}),
	}
}

// resolveCategory turns a category id or a game query into a category id
// and, when known, its game.
func resolveCategory(arg string) (int, *catalog.Game, error) {
	arg = strings.TrimSpace(arg)
	if id, err := strconv.Atoi(arg); err == nil {
		if id <= 0 {
			return 0, nil, &usageError{err: fmt.Errorf("invalid category id %d: must be a positive integer", id)}
		}
		if g, ok := catalog.ByCategory(id); ok {
			return id, &g, nil
		}
		return id, nil, nil
	}
	g, err := catalog.Find(arg)
	if err != nil {
		return 0, nil, err
	}
	return g.CategoryID, &g, nil
}
