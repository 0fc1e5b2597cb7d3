package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"moviehub/pkg/models"
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "List and edit favorite movies",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runFavoritesList),
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Add or remove a movie by title and year",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runFavoritesToggle),
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <n>",
	Short: "Toggle the n-th result of the last search",
	Args:  cobra.ExactArgs(1),
	RunE:  withEnv(runFavoritesAdd),
}

func init() {
	rootCmd.AddCommand(favoritesCmd)
	favoritesCmd.AddCommand(favoritesListCmd, favoritesToggleCmd, favoritesAddCmd)

	favoritesToggleCmd.Flags().String("title", "", "movie title")
	favoritesToggleCmd.Flags().String("year", "", "release year")
	favoritesToggleCmd.Flags().String("poster", "", "poster URL")
	favoritesToggleCmd.Flags().String("imdb-id", "", "IMDb id")
}

func runFavoritesList(cmd *cobra.Command, env *cliEnv, _ []string) error {
	if err := env.requireLogin(); err != nil {
		return err
	}
	list := env.favorites.List()
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "You haven't added any favorites yet.")
		return nil
	}
	for i, f := range list {
		fmt.Fprintf(out, "%3d * %s\n", i+1, describe(f))
	}
	return nil
}

func runFavoritesToggle(cmd *cobra.Command, env *cliEnv, _ []string) error {
	if err := env.requireLogin(); err != nil {
		return err
	}
	title, _ := cmd.Flags().GetString("title")
	year, _ := cmd.Flags().GetString("year")
	poster, _ := cmd.Flags().GetString("poster")
	imdbID, _ := cmd.Flags().GetString("imdb-id")
	if title == "" || year == "" {
		return errors.New("--title and --year are required")
	}

	m := models.Movie{"Title": title, "Year": year}
	if poster != "" {
		m["Poster"] = poster
	}
	if imdbID != "" {
		m["imdbID"] = imdbID
	}
	return toggle(cmd, env, m)
}

func runFavoritesAdd(cmd *cobra.Command, env *cliEnv, args []string) error {
	if err := env.requireLogin(); err != nil {
		return err
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid result number %q", args[0])
	}

	results, err := loadLastSearch(cmd.Context(), env.store)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return errors.New("no search results yet; run 'moviehub search' first")
	}
	if n < 1 || n > len(results) {
		return fmt.Errorf("result number must be between 1 and %d", len(results))
	}
	return toggle(cmd, env, results[n-1])
}

func toggle(cmd *cobra.Command, env *cliEnv, m models.Movie) error {
	f := models.FavoriteOf(m)
	if f.Title == "" || f.Year == "" {
		return errors.New("movie has no title or year")
	}
	if err := env.favorites.Toggle(cmd.Context(), m); err != nil {
		return err
	}
	if env.favorites.Contains(m) {
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", describe(f))
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", describe(f))
	}
	return nil
}
