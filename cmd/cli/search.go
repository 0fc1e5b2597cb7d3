package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"moviehub/internal/client"
	"moviehub/internal/favorites"
	"moviehub/internal/kv"
	"moviehub/internal/movies"
	"moviehub/pkg/models"
)

// lastSearchKey holds the results of the previous search for 'favorites add'.
const lastSearchKey = "last_search"

var searchCmd = &cobra.Command{
	Use:   "search [flags] [query...]",
	Short: "Search the catalog by title",
	Long: `Search the catalog by title.

Examples:
  moviehub search matrix
  moviehub search "the matrix" --sort-by year --sort-order desc
  moviehub search --sort-by title`,
	RunE: withEnv(runSearch),
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().String("sort-by", "", "Sort by 'title' or 'year'")
	searchCmd.Flags().String("sort-order", "asc", "Sort order: asc or desc")
}

// buildQuery reports false when there is nothing to ask the server for.
func buildQuery(text, sortBy, sortOrder string) (movies.Query, bool) {
	q := movies.Query{
		Text:   strings.TrimSpace(text),
		SortBy: movies.SortField(strings.ToLower(strings.TrimSpace(sortBy))),
	}
	if q.Text == "" && q.SortBy == movies.SortNone {
		return q, false
	}
	if q.SortBy != movies.SortNone {
		q.SortOrder = movies.ParseSortOrder(sortOrder)
	}
	return q, true
}

func runSearch(cmd *cobra.Command, env *cliEnv, args []string) error {
	if err := env.requireLogin(); err != nil {
		return err
	}
	sortBy, _ := cmd.Flags().GetString("sort-by")
	sortOrder, _ := cmd.Flags().GetString("sort-order")
	out := cmd.OutOrStdout()

	q, ok := buildQuery(strings.Join(args, " "), sortBy, sortOrder)
	if !ok {
		fmt.Fprintln(out, "Enter a title to search for or pick a sort order.")
		return nil
	}

	results, err := env.api.Search(cmd.Context(), q)
	if err != nil {
		if errors.Is(err, client.ErrUnauthenticated) || errors.Is(err, client.ErrForbidden) {
			return errors.New("authentication error, please log in again")
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if err := saveLastSearch(cmd.Context(), env.store, results); err != nil {
		env.logger.Warn("could not remember search results", "error", err)
	}

	if jsonOutput {
		return printJSON(out, results)
	}
	if len(results) == 0 && q.Text != "" {
		fmt.Fprintf(out, "No movies found matching %q.\n", q.Text)
		return nil
	}
	printMovies(out, results, env.favorites)
	return nil
}

func printMovies(w io.Writer, list []models.Movie, fav *favorites.Store) {
	for i, m := range list {
		mark := " "
		if fav != nil && fav.Contains(m) {
			mark = "*"
		}
		fmt.Fprintf(w, "%3d %s %s\n", i+1, mark, describe(models.FavoriteOf(m)))
	}
}

func describe(f models.Favorite) string {
	var b strings.Builder
	b.WriteString(f.Title)
	if f.Year != "" {
		fmt.Fprintf(&b, " (%s)", f.Year)
	}
	if f.IMDbID != "" {
		fmt.Fprintf(&b, " [%s]", f.IMDbID)
	}
	if p := strings.TrimSpace(f.Poster); p == "" || p == models.NoPoster {
		b.WriteString(" - no poster")
	}
	return b.String()
}

func saveLastSearch(ctx context.Context, store kv.Store, results []models.Movie) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return store.Set(ctx, lastSearchKey, string(data))
}

func loadLastSearch(ctx context.Context, store kv.Store) ([]models.Movie, error) {
	raw, ok, err := store.Get(ctx, lastSearchKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var out []models.Movie
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("last search results are unreadable: %w", err)
	}
	return out, nil
}
