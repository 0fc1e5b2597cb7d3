package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"moviehub/internal/session"
	synchub "moviehub/internal/sync"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes from other moviehub processes and the server",
	Long: `Follow changes until interrupted.

Prints logins, logouts and favorites edits made by other processes sharing
this store, and catalog refreshes announced by the server.`,
	Args: cobra.NoArgs,
	RunE: withEnv(runWatch),
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Bool("no-server", false, "Only follow the local store")
}

// lockedWriter serializes lines coming from both watchers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}

func describeEvent(ev session.Event, favCount int) string {
	switch ev.Kind {
	case session.EventLoggedIn:
		return "session: logged in elsewhere"
	case session.EventLoggedOut:
		return "session: logged out elsewhere"
	case session.EventFavoritesReloaded:
		return fmt.Sprintf("favorites: changed elsewhere (%d now)", favCount)
	default:
		return fmt.Sprintf("session: %s", ev.Kind)
	}
}

func describeCatalog(ev synchub.CatalogEvent) string {
	switch ev.Type {
	case synchub.EventWelcome:
		return "server: connected"
	case synchub.EventCatalogRefreshed:
		return fmt.Sprintf("server: catalog refreshed (%d movies, fetched %s)", ev.Count, ev.FetchedAt.Local().Format(time.DateTime))
	default:
		return "server: " + ev.Type
	}
}

func runWatch(cmd *cobra.Command, env *cliEnv, _ []string) error {
	noServer, _ := cmd.Flags().GetBool("no-server")
	out := &lockedWriter{w: cmd.OutOrStdout()}

	env.session.OnChange(func(ev session.Event) {
		out.printf("%s\n", describeEvent(ev, len(env.favorites.List())))
	})

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return env.session.Run(ctx)
	})
	if !noServer {
		g.Go(func() error {
			err := env.api.WatchCatalog(ctx, func(ev synchub.CatalogEvent) {
				out.printf("%s\n", describeCatalog(ev))
			})
			if err != nil && ctx.Err() == nil {
				// the local watch keeps running without the server
				env.logger.Warn("catalog stream closed", "error", err)
			}
			return nil
		})
	}

	out.printf("Watching for changes (Ctrl+C to stop)\n")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
