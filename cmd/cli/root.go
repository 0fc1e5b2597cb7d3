package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"moviehub/internal/client"
	"moviehub/internal/favorites"
	"moviehub/internal/kv"
	"moviehub/internal/logging"
	"moviehub/internal/session"
	"moviehub/pkg/utils"
)

var version = "dev"

var (
	apiURL     string
	storePath  string
	configPath string
	jsonOutput bool
)

var errNotLoggedIn = errors.New("not logged in; run 'moviehub login' first")

var rootCmd = &cobra.Command{
	Use:   "moviehub",
	Short: "Search movies and keep a list of favorites",
	Long: `moviehub - CLI client for the movie search service

Log in, search the catalog by title, and keep favorites locally.
Several moviehub processes sharing a store see each other's changes.

Run 'api-server' to start the service.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (default from config, http://localhost:5001/api)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "local store file (default ~/.moviehub/client.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file (defaults to $"+utils.ConfigEnv+")")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("moviehub {{.Version}}\n")
}

// cliEnv is what every command works with: local storage, the session
// derived from it, and an API client authenticated by that session.
type cliEnv struct {
	cfg       utils.ClientConfig
	logger    *slog.Logger
	store     kv.Store
	closer    io.Closer
	favorites *favorites.Store
	session   *session.Session
	api       *client.Client
}

func openEnv(ctx context.Context) (*cliEnv, error) {
	cfg, err := utils.LoadClientConfig(configPath)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	store, err := kv.OpenSQLite(cfg.StorePath, logger.With("component", "kv"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	env, err := newEnv(ctx, cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	env.closer = store
	return env, nil
}

func newEnv(ctx context.Context, cfg utils.ClientConfig, store kv.Store, logger *slog.Logger) (*cliEnv, error) {
	fav := favorites.New(store, logger.With("component", "favorites"))
	sess, err := session.New(ctx, store, fav, logger.With("component", "session"))
	if err != nil {
		return nil, err
	}
	return &cliEnv{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		favorites: fav,
		session:   sess,
		api:       client.New(cfg.APIURL, sess),
	}, nil
}

func (e *cliEnv) Close() {
	if e.closer != nil {
		_ = e.closer.Close()
	}
}

func (e *cliEnv) requireLogin() error {
	if !e.session.IsAuthenticated() {
		return errNotLoggedIn
	}
	return nil
}

// withEnv opens the environment around fn.
func withEnv(fn func(cmd *cobra.Command, env *cliEnv, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		return fn(cmd, env, args)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
