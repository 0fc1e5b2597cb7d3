package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"moviehub/internal/auth"
	"moviehub/internal/movies"
	synchub "moviehub/internal/sync"
	"moviehub/pkg/utils"
)

const shutdownTimeout = 10 * time.Second

// Build constructs the service dependencies from configuration.
func Build(cfg utils.ServerConfig, logger *slog.Logger) (Deps, error) {
	if logger == nil {
		logger = slog.Default()
	}

	verifier, err := NewVerifier(cfg.Auth)
	if err != nil {
		return Deps{}, err
	}

	tokens := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}

	source := movies.NewHTTPSource(cfg.Movies.UpstreamURL, cfg.Movies.FetchTimeout)
	cache := movies.NewCache(source, cfg.Movies.CacheTTL, logger.With("component", "movie_cache"))

	hub := synchub.NewHub(logger.With("component", "hub"))
	cache.OnRefresh(hub.CatalogRefreshed)

	return Deps{
		Verifier:       verifier,
		Tokens:         tokens,
		Cache:          cache,
		Hub:            hub,
		Logger:         logger,
		TrustedProxies: cfg.TrustedProxies,
	}, nil
}

// NewVerifier picks the bcrypt verifier when a password hash is configured
// and the plaintext one otherwise.
func NewVerifier(cfg utils.AuthConfig) (auth.CredentialVerifier, error) {
	if cfg.Username == "" {
		return nil, errors.New("auth: username must be configured")
	}
	if cfg.PasswordHash != "" {
		return &auth.BcryptVerifier{Username: cfg.Username, PasswordHash: []byte(cfg.PasswordHash)}, nil
	}
	return auth.StaticVerifier{Username: cfg.Username, Password: cfg.Password}, nil
}

// Run serves HTTP on cfg.Addr until ctx is canceled, then shuts down.
func Run(ctx context.Context, cfg utils.ServerConfig, logger *slog.Logger) error {
	deps, err := Build(cfg, logger)
	if err != nil {
		return err
	}
	logger = deps.Logger

	if !logger.Enabled(ctx, slog.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP API server listening", "addr", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.Movies.WarmOnStart {
		g.Go(func() error {
			if _, err := deps.Cache.Refresh(ctx); err != nil {
				// not fatal: the first search retries the fetch
				logger.Warn("initial movie fetch failed", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
