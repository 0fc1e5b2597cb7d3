// Package app wires the HTTP surface of the movie service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"moviehub/internal/auth"
	"moviehub/internal/middleware"
	"moviehub/internal/movies"
	synchub "moviehub/internal/sync"
)

const LivenessText = "Movie App Backend is Running!"

type Deps struct {
	Verifier       auth.CredentialVerifier
	Tokens         auth.TokenService
	Cache          *movies.Cache
	Hub            *synchub.Hub
	Logger         *slog.Logger
	TrustedProxies []string
}

// NewRouter builds the gin engine serving the public and gated routes.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	_ = router.SetTrustedProxies(d.TrustedProxies)

	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
	}))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, LivenessText)
	})

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if d.Cache != nil {
			body["cache"] = d.Cache.Stats()
		}
		if d.Hub != nil {
			body["ws_clients"] = d.Hub.Stats().WSClients
		}
		c.JSON(http.StatusOK, body)
	})

	if d.Hub != nil {
		router.GET("/ws", synchub.WSHandler(d.Hub))
	}

	api := router.Group("/api")

	// Auth (public)
	auth.NewHandler(d.Verifier, d.Tokens).RegisterRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(auth.AuthMiddleware(d.Tokens))
	movies.NewHandler(d.Cache).RegisterRoutes(protected)

	return router
}
