package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"moviehub/internal/logging"
)

const CtxClaimsKey = "auth_claims"

type identityKey struct{}

// AuthMiddleware gates a route on a valid token.
// No Authorization header yields 401; a header whose token fails
// verification yields 403.
func AuthMiddleware(tokens TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logging.FromContext(c.Request.Context())

		h := c.GetHeader("Authorization")
		if h == "" {
			log.Info("authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing authorization header"})
			return
		}

		// "<scheme> <token>"; the scheme itself is not checked
		_, raw, _ := strings.Cut(strings.TrimSpace(h), " ")
		claims, err := tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			log.Warn("token verification failed", "error", err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "invalid or expired token"})
			return
		}

		c.Set(CtxClaimsKey, claims)
		ctx := WithIdentity(c.Request.Context(), Identity{Username: claims.Username})
		ctx = logging.WithLogger(ctx, log.With("user", claims.Username))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by AuthMiddleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
