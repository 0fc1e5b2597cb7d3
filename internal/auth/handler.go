package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"moviehub/internal/logging"
)

type Handler struct {
	Verifier CredentialVerifier
	Tokens   TokenService
}

func NewHandler(verifier CredentialVerifier, tokens TokenService) *Handler {
	return &Handler{Verifier: verifier, Tokens: tokens}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.login)
	rg.GET("/me", AuthMiddleware(h.Tokens), h.me)
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	log := logging.FromContext(c.Request.Context())

	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}

	log.Info("login attempt", "username", req.Username)

	id, err := h.Verifier.Verify(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			log.Error("credential check failed", "username", req.Username, "error", err)
		}
		log.Info("login failed", "username", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	token, exp, err := h.Tokens.Issue(id.Username)
	if err != nil {
		log.Error("token issue failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "token failed"})
		return
	}

	log.Info("login successful", "username", id.Username)
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) me(c *gin.Context) {
	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "invalid or expired token"})
		return
	}
	var exp string
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, gin.H{
		"username":   claims.Username,
		"expires_at": exp,
	})
}
