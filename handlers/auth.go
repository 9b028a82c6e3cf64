package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vaikhari/vaikhari/backend/api/internal/config"
	"github.com/vaikhari/vaikhari/backend/api/internal/models"
	"github.com/vaikhari/vaikhari/backend/api/internal/sessions"
	"github.com/vaikhari/vaikhari/backend/api/internal/users"
	"github.com/vaikhari/vaikhari/backend/api/pkg/logger"
	"github.com/vaikhari/vaikhari/backend/api/pkg/middleware"
)

// AuthClient is what the auth handlers need from the identity provider:
// verification (shared with the middleware) plus cookie minting and custom
// claims. Satisfied by fireauth.Client and fireauth.InsecureClient.
type AuthClient interface {
	middleware.Verifier
	CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error
}

// SessionRequest is the login payload: a fresh Firebase ID token from the
// client SDK.
type SessionRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg      *config.Config
	auth     AuthClient
	usersSvc *users.Service
}

func NewAuthHandler(cfg *config.Config, a AuthClient, u *users.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, auth: a, usersSvc: u}
}

// Register routes. authn is the shared Authenticate middleware.
func (h *AuthHandler) Register(rg *gin.RouterGroup, authn gin.HandlerFunc) {
	rg.POST("/session", h.CreateSession)
	rg.DELETE("/session", h.DeleteSession)
	rg.GET("/me", authn, h.Me)
	rg.GET("/secure", authn, h.Secure)
}

// CreateSession exchanges a short-lived ID token for a long-lived session
// cookie, upserting the user document on the way.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idToken required"})
		return
	}
	ctx := c.Request.Context()

	claims, err := h.auth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		logger.Debugf("session mint rejected: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHENTICATED"})
		return
	}

	ttl := h.cfg.SessionCookieTTL()
	cookie, err := h.auth.CreateSessionCookie(ctx, req.IDToken, ttl)
	if err != nil {
		logger.Errorf("session cookie mint failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AUTH_ERROR"})
		return
	}

	u, err := h.usersSvc.UpsertFromClaims(ctx, claims)
	if err != nil {
		logger.Errorf("user upsert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AUTH_ERROR"})
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHENTICATED"})
		return
	}

	h.setSessionCookie(c, cookie, int(ttl.Seconds()))
	c.JSON(http.StatusOK, gin.H{"user": h.usersSvc.Elevate(u)})
}

// DeleteSession revokes the presented session cookie locally and clears it.
// Always succeeds: logging out with no cookie is not an error.
func (h *AuthHandler) DeleteSession(c *gin.Context) {
	if cookie := middleware.SessionCookie(c.Request); cookie != "" {
		// revoke for the cookie's remaining maximum lifetime
		if err := sessions.RevokeSessionCookie(c.Request.Context(), cookie, h.cfg.SessionCookieTTL()); err != nil {
			logger.Warnf("session revocation failed: %v", err)
		}
	}
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated caller.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentUser(c)})
}

// Secure is the role probe: 200 when the caller holds ?role (default admin),
// 403 otherwise.
func (h *AuthHandler) Secure(c *gin.Context) {
	raw := c.DefaultQuery("role", string(models.RoleAdmin))
	role, ok := models.ParseRole(raw)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}
	u := middleware.CurrentUser(c)
	if u == nil || !u.HasRole(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "FORBIDDEN"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "role": role, "uid": u.UID})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.Server.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	})
}
