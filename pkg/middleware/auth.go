package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vaikhari/vaikhari/backend/api/internal/models"
	"github.com/vaikhari/vaikhari/backend/api/internal/sessions"
	"github.com/vaikhari/vaikhari/backend/api/internal/users"
	"github.com/vaikhari/vaikhari/backend/api/pkg/logger"
	"github.com/vaikhari/vaikhari/backend/api/pkg/metrics"
)

// SessionCookieName is the fixed cookie the session credential travels in.
const SessionCookieName = "session"

const userContextKey = "user"

// Verifier is the minimal token-verification interface the middleware
// depends on; satisfied by fireauth.Client and by test fakes.
type Verifier interface {
	VerifySessionCookie(ctx context.Context, cookie string) (map[string]interface{}, error)
	VerifyIDToken(ctx context.Context, token string) (map[string]interface{}, error)
}

// ParseBearerToken extracts the token from an "Authorization: Bearer <t>"
// header, or returns "".
func ParseBearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return ""
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// SessionCookie returns the raw session cookie value, or "".
func SessionCookie(r *http.Request) string {
	ck, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

// Authenticate verifies the request credential (session cookie first, bearer
// token as fallback), upserts the user document and stores the possibly
// root-admin-elevated user on the context. Verification failures on one
// credential kind fall through to the next; only when no credential verifies
// does the request get a 401.
func Authenticate(ver Verifier, svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := resolveUser(c.Request, ver, svc)
		if err != nil {
			if errors.Is(err, users.ErrUnauthenticated) {
				metrics.AuthRequests.WithLabelValues("unauthenticated").Inc()
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHENTICATED"})
				return
			}
			logger.Errorf("authentication failed: %v", err)
			metrics.AuthRequests.WithLabelValues("error").Inc()
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "AUTH_ERROR"})
			return
		}
		metrics.AuthRequests.WithLabelValues("ok").Inc()
		c.Set(userContextKey, u)
		c.Next()
	}
}

func resolveUser(r *http.Request, ver Verifier, svc *users.Service) (*models.User, error) {
	ctx := r.Context()
	cookie := SessionCookie(r)
	bearer := ParseBearerToken(r)
	if cookie == "" && bearer == "" {
		return nil, users.ErrUnauthenticated
	}

	var claims map[string]interface{}
	if cookie != "" {
		revoked, err := sessions.IsSessionRevoked(ctx, cookie)
		if err != nil {
			logger.Warnf("session revocation check failed: %v", err)
		}
		if !revoked {
			claims, err = ver.VerifySessionCookie(ctx, cookie)
			if err != nil {
				// expired/revoked/malformed cookie: treat as absent
				logger.Debugf("session cookie rejected: %v", err)
				claims = nil
			}
		}
	}
	if claims == nil && bearer != "" {
		var err error
		claims, err = ver.VerifyIDToken(ctx, bearer)
		if err != nil {
			logger.Debugf("bearer token rejected: %v", err)
			claims = nil
		}
	}
	if claims == nil {
		return nil, users.ErrUnauthenticated
	}

	u, err := svc.UpsertFromClaims(ctx, claims)
	if err != nil {
		return nil, err
	}
	if u == nil {
		// verified token without a subject identifier
		return nil, users.ErrUnauthenticated
	}
	return svc.Elevate(u), nil
}

// CurrentUser returns the authenticated user stored by Authenticate, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// RequireRole rejects requests whose authenticated user lacks the role.
// Must run after Authenticate.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHENTICATED"})
			return
		}
		if !u.HasRole(role) {
			metrics.AuthRequests.WithLabelValues("forbidden").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "FORBIDDEN"})
			return
		}
		c.Next()
	}
}
