package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaikhari/vaikhari/backend/api/internal/models"
	"github.com/vaikhari/vaikhari/backend/api/internal/sessions"
	"github.com/vaikhari/vaikhari/backend/api/pkg/middleware"
)

func TestCreateSession_RoundTrip(t *testing.T) {
	fa := newFakeAuth()
	fa.addToken("idtok-1", map[string]interface{}{"uid": "uid-1", "email": "a@b.c", "name": "Alice"})
	repo := newFakeUserRepo()
	g, _ := newAuthRouter(fa, repo, "")

	// mint the session
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"idToken":"idtok-1"}`))
	req.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "uid-1", resp.User.UID)
	assert.Equal(t, []models.Role{models.RoleUser}, resp.User.Roles)

	// cookie attributes
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, middleware.SessionCookieName, ck.Name)
	assert.Equal(t, "cookie-for-idtok-1", ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.False(t, ck.Secure) // not production
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, int((14 * 24 * time.Hour).Seconds()), ck.MaxAge)

	// the minted cookie authenticates /api/me
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: ck.Value})
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "a@b.c", resp.User.Email)
}

func TestCreateSession_BadRequests(t *testing.T) {
	fa := newFakeAuth()
	g, _ := newAuthRouter(fa, newFakeUserRepo(), "")

	// missing idToken
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unverifiable idToken
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"idToken":"garbage"}`))
	req.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHENTICATED")
}

func TestDeleteSession_RevokesCookie(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	sessions.SetRevocationClient(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	defer sessions.SetRevocationClient(nil)

	fa := newFakeAuth()
	fa.addToken("idtok-2", map[string]interface{}{"uid": "uid-2"})
	g, _ := newAuthRouter(fa, newFakeUserRepo(), "")

	// mint
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"idToken":"idtok-2"}`))
	req.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := w.Result().Cookies()[0].Value

	// logout
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: cookie})
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// cookie cleared
	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "", cleared[0].Value)
	assert.Less(t, cleared[0].MaxAge, 0)

	// the same cookie no longer authenticates, even though the verifier
	// would still accept it
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: cookie})
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteSession_NoCookieStillOK(t *testing.T) {
	g, _ := newAuthRouter(newFakeAuth(), newFakeUserRepo(), "")

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/session", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMe_RequiresAuth(t *testing.T) {
	g, _ := newAuthRouter(newFakeAuth(), newFakeUserRepo(), "")

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSecure_RoleProbe(t *testing.T) {
	fa := newFakeAuth()
	fa.addToken("tok", map[string]interface{}{"uid": "uid-3", "email": "plain@example.com"})
	g, _ := newAuthRouter(fa, newFakeUserRepo(), "")

	// default role is admin; a plain user is forbidden
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/secure", nil)
	req.Header.Set("Authorization", "Bearer tok")
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// but holds the user role
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/secure?role=user", nil)
	req.Header.Set("Authorization", "Bearer tok")
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// unknown role names are rejected, not treated as a wildcard
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/secure?role=owner", nil)
	req.Header.Set("Authorization", "Bearer tok")
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSecure_RootAdminElevated(t *testing.T) {
	fa := newFakeAuth()
	fa.addToken("tok", map[string]interface{}{"uid": "uid-root", "email": "root@vaikhari.org"})
	g, _ := newAuthRouter(fa, newFakeUserRepo(), "root@vaikhari.org")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/secure?role=superadmin", nil)
	req.Header.Set("Authorization", "Bearer tok")
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
