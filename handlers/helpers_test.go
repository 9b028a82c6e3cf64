package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vaikhari/vaikhari/backend/api/internal/config"
	"github.com/vaikhari/vaikhari/backend/api/internal/models"
	"github.com/vaikhari/vaikhari/backend/api/internal/users"
	"github.com/vaikhari/vaikhari/backend/api/pkg/middleware"
)

// fakeAuth maps raw tokens (and the cookies minted from them) to claims.
type fakeAuth struct {
	tokens       map[string]map[string]interface{}
	customClaims map[string]map[string]interface{}
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		tokens:       map[string]map[string]interface{}{},
		customClaims: map[string]map[string]interface{}{},
	}
}

func (f *fakeAuth) addToken(token string, claims map[string]interface{}) {
	f.tokens[token] = claims
}

func (f *fakeAuth) VerifyIDToken(ctx context.Context, token string) (map[string]interface{}, error) {
	if c, ok := f.tokens[token]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func (f *fakeAuth) VerifySessionCookie(ctx context.Context, cookie string) (map[string]interface{}, error) {
	if c, ok := f.tokens[cookie]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("invalid cookie")
}

func (f *fakeAuth) CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	claims, ok := f.tokens[idToken]
	if !ok {
		return "", fmt.Errorf("invalid id token")
	}
	cookie := "cookie-for-" + idToken
	f.tokens[cookie] = claims
	return cookie, nil
}

func (f *fakeAuth) SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	f.customClaims[uid] = claims
	return nil
}

// fakeUserRepo is an in-memory users.UserRepository with upsert semantics
// close enough to the Mongo implementation for handler tests.
type fakeUserRepo struct {
	stored map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{stored: map[string]*models.User{}}
}

func (f *fakeUserRepo) Upsert(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	if existing, ok := f.stored[u.UID]; ok {
		existing.Email = u.Email
		existing.Phone = u.Phone
		existing.DisplayName = u.DisplayName
		existing.PhotoURL = u.PhotoURL
		existing.MFAEnrolled = u.MFAEnrolled
		existing.LastLoginAt = now
		cp := *existing
		return &cp, nil
	}
	cp := *u
	cp.Roles = []models.Role{models.RoleUser}
	cp.CreatedAt = now
	cp.LastLoginAt = now
	f.stored[u.UID] = &cp
	ret := cp
	return &ret, nil
}

func (f *fakeUserRepo) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	u, ok := f.stored[uid]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.stored {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) SetRoles(ctx context.Context, uid string, roles []models.Role) (*models.User, error) {
	u, ok := f.stored[uid]
	if !ok {
		return nil, nil
	}
	u.Roles = append([]models.Role(nil), roles...)
	cp := *u
	return &cp, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Auth:   config.AuthConfig{SessionCookieMaxDays: 14},
	}
}

// newAuthRouter wires the auth handler against fakes and returns the engine.
func newAuthRouter(fa *fakeAuth, repo *fakeUserRepo, rootAdmins string) (*gin.Engine, *users.Service) {
	cfg := testConfig()
	svc := users.NewService(repo, rootAdmins)
	g := gin.New()
	api := g.Group("/api")
	authn := middleware.Authenticate(fa, svc)
	NewAuthHandler(cfg, fa, svc).Register(api, authn)
	return g, svc
}
