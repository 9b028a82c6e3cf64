package fireauth

import (
	"context"
	"fmt"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"

	"github.com/vaikhari/vaikhari/backend/api/internal/config"
	"github.com/vaikhari/vaikhari/backend/api/pkg/logger"
)

// Client wraps the Firebase Admin auth client. Construct once in main and
// pass it to the handler/middleware layer; the SDK client is safe for
// concurrent use.
type Client struct {
	auth *fbauth.Client
}

// NewClient initializes the Firebase Admin SDK from the first usable
// credential source (see resolveCredentials).
func NewClient(ctx context.Context, cfg config.FirebaseConfig) (*Client, error) {
	cred := resolveCredentials(cfg)
	if cred.projectID != "" && os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		// some google-cloud libraries resolve the project from the env
		_ = os.Setenv("GOOGLE_CLOUD_PROJECT", cred.projectID)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cred.projectID}, cred.opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app init (source=%s): %w", cred.source, err)
	}
	ac, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client (source=%s): %w", cred.source, err)
	}
	logger.Infof("fireauth: initialized with %s credentials (project=%s)", cred.source, cred.projectID)
	return &Client{auth: ac}, nil
}

// VerifySessionCookie validates a session cookie, including a revocation
// check, and returns its claims with "uid" always populated.
func (c *Client) VerifySessionCookie(ctx context.Context, cookie string) (map[string]interface{}, error) {
	t, err := c.auth.VerifySessionCookieAndCheckRevoked(ctx, cookie)
	if err != nil {
		return nil, err
	}
	return claimsFromToken(t), nil
}

// VerifyIDToken validates a bearer ID token, including a revocation check.
func (c *Client) VerifyIDToken(ctx context.Context, token string) (map[string]interface{}, error) {
	t, err := c.auth.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return nil, err
	}
	return claimsFromToken(t), nil
}

// CreateSessionCookie exchanges a freshly-minted ID token for a long-lived
// session cookie value.
func (c *Client) CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	return c.auth.SessionCookie(ctx, idToken, expiresIn)
}

// SetCustomClaims overwrites the custom claims on the provider account so the
// assigned roles are visible in future tokens.
func (c *Client) SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	return c.auth.SetCustomUserClaims(ctx, uid, claims)
}

func claimsFromToken(t *fbauth.Token) map[string]interface{} {
	claims := make(map[string]interface{}, len(t.Claims)+1)
	for k, v := range t.Claims {
		claims[k] = v
	}
	claims["uid"] = t.UID
	return claims
}
