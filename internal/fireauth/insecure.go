package fireauth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// InsecureClient parses token payloads without verifying signatures. Only
// intended for local/integration runs under explicit opt-in via
// ALLOW_INSECURE_TOKEN=true; production wiring always uses Client.
type InsecureClient struct{}

func NewInsecureClient() *InsecureClient { return &InsecureClient{} }

func (c *InsecureClient) parse(raw string) (map[string]interface{}, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, err
	}
	out := map[string]interface{}(claims)
	if _, ok := out["uid"]; !ok {
		if sub, ok := out["sub"].(string); ok {
			out["uid"] = sub
		}
	}
	if _, ok := out["uid"].(string); !ok {
		return nil, errors.New("token has no subject")
	}
	return out, nil
}

func (c *InsecureClient) VerifySessionCookie(ctx context.Context, cookie string) (map[string]interface{}, error) {
	return c.parse(cookie)
}

func (c *InsecureClient) VerifyIDToken(ctx context.Context, token string) (map[string]interface{}, error) {
	return c.parse(token)
}

// CreateSessionCookie returns the ID token unchanged so the cookie/me
// round-trip works without a Firebase backend.
func (c *InsecureClient) CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	return idToken, nil
}

func (c *InsecureClient) SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	return nil
}
