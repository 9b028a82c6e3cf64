package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// package-level Redis client used for the session-cookie revocation list
// (optional). Firebase propagates its own revocations with some delay; this
// list makes DELETE /api/session take effect immediately on this deployment.
var revocationClient *redis.Client

// SetRevocationClient configures the Redis client used for revocation checks.
// Safe to call with nil to disable local revocation.
func SetRevocationClient(c *redis.Client) {
	revocationClient = c
}

// RevokeSessionCookie marks the cookie value as revoked for ttl. Without a
// Redis client this is a no-op and returns nil.
func RevokeSessionCookie(ctx context.Context, cookie string, ttl time.Duration) error {
	if revocationClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	key := "revoked:session:" + cookie
	return revocationClient.Set(ctx, key, "1", ttl).Err()
}

// IsSessionRevoked returns true when the cookie value is on the revocation
// list. Without a Redis client it returns (false, nil).
func IsSessionRevoked(ctx context.Context, cookie string) (bool, error) {
	if revocationClient == nil {
		return false, nil
	}
	key := "revoked:session:" + cookie
	exists, err := revocationClient.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
