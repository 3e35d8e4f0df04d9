package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist revokes doctor tokens before their natural expiry.
type Denylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisDenylist stores revoked token ids in Redis so every replica sees them
// and they survive restarts. Entries expire together with the token.
type RedisDenylist struct {
	redis redisCommander
	now   func() time.Time
}

// NewRedisDenylist wraps a redis client.
func NewRedisDenylist(client redisCommander) *RedisDenylist {
	return &RedisDenylist{redis: client, now: time.Now}
}

// RevokedKey builds the redis key for a token id.
func RevokedKey(jti string) string {
	return "revoked:" + jti
}

// Revoke marks jti as revoked until the given instant.
func (d *RedisDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return d.redis.Set(ctx, RevokedKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked.
func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.redis.Exists(ctx, RevokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
