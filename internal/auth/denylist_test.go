package auth

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type stubRedis struct {
	store map[string]time.Duration
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if s.store == nil {
		s.store = make(map[string]time.Duration)
	}
	s.store[key] = expiration
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			n++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(n)
	return cmd
}

func TestRedisDenylist(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rdb := &stubRedis{}
	d := NewRedisDenylist(rdb)
	d.now = func() time.Time { return now }

	revoked, err := d.IsRevoked(ctx, "abc")
	if err != nil || revoked {
		t.Fatalf("expected not revoked, got %v %v", revoked, err)
	}

	if err := d.Revoke(ctx, "abc", now.Add(2*time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ttl := rdb.store[RevokedKey("abc")]; ttl != 2*time.Hour {
		t.Fatalf("expected ttl 2h, got %s", ttl)
	}

	revoked, err = d.IsRevoked(ctx, "abc")
	if err != nil || !revoked {
		t.Fatalf("expected revoked, got %v %v", revoked, err)
	}
}

func TestRedisDenylistSkipsExpired(t *testing.T) {
	now := time.Now()
	rdb := &stubRedis{}
	d := NewRedisDenylist(rdb)
	d.now = func() time.Time { return now }

	if err := d.Revoke(context.Background(), "old", now.Add(-time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(rdb.store) != 0 {
		t.Fatalf("expected nothing stored for an expired token")
	}
}
