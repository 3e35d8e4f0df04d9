package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per caller key. Keys idle for longer
// than idleTTL are swept at most once per idleTTL.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a keyed limiter.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(reqPerSec),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// reserve takes a token for key. It returns 0 when the request may proceed,
// otherwise how long the caller should wait.
func (r *RateLimiter) reserve(key string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) > r.idleTTL {
		for k, b := range r.buckets {
			if now.Sub(b.lastSeen) > r.idleTTL {
				delete(r.buckets, k)
			}
		}
		r.lastSweep = now
	}

	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.buckets[key] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return r.idleTTL
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return delay
	}
	return 0
}

// limitBy throttles requests by key. Requests without a key pass.
func (r *RateLimiter) limitBy(keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			key := keyFunc(req)
			if key == "" {
				next.ServeHTTP(w, req)
				return
			}
			if wait := r.reserve(key); wait > 0 {
				writeRateLimitError(w, wait)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// IPRateLimit keys on the client address. chi's RealIP runs earlier in the
// chain, so RemoteAddr already reflects proxy headers.
func IPRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return limiter.limitBy(func(r *http.Request) string {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if host == "" {
			return ""
		}
		return "ip:" + host
	})
}

// UserRateLimit keys on the identity a guard stored in the context.
func UserRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return limiter.limitBy(func(r *http.Request) string {
		id := GetIdentity(r.Context())
		switch {
		case id.UID != "":
			return "uid:" + id.UID
		case id.Email != "":
			return "email:" + id.Email
		default:
			return ""
		}
	})
}

func writeRateLimitError(w http.ResponseWriter, wait time.Duration) {
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    "RATE_LIMIT",
			"message": "rate limit exceeded",
		},
	})
}
