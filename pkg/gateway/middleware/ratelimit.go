package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"primeia/videogate/pkg/config"
	"primeia/videogate/pkg/gateway/types"
)

// RateLimiter applies a token bucket per client IP. Buckets idle for longer
// than the client TTL are evicted lazily on later calls.
type RateLimiter struct {
	mu          sync.Mutex
	clients     map[string]*client
	limit       rate.Limit
	burst       int
	ttl         time.Duration
	lastCleanup time.Time
	now         func() time.Time
	onLimited   func()
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimitClock overrides the clock.
func WithRateLimitClock(now func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.now = now
	}
}

// WithOnLimited registers a callback for rejected requests.
func WithOnLimited(fn func()) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.onLimited = fn
	}
}

// NewRateLimiter creates a per-client limiter from the upload rate limit
// settings. RequestsPerMinute is converted to a per-second refill rate.
func NewRateLimiter(cfg config.RateLimitConfig, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(cfg.RequestsPerMinute / 60),
		burst:   cfg.Burst,
		ttl:     cfg.ClientTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(rl)
	}
	if rl.ttl <= 0 {
		rl.ttl = config.DefaultRateLimitClientTTL
	}
	rl.lastCleanup = rl.now()
	return rl
}

// Allow reports whether the client identified by key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) >= rl.ttl {
		rl.evictLocked(now)
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) evictLocked(now time.Time) {
	for key, c := range rl.clients {
		if now.Sub(c.lastSeen) >= rl.ttl {
			delete(rl.clients, key)
		}
	}
	rl.lastCleanup = now
}

// retryAfter is the whole number of seconds until one token refills.
func (rl *RateLimiter) retryAfter() int {
	if rl.limit <= 0 {
		return 60
	}
	return int(math.Ceil(1 / float64(rl.limit)))
}

// Middleware rejects over-limit requests with 429 and a Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			if rl.onLimited != nil {
				rl.onLimited()
			}
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
			_ = types.WriteError(w, http.StatusTooManyRequests, types.MsgRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the host part of RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
