package middleware

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	apperrors "github.com/hrygo/noterag/server/internal/errors"
)

const (
	// DefaultRPS is the default number of requests per second per client.
	DefaultRPS = 10
	// DefaultBurst is the default burst size per client.
	DefaultBurst = 20
	// DefaultIdleTimeout is how long a client's limiter is kept after its last request.
	DefaultIdleTimeout = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-key rate limiting.
// Keys idle for longer than idleTimeout are dropped.
type RateLimiter struct {
	mu          sync.Mutex
	limits      map[string]*limiterEntry
	every       rate.Limit
	burst       int
	idleTimeout time.Duration
	lastSweep   time.Time
	now         func() time.Time
}

// NewRateLimiter creates a new rate limiter with the default limits.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithLimits(DefaultRPS, DefaultBurst)
}

// NewRateLimiterWithLimits creates a rate limiter allowing rps requests per
// second with the given burst for every key.
func NewRateLimiterWithLimits(rps, burst int) *RateLimiter {
	if rps <= 0 {
		rps = DefaultRPS
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &RateLimiter{
		limits:      make(map[string]*limiterEntry),
		every:       rate.Every(time.Second / time.Duration(rps)),
		burst:       burst,
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idleTimeout {
		rl.sweep(now)
	}

	entry, ok := rl.limits[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.limits[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweep removes idle keys. Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, entry := range rl.limits {
		if now.Sub(entry.lastSeen) >= rl.idleTimeout {
			delete(rl.limits, key)
		}
	}
	rl.lastSweep = now
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limits)
}

// Middleware returns an echo middleware keyed by client IP. Clients over
// their limit get a RateLimitExceeded error for the HTTP error handler.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				return apperrors.RateLimitExceeded("Too many requests")
			}
			return next(c)
		}
	}
}
