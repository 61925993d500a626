// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a lightweight, in-memory, token-bucket rate limiter
// with per-identity buckets and opportunistic garbage collection. It is
// process-local: for horizontally scaled deployments prefer a distributed
// limiter to enforce global limits.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByPrincipalOrIP returns a keyFunc that prefers the authenticated
// principal set by the auth gate and falls back to the client IP. Keys are
// prefixed so the two namespaces never collide.
func KeyByPrincipalOrIP() keyFunc {
	return func(c *gin.Context) string {
		if p := PrincipalFrom(c); p != nil {
			return "profile:" + strconv.FormatUint(uint64(p.ProfileID), 10)
		}
		return "ip:" + c.ClientIP()
	}
}

// bucket pairs a limiter with its last-seen time for idle cleanup.
type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter holds per-key token buckets.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
	keyFn   keyFunc

	// idleTTL bounds memory: buckets untouched for this long are dropped
	// during opportunistic sweeps.
	idleTTL  time.Duration
	lastGC   time.Time
	gcPeriod time.Duration
}

// NewRateLimiter builds a limiter allowing rps tokens per second with the
// given burst per identity. An rps of 0 disables limiting.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		idleTTL:  10 * time.Minute,
		gcPeriod: time.Minute,
	}
}

// get returns (creating if needed) the bucket for key, sweeping idle buckets
// at most once per gcPeriod.
func (rl *RateLimiter) get(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastGC) > rl.gcPeriod {
		for k, b := range rl.buckets {
			if now.Sub(b.seen) > rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastGC = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = now
	return b.lim
}

// Handler returns the Gin middleware enforcing the limit. Exceeding requests
// receive HTTP 429 with a small JSON body.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rps <= 0 {
			c.Next()
			return
		}
		if !rl.get(rl.keyFn(c), time.Now()).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": "too many requests",
			})
			return
		}
		c.Next()
	}
}
