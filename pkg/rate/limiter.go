// Package rate provides keyed client side rate limiting.
package rate

import (
	"math"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter limits operations based on a provided key.
type Limiter interface {
	Allow(key string) bool
}

// localRateLimiter keeps an independent token bucket per key.
type localRateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewLocalRateLimiter returns an in memory limiter allowing limit operations
// per second for each key. Bursts of up to one second's worth are allowed,
// and at least one operation.
func NewLocalRateLimiter(limit rate.Limit) Limiter {
	return &localRateLimiter{
		limit:   limit,
		burst:   int(math.Max(1, math.Ceil(float64(limit)))),
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow implements Limiter.Allow.
func (l *localRateLimiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

func (l *localRateLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	return b
}

// NoLimiter never limits operations
type NoLimiter struct{}

// Allow implements Limiter.Allow.
func (*NoLimiter) Allow(string) bool {
	return true
}
