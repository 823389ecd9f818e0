package safety

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket refilled continuously at refillPerHour
type RateLimiter struct {
	capacity      float64
	tokens        float64
	refillPerHour float64
	lastRefill    time.Time
	mutex         sync.Mutex
	name          string
	now           func() time.Time
}

// NewRateLimiter creates a full bucket
func NewRateLimiter(name string, capacity int, refillPerHour float64) *RateLimiter {
	return &RateLimiter{
		capacity:      float64(capacity),
		tokens:        float64(capacity),
		refillPerHour: refillPerHour,
		lastRefill:    time.Now(),
		name:          name,
		now:           time.Now,
	}
}

// WithClock replaces the wall clock and restarts refill accounting from it
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	rl.now = now
	rl.lastRefill = now()
	return rl
}

// Allow takes one token if available
func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN takes n tokens if all are available
func (rl *RateLimiter) AllowN(n int) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	rl.refillTokens()
	if rl.tokens >= float64(n) {
		rl.tokens -= float64(n)
		return true
	}
	return false
}

// refillTokens must be called with the mutex held
func (rl *RateLimiter) refillTokens() {
	now := rl.now()
	elapsed := now.Sub(rl.lastRefill)
	if elapsed <= 0 {
		return
	}
	rl.tokens += elapsed.Hours() * rl.refillPerHour
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
	rl.lastRefill = now
}

// GetStats returns current statistics about the rate limiter
func (rl *RateLimiter) GetStats() RateLimiterStats {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	rl.refillTokens()
	return RateLimiterStats{
		Name:          rl.name,
		Capacity:      int(rl.capacity),
		Tokens:        int(rl.tokens),
		RefillPerHour: rl.refillPerHour,
	}
}

// RateLimiterStats holds statistics about a rate limiter
type RateLimiterStats struct {
	Name          string
	Capacity      int
	Tokens        int
	RefillPerHour float64
}
