package notifications

import (
	"sync/atomic"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/safety"
)

// GuardedNotifier throttles alerts and stops calling a notifier that keeps
// failing. Error level alerts skip the rate limit but not the breaker.
type GuardedNotifier struct {
	inner   Notifier
	limiter *safety.RateLimiter
	breaker *safety.CircuitBreaker
	dropped atomic.Int64
}

func NewGuardedNotifier(inner Notifier, limiter *safety.RateLimiter, breaker *safety.CircuitBreaker) *GuardedNotifier {
	return &GuardedNotifier{inner: inner, limiter: limiter, breaker: breaker}
}

// SendAlert drops throttled alerts silently and reports an open breaker as an error
func (g *GuardedNotifier) SendAlert(level, message string) error {
	if level != LevelError && g.limiter != nil && !g.limiter.Allow() {
		g.dropped.Add(1)
		return nil
	}
	if g.breaker == nil {
		return g.inner.SendAlert(level, message)
	}
	return g.breaker.Call(func() error {
		return g.inner.SendAlert(level, message)
	})
}

// Dropped returns how many alerts the rate limit suppressed
func (g *GuardedNotifier) Dropped() int64 {
	return g.dropped.Load()
}
