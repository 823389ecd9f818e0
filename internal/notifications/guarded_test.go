package notifications

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/safety"
)

type recordingNotifier struct {
	sent []string
	err  error
}

func (r *recordingNotifier) SendAlert(level, message string) error {
	r.sent = append(r.sent, level+":"+message)
	return r.err
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestGuardedNotifier_RateLimit(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)}
	inner := &recordingNotifier{}
	limiter := safety.NewRateLimiter("alerts", 2, 1).WithClock(clock.now)
	g := NewGuardedNotifier(inner, limiter, nil)

	require.NoError(t, g.SendAlert(LevelWarning, "a"))
	require.NoError(t, g.SendAlert(LevelWarning, "b"))
	require.NoError(t, g.SendAlert(LevelWarning, "c"))
	require.NoError(t, g.SendAlert(LevelError, "d"))

	assert.Equal(t, []string{"warning:a", "warning:b", "error:d"}, inner.sent)
	assert.EqualValues(t, 1, g.Dropped())

	clock.t = clock.t.Add(time.Hour)
	require.NoError(t, g.SendAlert(LevelInfo, "e"))
	assert.Len(t, inner.sent, 4)
}

func TestGuardedNotifier_BreakerOpensAndRecovers(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)}
	inner := &recordingNotifier{err: errors.New("telegram down")}
	breaker := safety.NewCircuitBreaker("telegram", safety.CircuitBreakerConfig{
		FailureThreshold: 2,
		Timeout:          time.Hour,
	}).WithClock(clock.now)
	g := NewGuardedNotifier(inner, nil, breaker)

	assert.Error(t, g.SendAlert(LevelError, "1"))
	assert.Error(t, g.SendAlert(LevelError, "2"))
	assert.Equal(t, safety.StateOpen, breaker.GetState())

	err := g.SendAlert(LevelError, "3")
	var open *safety.ErrOpen
	require.ErrorAs(t, err, &open)
	assert.Len(t, inner.sent, 2)

	inner.err = nil
	clock.t = clock.t.Add(time.Hour)
	require.NoError(t, g.SendAlert(LevelError, "4"))
	assert.Equal(t, safety.StateClosed, breaker.GetState())
	assert.Len(t, inner.sent, 3)
}
