package safety

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Refill(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter("t", 3, 2).WithClock(func() time.Time { return now })

	assert.True(t, rl.AllowN(3))
	assert.False(t, rl.Allow())

	now = now.Add(30 * time.Minute)
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	now = now.Add(24 * time.Hour)
	assert.Equal(t, 3, rl.GetStats().Tokens)
}

func TestCircuitBreaker_States(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	var transitions []string
	cb := NewCircuitBreaker("t", CircuitBreakerConfig{FailureThreshold: 2, Timeout: time.Minute}).
		WithClock(func() time.Time { return now })
	cb.SetStateChangeCallback(func(from, to CircuitBreakerState) {
		transitions = append(transitions, from.String()+">"+to.String())
	})

	fail := func() error { return errors.New("boom") }
	ok := func() error { return nil }

	assert.Error(t, cb.Call(fail))
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Error(t, cb.Call(fail))
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	var open *ErrOpen
	require.ErrorAs(t, err, &open)
	assert.False(t, called)

	now = now.Add(time.Minute)
	assert.Error(t, cb.Call(fail))
	assert.Equal(t, StateOpen, cb.GetState())

	now = now.Add(time.Minute)
	require.NoError(t, cb.Call(ok))
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Zero(t, cb.GetStats().Failures)

	assert.Equal(t, []string{
		"CLOSED>OPEN",
		"OPEN>HALF_OPEN",
		"HALF_OPEN>OPEN",
		"OPEN>HALF_OPEN",
		"HALF_OPEN>CLOSED",
	}, transitions)
}
