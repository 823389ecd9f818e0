package monitoring

import (
	"sync"
	"time"
)

// EngineHealth is the liveness verdict fed to the planner
type EngineHealth int

const (
	EngineHealthy EngineHealth = iota
	EngineDegraded
)

func (h EngineHealth) String() string {
	switch h {
	case EngineHealthy:
		return "Healthy"
	case EngineDegraded:
		return "Degraded"
	default:
		return "Unknown"
	}
}

// HeartbeatSupervisor flags the engine as degraded when the gap between two
// consecutive ticks exceeds maxGap.
type HeartbeatSupervisor struct {
	mu       sync.RWMutex
	lastTick time.Time
	hasTick  bool
	maxGap   time.Duration
	health   EngineHealth
	lastGap  time.Duration
	started  time.Time
}

// NewHeartbeatSupervisor creates a supervisor. It starts Healthy.
func NewHeartbeatSupervisor(maxGap time.Duration) *HeartbeatSupervisor {
	return &HeartbeatSupervisor{
		maxGap:  maxGap,
		health:  EngineHealthy,
		started: time.Now(),
	}
}

// RegisterTick records a tick and returns the resulting health
func (s *HeartbeatSupervisor) RegisterTick(ts time.Time) EngineHealth {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasTick {
		s.hasTick = true
		s.lastTick = ts
		s.lastGap = 0
		s.health = EngineHealthy
		return s.health
	}

	s.lastGap = ts.Sub(s.lastTick)
	if s.lastGap > s.maxGap {
		s.health = EngineDegraded
	} else {
		s.health = EngineHealthy
	}
	s.lastTick = ts
	return s.health
}

// Health returns the verdict of the last registered tick
func (s *HeartbeatSupervisor) Health() EngineHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}

// LastTick returns the last tick time and whether any tick was seen
func (s *HeartbeatSupervisor) LastTick() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTick, s.hasTick
}

// LastGap returns the interval between the last two ticks
func (s *HeartbeatSupervisor) LastGap() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastGap
}

// MaxGap returns the configured maximum tick interval
func (s *HeartbeatSupervisor) MaxGap() time.Duration {
	return s.maxGap
}

// Uptime returns the time since the supervisor was created
func (s *HeartbeatSupervisor) Uptime() time.Duration {
	return time.Since(s.started)
}
