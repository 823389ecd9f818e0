package monitoring

import (
	"math"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/logger"
)

// InvariantGuard replaces non-finite values with a safe fallback and reports
// every replacement to the log and the invariant violation counter.
type InvariantGuard struct {
	component string
	log       *logger.Logger
}

// NewInvariantGuard creates a guard for a component. A nil logger only counts.
func NewInvariantGuard(component string, log *logger.Logger) *InvariantGuard {
	return &InvariantGuard{component: component, log: log}
}

// Finite returns v when it is finite and fallback otherwise
func (g *InvariantGuard) Finite(field string, v, fallback float64) float64 {
	if !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	if g == nil {
		return fallback
	}
	invariantViolations.WithLabelValues(g.component, field).Inc()
	if g.log != nil {
		g.log.LogInvariantViolation(g.component, field, v, fallback)
	}
	return fallback
}

// IsFinite reports whether v is neither NaN nor infinite
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
