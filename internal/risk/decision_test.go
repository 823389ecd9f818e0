package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func healthyEnvelope() SleeveRiskEnvelope {
	return SleeveRiskEnvelope{
		SleeveID:               SleeveMicroFuturesMacroTrend,
		MaxPositionSizeUSD:     250,
		MaxConcurrentPositions: 3,
		ExposureRemainingUSD:   15_000,
		MarginRemainingUSD:     10_000,
	}
}

func TestEvaluateNewPositionRisk_Priority(t *testing.T) {
	tests := []struct {
		name   string
		open   int
		mutate func(*SleeveRiskEnvelope)
		want   RiskDecisionReason
	}{
		{"portfolio kill beats everything", 5, func(e *SleeveRiskEnvelope) {
			e.PortfolioHalt = HaltKill
			e.SleeveHalt = HaltKill
			e.MarginRemainingUSD = 0
		}, DecisionPortfolioHalt},
		{"sleeve halt before headroom", 0, func(e *SleeveRiskEnvelope) {
			e.SleeveHalt = HaltHalt
			e.MarginRemainingUSD = 0
		}, DecisionSleeveHalt},
		{"margin before exposure", 0, func(e *SleeveRiskEnvelope) {
			e.MarginRemainingUSD = 0
			e.ExposureRemainingUSD = 0
		}, DecisionNoMarginHeadroom},
		{"exposure before size", 0, func(e *SleeveRiskEnvelope) {
			e.ExposureRemainingUSD = 0
			e.MaxPositionSizeUSD = 0
		}, DecisionNoExposureHeadroom},
		{"size before concurrency", 3, func(e *SleeveRiskEnvelope) {
			e.MaxPositionSizeUSD = 0
		}, DecisionPositionSizeZero},
		{"concurrency ceiling reached", 3, func(e *SleeveRiskEnvelope) {}, DecisionConcurrencyLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := healthyEnvelope()
			tt.mutate(&env)

			d := EvaluateNewPositionRisk(SleeveState{OpenPositions: tt.open}, env)
			assert.False(t, d.AllowNewPosition)
			assert.Equal(t, tt.want, d.Reason)
			assert.Equal(t, 0, d.MaxNewPositions)
			assert.Equal(t, 0.0, d.MaxOrderNotionalUSD)
		})
	}
}

func TestEvaluateNewPositionRisk_Allow(t *testing.T) {
	d := EvaluateNewPositionRisk(SleeveState{OpenPositions: 1}, healthyEnvelope())

	assert.True(t, d.AllowNewPosition)
	assert.Equal(t, DecisionOk, d.Reason)
	assert.Equal(t, 2, d.MaxNewPositions)
	assert.Equal(t, 250.0, d.MaxOrderNotionalUSD)
}
