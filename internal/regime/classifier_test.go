package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolatilityClassifier_Classify(t *testing.T) {
	c := NewVolatilityClassifier(nil)

	tests := []struct {
		name     string
		snapshot Snapshot
		want     VolatilityRegimeType
		scalar   float64
	}{
		{"vix stress", Snapshot{RealizedVol10d: 10, VIXLevel: 35, VIXTermSlope: 1}, RegimeStress, 0.55},
		{"rv stress", Snapshot{RealizedVol10d: 30, VIXLevel: 14, VIXTermSlope: 1}, RegimeStress, 0.55},
		{"inverted curve", Snapshot{RealizedVol10d: 10, VIXLevel: 14, VIXTermSlope: -0.1}, RegimeStress, 0.55},
		{"vix elevated", Snapshot{RealizedVol10d: 10, VIXLevel: 25, VIXTermSlope: 0.3}, RegimeElevated, 0.80},
		{"rv elevated", Snapshot{RealizedVol10d: 20, VIXLevel: 18, VIXTermSlope: 0.3}, RegimeElevated, 0.80},
		{"low vol", Snapshot{RealizedVol10d: 10, VIXLevel: 13, VIXTermSlope: 0.8}, RegimeLowVol, 1.25},
		{"low vol needs steep slope", Snapshot{RealizedVol10d: 10, VIXLevel: 13, VIXTermSlope: 0.5}, RegimeNormal, 1.0},
		{"normal", Snapshot{RealizedVol10d: 12, VIXLevel: 18, VIXTermSlope: 0.3}, RegimeNormal, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, scalar := c.Scalar(tt.snapshot)
			assert.Equal(t, tt.want, r)
			assert.InDelta(t, tt.scalar, scalar, 1e-12)
		})
	}
}

func TestVolatilityClassifier_ScalarClamped(t *testing.T) {
	cfg := DefaultVolatilityConfig()
	cfg.LowVolScalar = 2.0
	cfg.StressScalar = 0.1
	c := NewVolatilityClassifier(cfg)

	assert.Equal(t, 1.3, c.ScalarFor(RegimeLowVol))
	assert.Equal(t, 0.5, c.ScalarFor(RegimeStress))
}

func TestVolatilityRegimeType_String(t *testing.T) {
	assert.Equal(t, "STRESS", RegimeStress.String())
	assert.Equal(t, "LOW_VOL", RegimeLowVol.String())
	assert.Equal(t, "UNKNOWN", VolatilityRegimeType(42).String())
}
