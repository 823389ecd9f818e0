package regime

import "math"

// VolatilityClassifier maps a volatility snapshot to a discrete regime and
// the sizing scalar attached to it.
type VolatilityClassifier struct {
	config *VolatilityConfig
}

// NewVolatilityClassifier creates a classifier. A nil config uses the defaults.
func NewVolatilityClassifier(config *VolatilityConfig) *VolatilityClassifier {
	if config == nil {
		config = DefaultVolatilityConfig()
	}
	return &VolatilityClassifier{config: config}
}

// Classify evaluates the regimes from most to least severe. The first match wins.
func (c *VolatilityClassifier) Classify(s Snapshot) VolatilityRegimeType {
	cfg := c.config

	if s.VIXLevel >= cfg.StressVIX || s.RealizedVol10d >= cfg.StressRV || s.VIXTermSlope < 0 {
		return RegimeStress
	}
	if s.VIXLevel >= cfg.ElevatedVIX || s.RealizedVol10d >= cfg.ElevatedRV {
		return RegimeElevated
	}
	if s.VIXLevel < cfg.LowVolVIX && s.RealizedVol10d < cfg.LowVolRV && s.VIXTermSlope > cfg.LowVolMinSlope {
		return RegimeLowVol
	}
	return RegimeNormal
}

// ScalarFor returns the clamped sizing scalar of a regime
func (c *VolatilityClassifier) ScalarFor(r VolatilityRegimeType) float64 {
	var scalar float64
	switch r {
	case RegimeStress:
		scalar = c.config.StressScalar
	case RegimeElevated:
		scalar = c.config.ElevatedScalar
	case RegimeLowVol:
		scalar = c.config.LowVolScalar
	default:
		scalar = c.config.NormalScalar
	}
	return math.Max(c.config.MinScalar, math.Min(c.config.MaxScalar, scalar))
}

// Scalar classifies the snapshot and returns the regime scalar in one step
func (c *VolatilityClassifier) Scalar(s Snapshot) (VolatilityRegimeType, float64) {
	r := c.Classify(s)
	return r, c.ScalarFor(r)
}
