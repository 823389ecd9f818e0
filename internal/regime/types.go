package regime

// VolatilityRegimeType classifies the current market volatility backdrop
type VolatilityRegimeType int

const (
	RegimeNormal VolatilityRegimeType = iota
	RegimeLowVol
	RegimeElevated
	RegimeStress
)

func (r VolatilityRegimeType) String() string {
	switch r {
	case RegimeNormal:
		return "NORMAL"
	case RegimeLowVol:
		return "LOW_VOL"
	case RegimeElevated:
		return "ELEVATED"
	case RegimeStress:
		return "STRESS"
	default:
		return "UNKNOWN"
	}
}

// Snapshot holds the volatility inputs used for classification
type Snapshot struct {
	RealizedVol10d float64 `json:"rv10_annualized"` // annualized, in vol points
	VIXLevel       float64 `json:"vix_level"`
	VIXTermSlope   float64 `json:"vix_term_slope"` // negative = inverted curve
}

// VolatilityConfig holds the thresholds and scalars for each regime
type VolatilityConfig struct {
	StressVIX      float64 `json:"stress_vix"`       // 35
	StressRV       float64 `json:"stress_rv"`        // 30
	ElevatedVIX    float64 `json:"elevated_vix"`     // 25
	ElevatedRV     float64 `json:"elevated_rv"`      // 20
	LowVolVIX      float64 `json:"low_vol_vix"`      // 15
	LowVolRV       float64 `json:"low_vol_rv"`       // 12
	LowVolMinSlope float64 `json:"low_vol_min_slope"` // 0.5

	StressScalar   float64 `json:"stress_scalar"`
	ElevatedScalar float64 `json:"elevated_scalar"`
	LowVolScalar   float64 `json:"low_vol_scalar"`
	NormalScalar   float64 `json:"normal_scalar"`

	MinScalar float64 `json:"min_scalar"`
	MaxScalar float64 `json:"max_scalar"`
}

// DefaultVolatilityConfig returns the production regime thresholds
func DefaultVolatilityConfig() *VolatilityConfig {
	return &VolatilityConfig{
		StressVIX:      35.0,
		StressRV:       30.0,
		ElevatedVIX:    25.0,
		ElevatedRV:     20.0,
		LowVolVIX:      15.0,
		LowVolRV:       12.0,
		LowVolMinSlope: 0.5,
		StressScalar:   0.55,
		ElevatedScalar: 0.80,
		LowVolScalar:   1.25,
		NormalScalar:   1.00,
		MinScalar:      0.5,
		MaxScalar:      1.3,
	}
}
