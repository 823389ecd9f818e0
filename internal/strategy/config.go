package strategy

import (
	"fmt"
	"math"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/errors"
)

// MinHistoryBars is the number of daily bars required before a signal is computed
const MinHistoryBars = 120

// MacroFuturesSleeveConfig holds the signal parameters of the macro sleeve
type MacroFuturesSleeveConfig struct {
	// Trend scoring
	TrendWeight20d  float64 `json:"trend_weight_20d" yaml:"trend_weight_20d"`
	TrendWeight60d  float64 `json:"trend_weight_60d" yaml:"trend_weight_60d"`
	TrendWeight120d float64 `json:"trend_weight_120d" yaml:"trend_weight_120d"`
	BreakoutWeight  float64 `json:"breakout_weight" yaml:"breakout_weight"`
	TrendScoreClip  float64 `json:"trend_score_clip" yaml:"trend_score_clip"`

	// Carry
	CarryScoreClip float64 `json:"carry_score_clip" yaml:"carry_score_clip"`
	CarryVolFloor  float64 `json:"carry_vol_floor" yaml:"carry_vol_floor"`
	CarryWeight6E  float64 `json:"carry_weight_6e" yaml:"carry_weight_6e"`

	EffectiveScoreClip float64 `json:"effective_score_clip" yaml:"effective_score_clip"`

	// Logistic conviction mapping
	LogisticK float64 `json:"logistic_k" yaml:"logistic_k"`
	LogisticM float64 `json:"logistic_m" yaml:"logistic_m"`

	// Flat thresholds
	MinEffectiveScore float64 `json:"min_effective_score" yaml:"min_effective_score"`
	MinConviction     float64 `json:"min_conviction" yaml:"min_conviction"`

	// Stop distance in ATRs. Carried for the execution layer, not read by sizing.
	ATRStopMultiple      float64 `json:"atr_stop_multiple" yaml:"atr_stop_multiple"`
	ATRTrailStopMultiple float64 `json:"atr_trail_stop_multiple" yaml:"atr_trail_stop_multiple"`
}

// DefaultMacroFuturesSleeveConfig returns the production signal parameters
func DefaultMacroFuturesSleeveConfig() MacroFuturesSleeveConfig {
	return MacroFuturesSleeveConfig{
		TrendWeight20d:       0.45,
		TrendWeight60d:       0.30,
		TrendWeight120d:      0.15,
		BreakoutWeight:       0.10,
		TrendScoreClip:       3.0,
		CarryScoreClip:       2.0,
		CarryVolFloor:        0.25,
		CarryWeight6E:        0.5,
		EffectiveScoreClip:   5.0,
		LogisticK:            1.3,
		LogisticM:            1.3,
		MinEffectiveScore:    1.2,
		MinConviction:        0.35,
		ATRStopMultiple:      2.5,
		ATRTrailStopMultiple: 3.0,
	}
}

type namedParam struct {
	name  string
	value float64
}

// Validate rejects parameters that would make the pipeline non-finite.
// Fields are checked in declaration order so the first bad one is reported.
func (c MacroFuturesSleeveConfig) Validate() error {
	fields := []namedParam{
		{"trend_weight_20d", c.TrendWeight20d},
		{"trend_weight_60d", c.TrendWeight60d},
		{"trend_weight_120d", c.TrendWeight120d},
		{"breakout_weight", c.BreakoutWeight},
		{"trend_score_clip", c.TrendScoreClip},
		{"carry_score_clip", c.CarryScoreClip},
		{"carry_vol_floor", c.CarryVolFloor},
		{"carry_weight_6e", c.CarryWeight6E},
		{"effective_score_clip", c.EffectiveScoreClip},
		{"logistic_k", c.LogisticK},
		{"logistic_m", c.LogisticM},
		{"min_effective_score", c.MinEffectiveScore},
		{"min_conviction", c.MinConviction},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return errors.NewConfigurationError("MacroFuturesSleeve", "Validate", fmt.Sprintf("%s must be finite", f.name))
		}
	}

	nonNegative := []namedParam{
		{"trend_score_clip", c.TrendScoreClip},
		{"carry_score_clip", c.CarryScoreClip},
		{"carry_vol_floor", c.CarryVolFloor},
		{"effective_score_clip", c.EffectiveScoreClip},
	}
	for _, f := range nonNegative {
		if f.value < 0 {
			return errors.NewConfigurationError("MacroFuturesSleeve", "Validate", fmt.Sprintf("%s must not be negative", f.name))
		}
	}

	if c.MinConviction < 0 || c.MinConviction > 1 {
		return errors.NewConfigurationError("MacroFuturesSleeve", "Validate", "min_conviction must be within [0, 1]")
	}
	return nil
}
