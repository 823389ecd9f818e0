package strategy

import (
	"math"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/logger"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
)

// MacroFuturesSleeve turns feature history into trade signals, contract
// targets and order intents for MES, MNQ and 6E.
type MacroFuturesSleeve struct {
	cfg    MacroFuturesSleeveConfig
	guard  *monitoring.InvariantGuard
	logger *logger.Logger
}

// NewMacroFuturesSleeve validates the config and creates the sleeve
func NewMacroFuturesSleeve(cfg MacroFuturesSleeveConfig, log *logger.Logger) (*MacroFuturesSleeve, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Discard()
	}
	return &MacroFuturesSleeve{
		cfg:    cfg,
		guard:  monitoring.NewInvariantGuard("macro_futures_sleeve", log),
		logger: log,
	}, nil
}

// Config returns the signal parameters
func (s *MacroFuturesSleeve) Config() MacroFuturesSleeveConfig {
	return s.cfg
}

// EvaluateSignals computes one signal per instrument that has history, in
// planning order. Identical inputs always give identical output.
func (s *MacroFuturesSleeve) EvaluateSignals(histories map[FutureInstrument]InstrumentHistory, macro MacroScalars) []InstrumentSignal {
	out := make([]InstrumentSignal, 0, len(histories))
	for _, inst := range AllInstruments() {
		hist, ok := histories[inst]
		if !ok {
			continue
		}
		sig := s.EvaluateInstrument(inst, hist, macro)
		monitoring.UpdateSignalConviction(inst.String(), int(sig.Reason), sig.Final.Conviction)
		out = append(out, sig)
	}
	return out
}

// EvaluateInstrument runs the full signal pipeline for one instrument
func (s *MacroFuturesSleeve) EvaluateInstrument(inst FutureInstrument, hist InstrumentHistory, macro MacroScalars) InstrumentSignal {
	if reason := ValidateHistory(hist); reason != ReasonNormal {
		return flatSignal(inst, reason)
	}
	if !monitoring.IsFinite(macro.RiskOnScalar) || !monitoring.IsFinite(macro.USDScalar) {
		// a non-finite scalar zeroes its leg, so the score falls below threshold
		s.logger.Warning("%s: non-finite macro scalars (risk_on=%v usd=%v)", inst, macro.RiskOnScalar, macro.USDScalar)
		macro.RiskOnScalar = s.guard.Finite("macro_risk_on", macro.RiskOnScalar, 0)
		macro.USDScalar = s.guard.Finite("macro_usd", macro.USDScalar, 0)
	}

	last, _ := hist.Last()
	raw := RawSignal{
		TrendScore: s.trendScore(last),
		CarryScore: s.carryScore(inst, last),
	}
	adj := s.applyMacro(inst, raw, macro)
	eff := s.effectiveScore(inst, adj)
	conv := s.Conviction(eff)
	final, reason := s.finalSignal(eff, conv)

	if reason == ReasonInvalidData {
		return flatSignal(inst, reason)
	}
	return InstrumentSignal{
		Instrument: inst,
		Final:      final,
		Raw:        raw,
		MacroAdj:   adj,
		Reason:     reason,
	}
}

// ValidateHistory checks the history length and the latest bar. It returns
// ReasonNormal when the history is usable.
func ValidateHistory(hist InstrumentHistory) SignalReason {
	if len(hist.Bars) < MinHistoryBars {
		return ReasonInsufficientHistory
	}
	last, _ := hist.Last()
	if !validFeatures(last) {
		return ReasonInvalidData
	}
	return ReasonNormal
}

func validFeatures(bar DailyFeatureBar) bool {
	pos := func(x float64) bool { return monitoring.IsFinite(x) && x > 0 }
	finite := monitoring.IsFinite

	if !pos(bar.Open) || !pos(bar.High) || !pos(bar.Low) || !pos(bar.Close) {
		return false
	}
	// zero volume is fine, negative is not
	if !finite(bar.Volume) || bar.Volume < 0 {
		return false
	}
	if !pos(bar.ATR14) || !pos(bar.Vol20d) || !pos(bar.Vol60d) || !pos(bar.Vol120d) {
		return false
	}
	if !finite(bar.Ret20d) || !finite(bar.Ret60d) || !finite(bar.Ret120d) {
		return false
	}
	if !pos(bar.HighestClose50d) || !pos(bar.LowestClose50d) {
		return false
	}
	if fx := bar.FxCarry; fx != nil {
		if !finite(fx.CarryRateAnnualized) || !pos(fx.CarryRateVol252d) {
			return false
		}
	}
	return true
}

func (s *MacroFuturesSleeve) trendScore(bar DailyFeatureBar) float64 {
	z20 := bar.Ret20d / bar.Vol20d
	z60 := bar.Ret60d / bar.Vol60d
	z120 := bar.Ret120d / bar.Vol120d

	breakout := 0.0
	switch {
	case bar.Close > bar.HighestClose50d:
		breakout = 1
	case bar.Close < bar.LowestClose50d:
		breakout = -1
	}

	raw := s.cfg.TrendWeight20d*z20 +
		s.cfg.TrendWeight60d*z60 +
		s.cfg.TrendWeight120d*z120 +
		s.cfg.BreakoutWeight*breakout

	return s.clip("trend_score", raw, s.cfg.TrendScoreClip)
}

// carryScore is zero for everything but 6E, and zero for 6E without carry features
func (s *MacroFuturesSleeve) carryScore(inst FutureInstrument, bar DailyFeatureBar) float64 {
	if !inst.IsFX() || bar.FxCarry == nil {
		return 0
	}
	floor := math.Max(s.cfg.CarryVolFloor, math.SmallestNonzeroFloat64)
	denom := math.Max(bar.FxCarry.CarryRateVol252d, floor)
	return s.clip("carry_score", bar.FxCarry.CarryRateAnnualized/denom, s.cfg.CarryScoreClip)
}

// applyMacro scales trend by risk-on (indices) or risk-on times USD (6E),
// and carry by the 6E carry weight times USD.
func (s *MacroFuturesSleeve) applyMacro(inst FutureInstrument, raw RawSignal, macro MacroScalars) MacroAdjustedSignal {
	trendScalar := macro.RiskOnScalar
	carryScalar := 0.0
	if inst.IsFX() {
		trendScalar = macro.RiskOnScalar * macro.USDScalar
		carryScalar = s.cfg.CarryWeight6E * macro.USDScalar
	}
	return MacroAdjustedSignal{
		TrendMacroAdjusted: raw.TrendScore * trendScalar,
		CarryMacroAdjusted: raw.CarryScore * carryScalar,
	}
}

func (s *MacroFuturesSleeve) effectiveScore(inst FutureInstrument, adj MacroAdjustedSignal) float64 {
	eff := adj.TrendMacroAdjusted
	if inst.IsFX() {
		eff += adj.CarryMacroAdjusted
	}
	return s.clip("effective_score", eff, s.cfg.EffectiveScoreClip)
}

// Conviction maps |effective score| through a logistic curve into [0, 1].
// A non-finite score has no conviction.
func (s *MacroFuturesSleeve) Conviction(effectiveScore float64) float64 {
	if !monitoring.IsFinite(effectiveScore) {
		s.guard.Finite("conviction_input", effectiveScore, 0)
		return 0
	}
	z := s.cfg.LogisticK * (math.Abs(effectiveScore) - s.cfg.LogisticM)
	c := 1.0 / (1.0 + math.Exp(-z))
	return math.Max(0, math.Min(1, c))
}

func (s *MacroFuturesSleeve) finalSignal(eff, conv float64) (FinalTradeSignal, SignalReason) {
	if !monitoring.IsFinite(eff) || !monitoring.IsFinite(conv) {
		s.guard.Finite("final_effective_score", eff, 0)
		s.guard.Finite("final_conviction", conv, 0)
		return FinalTradeSignal{}, ReasonInvalidData
	}

	if math.Abs(eff) < s.cfg.MinEffectiveScore || conv < s.cfg.MinConviction {
		// keep the numbers for reporting, just do not trade
		return FinalTradeSignal{Direction: 0, Conviction: conv, EffectiveScore: eff}, ReasonBelowThreshold
	}

	direction := 1
	if eff < 0 {
		direction = -1
	}
	return FinalTradeSignal{Direction: direction, Conviction: conv, EffectiveScore: eff}, ReasonNormal
}

// clip bounds v to ±|limit|. NaN becomes 0 and infinities become the bound;
// both are reported as invariant violations.
func (s *MacroFuturesSleeve) clip(field string, v, limit float64) float64 {
	limit = math.Abs(limit)
	switch {
	case math.IsNaN(v):
		return s.guard.Finite(field, v, 0)
	case math.IsInf(v, 1):
		return s.guard.Finite(field, v, limit)
	case math.IsInf(v, -1):
		return s.guard.Finite(field, v, -limit)
	}
	return math.Max(-limit, math.Min(limit, v))
}

func flatSignal(inst FutureInstrument, reason SignalReason) InstrumentSignal {
	return InstrumentSignal{Instrument: inst, Reason: reason}
}
