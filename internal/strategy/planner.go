package strategy

import (
	"math"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
)

// minPlannedNotionalUSD is the smallest USD target worth planning
const minPlannedNotionalUSD = 1.0

// InstrumentRiskIntent is the signed share of the envelope an instrument wants
type InstrumentRiskIntent struct {
	Instrument      FutureInstrument `json:"instrument"`
	Direction       int              `json:"direction"`
	Conviction      float64          `json:"conviction"`
	DesiredRiskFrac float64          `json:"desired_risk_frac"` // -1..1
}

// FuturesPlannedPosition is a signed USD notional target
type FuturesPlannedPosition struct {
	Instrument        FutureInstrument `json:"instrument"`
	TargetNotionalUSD float64          `json:"target_notional_usd"`
}

// BuildRiskIntents converts signals into desired risk fractions
func (s *MacroFuturesSleeve) BuildRiskIntents(signals []InstrumentSignal) []InstrumentRiskIntent {
	intents := make([]InstrumentRiskIntent, 0, len(signals))
	for _, sig := range signals {
		frac := float64(sig.Final.Direction) * sig.Final.Conviction
		frac = s.guard.Finite("desired_risk_frac", frac, 0)
		intents = append(intents, InstrumentRiskIntent{
			Instrument:      sig.Instrument,
			Direction:       sig.Final.Direction,
			Conviction:      sig.Final.Conviction,
			DesiredRiskFrac: math.Max(-1, math.Min(1, frac)),
		})
	}
	return intents
}

// PlanningSuppressed reports whether the context forbids any new sizing
func PlanningSuppressed(ctx FuturesSleeveContext) bool {
	env := ctx.RiskEnvelope
	return env.AnyHalt() ||
		env.MaxPositionSizeUSD <= 0 ||
		env.MaxConcurrentPositions == 0 ||
		ctx.EngineHealth == monitoring.EngineDegraded
}

// PlanPositionsUSD sizes intents in USD against the envelope. Headroom and
// concurrency slots are consumed in planning order, so earlier instruments
// win when capacity runs out. Existing positions are flattened by the order
// reconciliation, not here.
func (s *MacroFuturesSleeve) PlanPositionsUSD(ctx FuturesSleeveContext, intents []InstrumentRiskIntent) []FuturesPlannedPosition {
	if PlanningSuppressed(ctx) {
		return nil
	}

	env := ctx.RiskEnvelope
	byInstrument := make(map[FutureInstrument]InstrumentRiskIntent, len(intents))
	for _, in := range intents {
		byInstrument[in.Instrument] = in
	}

	openCount := 0
	for _, inst := range AllInstruments() {
		if ctx.CurrentPositions[inst] != 0 {
			openCount++
		}
	}
	freeSlots := env.MaxConcurrentPositions - openCount

	exposureLeft := env.ExposureRemainingUSD
	marginLeft := env.MarginRemainingUSD

	var planned []FuturesPlannedPosition
	for _, inst := range AllInstruments() {
		intent, ok := byInstrument[inst]
		if !ok || intent.Direction == 0 || intent.Conviction == 0 {
			continue
		}
		if exposureLeft <= 0 || marginLeft <= 0 {
			break
		}

		wasFlat := ctx.CurrentPositions[inst] == 0
		if wasFlat && freeSlots <= 0 {
			continue
		}

		target := s.guard.Finite("target_notional_usd", intent.DesiredRiskFrac*env.MaxPositionSizeUSD, 0)
		if math.Abs(target) < minPlannedNotionalUSD {
			continue
		}

		capUSD := math.Min(exposureLeft, marginLeft)
		if math.Abs(target) > capUSD {
			target = math.Copysign(capUSD, target)
			if math.Abs(target) < minPlannedNotionalUSD {
				continue
			}
		}

		exposureLeft -= math.Abs(target)
		marginLeft -= math.Abs(target)
		if wasFlat {
			freeSlots--
		}

		planned = append(planned, FuturesPlannedPosition{Instrument: inst, TargetNotionalUSD: target})
	}
	return planned
}
