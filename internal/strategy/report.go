package strategy

import (
	"math"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
)

// SleeveRiskSanity is the outcome of comparing aggregate risk to the sleeve cap
type SleeveRiskSanity int

const (
	SanityOk SleeveRiskSanity = iota
	SanityExceedsCap
)

func (s SleeveRiskSanity) String() string {
	switch s {
	case SanityOk:
		return "Ok"
	case SanityExceedsCap:
		return "ExceedsCap"
	default:
		return "Unknown"
	}
}

// FuturesSleeveAggregate sums the planned risk of all instruments
type FuturesSleeveAggregate struct {
	TotalSignedContracts int     `json:"total_signed_contracts"`
	TotalAbsContracts    int     `json:"total_abs_contracts"`
	TotalRiskEUR         float64 `json:"total_risk_eur"`
	TotalNotionalUSD     float64 `json:"total_notional_usd"` // Σ risk_eur / eur_per_usd
	InstrumentCount      int     `json:"instrument_count"`
}

// FuturesSleevePlan is the full sizing plan of one heartbeat
type FuturesSleevePlan struct {
	Signals          []InstrumentSignal        `json:"signals"`
	Intents          []InstrumentRiskIntent    `json:"intents"`
	Positions        []FuturesPlannedPosition  `json:"positions"`
	Contracts        []FuturesPlannedContracts `json:"contracts"`
	Risks            []FuturesPlannedRisk      `json:"risks"`
	Aggregate        FuturesSleeveAggregate    `json:"aggregate"`
	Sanity           SleeveRiskSanity          `json:"sanity"`
	MaxSleeveRiskEUR float64                   `json:"max_sleeve_risk_eur"`
}

// AggregateSleeveRisk sums contracts and risk over instruments with a
// nonzero target. Without a usable EUR/USD rate the USD notional stays 0.
func AggregateSleeveRisk(risks []FuturesPlannedRisk, eurPerUSD float64) FuturesSleeveAggregate {
	var agg FuturesSleeveAggregate
	validFX := monitoring.IsFinite(eurPerUSD) && eurPerUSD > 0

	for _, r := range risks {
		if r.TargetContracts == 0 {
			continue
		}
		abs := r.TargetContracts
		if abs < 0 {
			abs = -abs
		}
		agg.TotalSignedContracts += r.TargetContracts
		agg.TotalAbsContracts += abs
		agg.TotalRiskEUR += r.TotalRiskEUR
		if validFX {
			agg.TotalNotionalUSD += r.TotalRiskEUR / eurPerUSD
		}
		agg.InstrumentCount++
	}
	return agg
}

// CheckSleeveRiskSanity compares aggregate EUR risk to the cap. A cap that
// is not finite or not positive means the sleeve is unconstrained.
func CheckSleeveRiskSanity(agg FuturesSleeveAggregate, maxSleeveRiskEUR float64) SleeveRiskSanity {
	if math.IsNaN(maxSleeveRiskEUR) || math.IsInf(maxSleeveRiskEUR, 0) || maxSleeveRiskEUR <= 0 {
		return SanityOk
	}
	if agg.TotalRiskEUR <= maxSleeveRiskEUR {
		return SanityOk
	}
	return SanityExceedsCap
}

// PlanSleeve runs signals, intents, USD planning, contract sizing and the
// risk report for one context.
func (s *MacroFuturesSleeve) PlanSleeve(ctx FuturesSleeveContext, budget FuturesRiskBudget, maxSleeveRiskEUR float64) FuturesSleevePlan {
	signals := s.EvaluateSignals(ctx.Histories, ctx.MacroScalars)
	intents := s.BuildRiskIntents(signals)
	positions := s.PlanPositionsUSD(ctx, intents)
	contracts, risks := PlanContracts(ctx.RiskEnvelope, positions, budget)
	agg := AggregateSleeveRisk(risks, ctx.EURPerUSD)
	sanity := CheckSleeveRiskSanity(agg, maxSleeveRiskEUR)

	if sanity == SanityExceedsCap {
		s.logger.Warning("sleeve %s risk %.2f EUR exceeds cap %.2f EUR",
			ctx.RiskEnvelope.SleeveID, agg.TotalRiskEUR, maxSleeveRiskEUR)
	}

	return FuturesSleevePlan{
		Signals:          signals,
		Intents:          intents,
		Positions:        positions,
		Contracts:        contracts,
		Risks:            risks,
		Aggregate:        agg,
		Sanity:           sanity,
		MaxSleeveRiskEUR: maxSleeveRiskEUR,
	}
}
