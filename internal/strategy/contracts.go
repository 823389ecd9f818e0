package strategy

import (
	"math"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
)

// FuturesPlannedContracts is a signed contract target
type FuturesPlannedContracts struct {
	Instrument      FutureInstrument `json:"instrument"`
	TargetContracts int              `json:"target_contracts"`
}

// FuturesPlannedRisk is the EUR risk attached to a contract target
type FuturesPlannedRisk struct {
	Instrument         FutureInstrument `json:"instrument"`
	TargetContracts    int              `json:"target_contracts"`
	RiskPerContractEUR float64          `json:"risk_per_contract_eur"`
	TotalRiskEUR       float64          `json:"total_risk_eur"`
}

// PlanContracts converts USD targets into contracts. Each instrument gets a
// share of its own max contracts proportional to its share of the envelope,
// at least one, and the sleeve-wide contract budget is consumed in planning
// order. EUR risk is the instrument budget split evenly over its max
// contracts; it does not depend on price or FX.
func PlanContracts(env risk.SleeveRiskEnvelope, positions []FuturesPlannedPosition, budget FuturesRiskBudget) ([]FuturesPlannedContracts, []FuturesPlannedRisk) {
	if env.MaxPositionSizeUSD <= 0 || len(positions) == 0 {
		return nil, nil
	}

	targets := make(map[FutureInstrument]float64, len(positions))
	for _, p := range positions {
		targets[p.Instrument] = p.TargetNotionalUSD
	}

	remaining := budget.MaxTotalContracts
	var contracts []FuturesPlannedContracts
	var risks []FuturesPlannedRisk

	for _, inst := range AllInstruments() {
		target, ok := targets[inst]
		if !ok || target == 0 || math.IsNaN(target) {
			continue
		}
		ib := budget.For(inst)
		if ib.MaxContracts <= 0 || remaining <= 0 {
			continue
		}

		absFrac := math.Max(0, math.Min(1, math.Abs(target)/env.MaxPositionSizeUSD))
		n := int(math.Round(float64(ib.MaxContracts) * absFrac))
		if absFrac > 0 && n < 1 {
			n = 1
		}
		n = min(n, ib.MaxContracts, remaining)
		if n <= 0 {
			continue
		}
		remaining -= n

		signed := n
		if target < 0 {
			signed = -n
		}
		perContract := ib.MaxRiskPerPositionEUR / float64(ib.MaxContracts)

		contracts = append(contracts, FuturesPlannedContracts{Instrument: inst, TargetContracts: signed})
		risks = append(risks, FuturesPlannedRisk{
			Instrument:         inst,
			TargetContracts:    signed,
			RiskPerContractEUR: perContract,
			TotalRiskEUR:       perContract * float64(n),
		})
	}
	return contracts, risks
}
