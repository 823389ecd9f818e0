package risk

import "math"

// ComputeDrawdown returns equity/peak - 1, or 0 when no peak exists yet
func ComputeDrawdown(equity, peak float64) float64 {
	if peak <= 0 {
		return 0
	}
	return equity/peak - 1
}

// HaltStateFor maps a drawdown onto the halt ladder. Kill is checked first
// because its threshold is the more negative one.
func HaltStateFor(drawdown, haltFrac, killFrac float64) HaltState {
	switch {
	case drawdown <= killFrac:
		return HaltKill
	case drawdown <= haltFrac:
		return HaltHalt
	default:
		return HaltNone
	}
}

// RiskStateFor mirrors a portfolio halt state into the observability classification
func RiskStateFor(h HaltState) PortfolioRiskState {
	switch h {
	case HaltKill:
		return PortfolioRiskStress
	case HaltHalt:
		return PortfolioRiskCaution
	default:
		return PortfolioRiskNormal
	}
}

// LeverageScalar shrinks sizing as current leverage approaches the maximum.
//
//	x <= 0.3        1.10 - 0.25x
//	0.3 < x <= 0.7  1.03 - 0.20(x-0.3)
//	0.7 < x < 1     0.95 - 2.17(x-0.7)
//	x >= 1          0
func LeverageScalar(currentLeverage, maxLeverage float64) float64 {
	maxLev := math.Max(maxLeverage, 0.1)
	x := math.Max(currentLeverage, 0) / maxLev

	if x >= 1.0 {
		return 0
	}

	var scalar float64
	switch {
	case x <= 0.3:
		scalar = 1.10 - 0.25*x
	case x <= 0.7:
		scalar = 1.03 - 0.20*(x-0.3)
	default:
		scalar = 0.95 - 2.17*(x-0.7)
	}
	return math.Max(0, math.Min(1.10, scalar))
}

// ExposureRemaining returns the unused leverage capacity in USD
func ExposureRemaining(equity, maxLeverage, totalNotional float64) float64 {
	return math.Max(0, maxLeverage*equity-totalNotional)
}

// MarginRemaining returns equity minus the binding margin requirement.
// The broker figure always wins when it is the larger one.
func MarginRemaining(equity float64, margin MarginState) float64 {
	binding := math.Max(margin.InternalMarginReqUSD, margin.BrokerMarginReqUSD)
	return math.Max(0, equity-binding)
}

// ConcurrencyBudget splits the free global slots evenly across sleeves
func ConcurrencyBudget(maxGlobal int, sleeves []SleeveState) (remaining, extraPerSleeve int) {
	open := 0
	for _, s := range sleeves {
		open += s.OpenPositions
	}
	remaining = maxGlobal - open
	if remaining < 0 {
		remaining = 0
	}
	if remaining == 0 || len(sleeves) == 0 {
		return remaining, 0
	}
	return remaining, remaining / len(sleeves)
}
