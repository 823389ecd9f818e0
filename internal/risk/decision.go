package risk

// EvaluateNewPositionRisk answers whether a sleeve may open one more position
// under its envelope. Rejections are checked in priority order and the first
// hit is returned.
func EvaluateNewPositionRisk(state SleeveState, env SleeveRiskEnvelope) RiskDecision {
	reject := func(reason RiskDecisionReason) RiskDecision {
		return RiskDecision{Reason: reason}
	}

	switch {
	case env.PortfolioHalt.Active():
		return reject(DecisionPortfolioHalt)
	case env.SleeveHalt.Active():
		return reject(DecisionSleeveHalt)
	case env.MarginRemainingUSD <= 0:
		return reject(DecisionNoMarginHeadroom)
	case env.ExposureRemainingUSD <= 0:
		return reject(DecisionNoExposureHeadroom)
	case env.MaxPositionSizeUSD <= 0:
		return reject(DecisionPositionSizeZero)
	case state.OpenPositions >= env.MaxConcurrentPositions:
		return reject(DecisionConcurrencyLimit)
	}

	return RiskDecision{
		AllowNewPosition:    true,
		MaxNewPositions:     env.MaxConcurrentPositions - state.OpenPositions,
		MaxOrderNotionalUSD: env.MaxPositionSizeUSD,
		Reason:              DecisionOk,
	}
}
