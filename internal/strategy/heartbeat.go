package strategy

import "github.com/ducminhle1904/sleeve-risk-engine/internal/risk"

// HeartbeatOutput is the result of one sleeve heartbeat
type HeartbeatOutput struct {
	Plan         FuturesSleevePlan    `json:"plan"`
	OrderIntents []FuturesOrderIntent `json:"order_intents"`
}

// RunHeartbeat plans the sleeve and reconciles the plan with current positions
func (s *MacroFuturesSleeve) RunHeartbeat(ctx FuturesSleeveContext, budget FuturesRiskBudget, maxSleeveRiskEUR float64) HeartbeatOutput {
	plan := s.PlanSleeve(ctx, budget, maxSleeveRiskEUR)
	intents := BuildOrderIntents(plan.Contracts, ctx.CurrentPositions)

	if PlanningSuppressed(ctx) && len(intents) > 0 {
		s.logger.Warning("sizing suppressed (portfolio=%s sleeve=%s health=%s), flattening %d instrument(s)",
			ctx.RiskEnvelope.PortfolioHalt, ctx.RiskEnvelope.SleeveHalt, ctx.EngineHealth, len(intents))
	}

	return HeartbeatOutput{Plan: plan, OrderIntents: intents}
}

// MapHeartbeatToEngineOrders maps the heartbeat's order intents to venue orders
func (s *MacroFuturesSleeve) MapHeartbeatToEngineOrders(sleeveID risk.SleeveID, hb HeartbeatOutput) []EngineOrder {
	return MapOrderIntentsToEngineOrders(sleeveID, hb.OrderIntents)
}
