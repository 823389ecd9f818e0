package strategy

import (
	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/pkg/types"
)

// FuturesOrderIntent is the signed contract change needed to reach a target
type FuturesOrderIntent struct {
	Instrument       FutureInstrument `json:"instrument"`
	CurrentContracts int              `json:"current_contracts"`
	TargetContracts  int              `json:"target_contracts"`
	DeltaContracts   int              `json:"delta_contracts"`
}

// EngineOrder is a venue order handed to an order sink
type EngineOrder struct {
	SleeveID      risk.SleeveID    `json:"sleeve_id"`
	Instrument    FutureInstrument `json:"instrument"`
	Symbol        string           `json:"symbol"`
	Venue         string           `json:"venue"`
	Side          types.Side       `json:"side"`
	Quantity      int              `json:"quantity"`
	ClientOrderID string           `json:"client_order_id,omitempty"`
}

// BuildOrderIntents reconciles planned targets with current positions.
// Planned instruments move to their target; held instruments without a plan
// are flattened. This is the only path that closes risk when planning is
// suppressed.
func BuildOrderIntents(contracts []FuturesPlannedContracts, current map[FutureInstrument]int) []FuturesOrderIntent {
	targets := make(map[FutureInstrument]int, len(contracts))
	for _, c := range contracts {
		if c.TargetContracts != 0 {
			targets[c.Instrument] = c.TargetContracts
		}
	}

	var intents []FuturesOrderIntent
	for _, inst := range AllInstruments() {
		cur := current[inst]
		if target, ok := targets[inst]; ok {
			intents = append(intents, FuturesOrderIntent{
				Instrument:       inst,
				CurrentContracts: cur,
				TargetContracts:  target,
				DeltaContracts:   target - cur,
			})
			continue
		}
		if cur != 0 {
			intents = append(intents, FuturesOrderIntent{
				Instrument:       inst,
				CurrentContracts: cur,
				TargetContracts:  0,
				DeltaContracts:   -cur,
			})
		}
	}
	return intents
}

// MapOrderIntentsToEngineOrders turns nonzero deltas into venue orders
func MapOrderIntentsToEngineOrders(sleeveID risk.SleeveID, intents []FuturesOrderIntent) []EngineOrder {
	var orders []EngineOrder
	for _, in := range intents {
		if in.DeltaContracts == 0 {
			continue
		}
		qty := in.DeltaContracts
		if qty < 0 {
			qty = -qty
		}
		spec := in.Instrument.Spec()
		orders = append(orders, EngineOrder{
			SleeveID:   sleeveID,
			Instrument: in.Instrument,
			Symbol:     spec.Symbol,
			Venue:      spec.Venue,
			Side:       types.SideForDelta(in.DeltaContracts),
			Quantity:   qty,
		})
	}
	return orders
}
