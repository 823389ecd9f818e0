package execution

import (
	"encoding/json"
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
)

// GapDetectedMsg is the message of the supervisor event written when ticks are late
const GapDetectedMsg = "heartbeat_gap_detected"

// OrderLogEvent is one engine order as a JSON log line
type OrderLogEvent struct {
	TsUTC         int64  `json:"ts_utc"` // unix seconds
	SleeveID      string `json:"sleeve_id"`
	Symbol        string `json:"symbol"`
	Venue         string `json:"venue"`
	Side          string `json:"side"` // Buy or Sell
	Quantity      int    `json:"quantity"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

// NewOrderLogEvent converts an engine order for logging
func NewOrderLogEvent(order strategy.EngineOrder, ts time.Time) OrderLogEvent {
	return OrderLogEvent{
		TsUTC:         ts.UTC().Unix(),
		SleeveID:      order.SleeveID.String(),
		Symbol:        order.Symbol,
		Venue:         order.Venue,
		Side:          string(order.Side),
		Quantity:      order.Quantity,
		ClientOrderID: order.ClientOrderID,
	}
}

// HeartbeatLogEvent summarises one heartbeat: the envelope it ran under,
// the planned risk and the orders it produced.
type HeartbeatLogEvent struct {
	TsUTC              int64  `json:"ts_utc"`
	SleeveID           string `json:"sleeve_id"`
	PortfolioRiskState string `json:"portfolio_risk_state"`
	EngineHealth       string `json:"engine_health"`

	MaxPositionSizeUSD   float64 `json:"max_position_size_usd"`
	ExposureRemainingUSD float64 `json:"exposure_remaining_usd"`
	MarginRemainingUSD   float64 `json:"margin_remaining_usd"`

	TotalRiskEUR float64 `json:"total_risk_eur"`
	Sanity       string  `json:"sanity"`

	Orders []OrderLogEvent `json:"orders"`
}

// NewHeartbeatLogEvent builds the log event of a heartbeat result
func NewHeartbeatLogEvent(ts time.Time, result HeartbeatResult, health monitoring.EngineHealth) HeartbeatLogEvent {
	env := result.Envelope
	orders := make([]OrderLogEvent, 0, len(result.EngineOrders))
	for _, o := range result.EngineOrders {
		orders = append(orders, NewOrderLogEvent(o, ts))
	}

	return HeartbeatLogEvent{
		TsUTC:                ts.UTC().Unix(),
		SleeveID:             env.SleeveID.String(),
		PortfolioRiskState:   env.PortfolioRiskState.String(),
		EngineHealth:         health.String(),
		MaxPositionSizeUSD:   env.MaxPositionSizeUSD,
		ExposureRemainingUSD: env.ExposureRemainingUSD,
		MarginRemainingUSD:   env.MarginRemainingUSD,
		TotalRiskEUR:         result.Heartbeat.Plan.Aggregate.TotalRiskEUR,
		Sanity:               result.Heartbeat.Plan.Sanity.String(),
		Orders:               orders,
	}
}

// SupervisorEvent is written before a heartbeat that follows a tick gap
type SupervisorEvent struct {
	TsUTC  int64  `json:"ts_utc"`
	Status string `json:"status"`
	Msg    string `json:"msg"`
}

// NewGapEvent builds the supervisor event for a late tick
func NewGapEvent(ts time.Time, health monitoring.EngineHealth) SupervisorEvent {
	return SupervisorEvent{TsUTC: ts.UTC().Unix(), Status: health.String(), Msg: GapDetectedMsg}
}

// EncodeJSON marshals an event to a single line. Encoding never fails the
// caller; an unencodable event becomes "{}".
func EncodeJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
