package execution

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
	"github.com/ducminhle1904/sleeve-risk-engine/pkg/types"
)

func TestOrderLogEvent_JSON(t *testing.T) {
	order := strategy.EngineOrder{
		SleeveID:   risk.SleeveMicroFuturesMacroTrend,
		Instrument: strategy.InstrumentMES,
		Symbol:     "MES",
		Venue:      "CME",
		Side:       types.SideSell,
		Quantity:   2,
	}

	line := EncodeJSON(NewOrderLogEvent(order, t0))
	assert.Equal(t,
		`{"ts_utc":1736197200,"sleeve_id":"MicroFuturesMacroTrend","symbol":"MES","venue":"CME","side":"Sell","quantity":2}`,
		line)
}

func TestSupervisorEvent_JSON(t *testing.T) {
	line := EncodeJSON(NewGapEvent(t0, monitoring.EngineDegraded))
	assert.Equal(t, `{"ts_utc":1736197200,"status":"Degraded","msg":"heartbeat_gap_detected"}`, line)
}

func TestHeartbeatLogEvent_FromResult(t *testing.T) {
	result := HeartbeatResult{
		Envelope: risk.SleeveRiskEnvelope{
			SleeveID:             risk.SleeveMicroFuturesMacroTrend,
			MaxPositionSizeUSD:   22,
			ExposureRemainingUSD: 15_000,
			MarginRemainingUSD:   10_000,
			PortfolioRiskState:   risk.PortfolioRiskNormal,
		},
		Heartbeat: strategy.HeartbeatOutput{Plan: strategy.FuturesSleevePlan{
			Aggregate: strategy.FuturesSleeveAggregate{TotalRiskEUR: 1_000},
			Sanity:    strategy.SanityOk,
		}},
		EngineOrders: []strategy.EngineOrder{
			{SleeveID: risk.SleeveMicroFuturesMacroTrend, Symbol: "MES", Venue: "CME", Side: types.SideBuy, Quantity: 9, ClientOrderID: "abc"},
		},
	}

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(EncodeJSON(NewHeartbeatLogEvent(t0, result, monitoring.EngineHealthy))), &decoded))

	assert.Equal(t, "MicroFuturesMacroTrend", decoded["sleeve_id"])
	assert.Equal(t, risk.PortfolioRiskNormal.String(), decoded["portfolio_risk_state"])
	assert.Equal(t, "Healthy", decoded["engine_health"])
	assert.Equal(t, 22.0, decoded["max_position_size_usd"])
	assert.Equal(t, 1_000.0, decoded["total_risk_eur"])
	assert.Equal(t, "Ok", decoded["sanity"])

	orders, ok := decoded["orders"].([]interface{})
	require.True(t, ok)
	require.Len(t, orders, 1)
	assert.Equal(t, "abc", orders[0].(map[string]interface{})["client_order_id"])
}

func TestHeartbeatLogEvent_NoOrdersIsEmptyArray(t *testing.T) {
	line := EncodeJSON(NewHeartbeatLogEvent(t0, HeartbeatResult{}, monitoring.EngineHealthy))
	assert.Contains(t, line, `"orders":[]`)
}

func TestEncodeJSON_Unencodable(t *testing.T) {
	assert.Equal(t, "{}", EncodeJSON(map[string]float64{"x": math.NaN()}))
}
