package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/errors"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
	"github.com/ducminhle1904/sleeve-risk-engine/pkg/types"
)

func sessionConfig(t *testing.T) SessionConfig {
	return SessionConfig{
		Kernel:           newKernel(t),
		Sleeve:           newSleeve(t),
		Supervisor:       monitoring.NewHeartbeatSupervisor(65 * time.Second),
		Orders:           NewInMemoryOrderSink(),
		Heartbeats:       &recordingLog{},
		Sleeves:          []risk.SleeveState{macroSleeveState()},
		Budget:           testBudget(),
		MaxSleeveRiskEUR: 4_000,
		AssumeFills:      true,
	}
}

func TestNewSession_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SessionConfig)
	}{
		{"no kernel", func(c *SessionConfig) { c.Kernel = nil }},
		{"no sleeve", func(c *SessionConfig) { c.Sleeve = nil }},
		{"no supervisor", func(c *SessionConfig) { c.Supervisor = nil }},
		{"no order sink", func(c *SessionConfig) { c.Orders = nil }},
		{"no heartbeat log", func(c *SessionConfig) { c.Heartbeats = nil }},
		{"no macro sleeve state", func(c *SessionConfig) {
			c.Sleeves = []risk.SleeveState{{SleeveID: risk.SleeveEquityLongShort}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sessionConfig(t)
			tt.mutate(&cfg)
			_, err := NewSession(cfg)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.ErrorCategoryConfiguration))
		})
	}
}

func TestSession_TicksWithAssumedFills(t *testing.T) {
	cfg := sessionConfig(t)
	notifier := &recordingNotifier{}
	cfg.Notifier = notifier
	orders := cfg.Orders.(*InMemoryOrderSink)
	hbLog := cfg.Heartbeats.(*recordingLog)

	session, err := NewSession(cfg)
	require.NoError(t, err)

	// open from flat
	result, err := session.Tick(t0, tickInput(t0))
	require.NoError(t, err)
	assert.Len(t, result.EngineOrders, 2)
	assert.Equal(t, map[strategy.FutureInstrument]int{
		strategy.InstrumentMES: 9,
		strategy.InstrumentMNQ: 1,
	}, session.Positions())

	states := session.SleeveStates()
	require.Len(t, states, 1)
	assert.Equal(t, 2, states[0].OpenPositions)

	// on time and already at target: nothing to trade
	t1 := t0.Add(time.Minute)
	result, err = session.Tick(t1, tickInput(t1))
	require.NoError(t, err)
	assert.Empty(t, result.EngineOrders)
	assert.Len(t, orders.Orders(), 2)

	// late tick: degraded, flatten everything
	t2 := t1.Add(5 * time.Minute)
	result, err = session.Tick(t2, tickInput(t2))
	require.NoError(t, err)
	require.Len(t, result.EngineOrders, 2)
	assert.Equal(t, types.SideSell, result.EngineOrders[0].Side)
	assert.Equal(t, 9, result.EngineOrders[0].Quantity)
	assert.Empty(t, session.Positions())
	assert.Equal(t, 0, session.SleeveStates()[0].OpenPositions)

	assert.Equal(t, 3, session.Ticks())
	// three heartbeat lines plus one gap event
	assert.Len(t, hbLog.Lines(), 4)
	require.Len(t, notifier.alerts, 1)
	assert.Contains(t, notifier.alerts[0], "warning: Heartbeat gap")

	status := session.HealthChecker().Status()
	assert.Equal(t, "degraded", status.Status)

	require.NoError(t, session.Close())
	assert.Equal(t, 1, hbLog.flushes)
}

func TestSession_SinkFailureDoesNotFailTick(t *testing.T) {
	cfg := sessionConfig(t)
	cfg.Orders = &failingSink{}

	session, err := NewSession(cfg)
	require.NoError(t, err)

	_, err = session.Tick(t0, tickInput(t0))
	require.NoError(t, err)

	stats := session.ErrorStats()
	assert.Equal(t, 2, stats.TotalErrors)
	assert.Equal(t, 1.0, stats.GetErrorRate(errors.ErrorCategorySink))
	// nothing was delivered, so nothing is assumed filled
	assert.Empty(t, session.Positions())
	assert.Len(t, session.HealthChecker().Status().Errors, 2)
}

func TestSession_SetPositionsDropsFlat(t *testing.T) {
	session, err := NewSession(sessionConfig(t))
	require.NoError(t, err)

	session.SetPositions(map[strategy.FutureInstrument]int{strategy.InstrumentMES: 2, strategy.Instrument6E: 0})
	assert.Equal(t, map[strategy.FutureInstrument]int{strategy.InstrumentMES: 2}, session.Positions())
}

func TestSession_HaltAlerts(t *testing.T) {
	cfg := sessionConfig(t)
	notifier := &recordingNotifier{}
	cfg.Notifier = notifier
	session, err := NewSession(cfg)
	require.NoError(t, err)

	in := tickInput(t0)
	// 25% below the initial peak is past the kill line
	in.Portfolio = risk.PortfolioState{CashUSD: 7_500, PeakEquityUSD: 10_000}
	in.Margin = risk.MarginState{EquityUSD: 7_500}

	result, err := session.Tick(t0, in)
	require.NoError(t, err)
	assert.Equal(t, risk.HaltKill, result.Envelope.PortfolioHalt)
	assert.Empty(t, result.EngineOrders)
	require.Len(t, notifier.alerts, 1)
	assert.Contains(t, notifier.alerts[0], "error: Risk halt")
}

func TestSession_LogFailureStillTracksFills(t *testing.T) {
	cfg := sessionConfig(t)
	cfg.Heartbeats = &recordingLog{failLog: true}
	orders := cfg.Orders.(*InMemoryOrderSink)

	session, err := NewSession(cfg)
	require.NoError(t, err)

	result, err := session.Tick(t0, tickInput(t0))
	require.NoError(t, err)
	assert.Len(t, result.LogErrors, 1)
	assert.Empty(t, result.OrderErrors)
	assert.Equal(t, map[strategy.FutureInstrument]int{
		strategy.InstrumentMES: 9,
		strategy.InstrumentMNQ: 1,
	}, session.Positions())

	// the log is still down; positions are at target so nothing is resent
	t1 := t0.Add(time.Minute)
	result, err = session.Tick(t1, tickInput(t1))
	require.NoError(t, err)
	assert.Empty(t, result.EngineOrders)
	assert.Len(t, orders.Orders(), 2)

	stats := session.ErrorStats()
	assert.Equal(t, 2, stats.TotalErrors)
	assert.Equal(t, 1.0, stats.GetErrorRate(errors.ErrorCategorySink))
}

func TestSession_PartialSubmitFailure(t *testing.T) {
	cfg := sessionConfig(t)
	sink := &selectiveSink{reject: strategy.InstrumentMNQ.Spec().Symbol}
	cfg.Orders = sink

	session, err := NewSession(cfg)
	require.NoError(t, err)

	result, err := session.Tick(t0, tickInput(t0))
	require.NoError(t, err)
	require.Len(t, result.EngineOrders, 2)
	require.Len(t, result.Delivered, 1)
	assert.Len(t, result.OrderErrors, 1)
	// only the accepted order moves its instrument
	assert.Equal(t, map[strategy.FutureInstrument]int{strategy.InstrumentMES: 9}, session.Positions())
	assert.Equal(t, 1, session.SleeveStates()[0].OpenPositions)

	// next tick retries the rejected instrument only
	sink.reject = ""
	t1 := t0.Add(time.Minute)
	result, err = session.Tick(t1, tickInput(t1))
	require.NoError(t, err)
	require.Len(t, result.EngineOrders, 1)
	assert.Equal(t, strategy.InstrumentMNQ, result.EngineOrders[0].Instrument)
	assert.Equal(t, types.SideBuy, result.EngineOrders[0].Side)
	assert.Equal(t, 1, result.EngineOrders[0].Quantity)
	assert.Equal(t, map[strategy.FutureInstrument]int{
		strategy.InstrumentMES: 9,
		strategy.InstrumentMNQ: 1,
	}, session.Positions())
	assert.Len(t, sink.Orders(), 2)
}
