package execution

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
	"github.com/ducminhle1904/sleeve-risk-engine/pkg/types"
)

var t0 = time.Date(2025, 1, 6, 21, 0, 0, 0, time.UTC)

func testKernelConfig() risk.KernelConfig {
	return risk.KernelConfig{
		Portfolio: risk.PortfolioRiskConfig{
			InitialEquityUSD:   10_000,
			HaltDrawdownFrac:   -0.10,
			KillDrawdownFrac:   -0.20,
			MaxLeverage:        1.5,
			RebalanceDriftFrac: 0.15,
			MaxGlobalPositions: 10,
		},
		Sleeves: []risk.SleeveRiskConfig{
			{
				SleeveID:               risk.SleeveMicroFuturesMacroTrend,
				CapitalAllocUSD:        2_000,
				MaxSinglePosRiskFrac:   0.01,
				HaltDrawdownFrac:       -0.15,
				KillDrawdownFrac:       -0.25,
				MaxConcurrentPositions: 3,
			},
			{
				SleeveID:               risk.SleeveEquityLongShort,
				CapitalAllocUSD:        4_000,
				MaxSinglePosRiskFrac:   0.02,
				HaltDrawdownFrac:       -0.15,
				KillDrawdownFrac:       -0.25,
				MaxConcurrentPositions: 5,
			},
		},
	}
}

func newKernel(t *testing.T) *risk.Kernel {
	t.Helper()
	k, err := risk.NewKernel(testKernelConfig(), nil)
	require.NoError(t, err)
	return k
}

func newSleeve(t *testing.T) *strategy.MacroFuturesSleeve {
	t.Helper()
	s, err := strategy.NewMacroFuturesSleeve(strategy.DefaultMacroFuturesSleeveConfig(), nil)
	require.NoError(t, err)
	return s
}

func macroSleeveState() risk.SleeveState {
	return risk.SleeveState{SleeveID: risk.SleeveMicroFuturesMacroTrend, EquityUSD: 2_000, PeakEquityUSD: 2_000}
}

func trendHistory(inst strategy.FutureInstrument, basePrice float64, asOf time.Time) strategy.InstrumentHistory {
	bars := make([]strategy.DailyFeatureBar, 130)
	for i := range bars {
		price := basePrice * (1 + 0.0005*float64(i))
		bar := strategy.DailyFeatureBar{
			OHLCV: types.OHLCV{
				Open: price, High: price * 1.001, Low: price * 0.999, Close: price,
				Volume: 1_000, Timestamp: asOf.AddDate(0, 0, i-129),
			},
			ATR14:  price * 0.005,
			Ret20d: 0.05, Ret60d: 0.10, Ret120d: 0.20,
			Vol20d: 0.01, Vol60d: 0.012, Vol120d: 0.015,
			HighestClose50d: price * 1.01,
			LowestClose50d:  price * 0.97,
		}
		if inst.IsFX() {
			bar.FxCarry = &strategy.FxCarryFeatures{CarryRateAnnualized: 0.02, CarryRateVol252d: 0.01}
		}
		bars[i] = bar
	}
	return strategy.InstrumentHistory{Instrument: inst, Bars: bars}
}

func tickInput(asOf time.Time) TickInput {
	return TickInput{
		Portfolio: risk.PortfolioState{CashUSD: 10_000, PeakEquityUSD: 10_000},
		Margin:    risk.MarginState{EquityUSD: 10_000},
		Vol:       risk.VolatilityRegime{RealizedVol10d: 12, VIXLevel: 18, VIXTermSlope: 0.3, RegimeScalar: 1},
		Histories: map[strategy.FutureInstrument]strategy.InstrumentHistory{
			strategy.InstrumentMES: trendHistory(strategy.InstrumentMES, 100, asOf),
			strategy.InstrumentMNQ: trendHistory(strategy.InstrumentMNQ, 16_000, asOf),
			strategy.Instrument6E:  trendHistory(strategy.Instrument6E, 1.10, asOf),
		},
		Macro:     strategy.MacroScalars{AsOf: asOf, RiskOnScalar: 1, USDScalar: 1},
		EURPerUSD: 0.92,
	}
}

func testBudget() strategy.FuturesRiskBudget {
	ib := strategy.InstrumentRiskBudget{MaxRiskPerPositionEUR: 1_000, MaxContracts: 10}
	return strategy.FuturesRiskBudget{MES: ib, MNQ: ib, SixE: ib, MaxTotalContracts: 10}
}

func heartbeatInputs(asOf time.Time, sleeves []risk.SleeveState, current map[strategy.FutureInstrument]int) HeartbeatInputs {
	tin := tickInput(asOf)
	return HeartbeatInputs{
		Portfolio:        tin.Portfolio,
		Sleeves:          sleeves,
		Margin:           tin.Margin,
		Vol:              tin.Vol,
		Histories:        tin.Histories,
		Macro:            tin.Macro,
		CurrentPositions: current,
		EURPerUSD:        tin.EURPerUSD,
		Budget:           testBudget(),
		MaxSleeveRiskEUR: 4_000,
	}
}

// recordingLog is a HeartbeatLogSink that keeps lines in memory
type recordingLog struct {
	mu      sync.Mutex
	lines   []string
	flushes int
	failLog bool
}

func (r *recordingLog) Log(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLog {
		return fmt.Errorf("log unavailable")
	}
	r.lines = append(r.lines, line)
	return nil
}

func (r *recordingLog) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
	return nil
}

func (r *recordingLog) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// failingSink rejects every order
type failingSink struct{ submits int }

func (f *failingSink) Submit(strategy.EngineOrder) error {
	f.submits++
	return fmt.Errorf("broker down")
}

func (f *failingSink) Flush() error { return nil }

// recordingNotifier captures alerts
type recordingNotifier struct {
	alerts []string
}

func (n *recordingNotifier) SendAlert(level, message string) error {
	n.alerts = append(n.alerts, level+": "+message)
	return nil
}

// selectiveSink rejects orders for one symbol and keeps the rest
type selectiveSink struct {
	InMemoryOrderSink
	reject string
}

func (s *selectiveSink) Submit(order strategy.EngineOrder) error {
	if order.Symbol == s.reject {
		return fmt.Errorf("%s rejected", order.Symbol)
	}
	return s.InMemoryOrderSink.Submit(order)
}
