package strategy

import (
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/pkg/types"
)

var asOf = time.Date(2025, 1, 6, 21, 0, 0, 0, time.UTC)

// makeHistory builds a mildly uptrending series whose last bar carries a
// strong long trend: every z-score is well above the trend clip.
func makeHistory(inst FutureInstrument, basePrice float64, n int) InstrumentHistory {
	bars := make([]DailyFeatureBar, n)
	start := asOf.AddDate(0, 0, -n)
	for i := range bars {
		price := basePrice * (1 + 0.0005*float64(i))
		bar := DailyFeatureBar{
			OHLCV: types.OHLCV{
				Open:      price,
				High:      price * 1.005,
				Low:       price * 0.995,
				Close:     price,
				Volume:    1_000,
				Timestamp: start.AddDate(0, 0, i),
			},
			ATR14:           price * 0.005,
			Ret20d:          0.05,
			Ret60d:          0.10,
			Ret120d:         0.20,
			Vol20d:          0.01,
			Vol60d:          0.012,
			Vol120d:         0.015,
			HighestClose50d: price * 1.01,
			LowestClose50d:  price * 0.97,
		}
		if inst.IsFX() {
			bar.FxCarry = &FxCarryFeatures{CarryRateAnnualized: 0.02, CarryRateVol252d: 0.01}
		}
		bars[i] = bar
	}
	return InstrumentHistory{Instrument: inst, Bars: bars}
}

func allHistories() map[FutureInstrument]InstrumentHistory {
	return map[FutureInstrument]InstrumentHistory{
		InstrumentMES: makeHistory(InstrumentMES, 100, 130),
		InstrumentMNQ: makeHistory(InstrumentMNQ, 16_000, 130),
		Instrument6E:  makeHistory(Instrument6E, 1.10, 130),
	}
}

func neutralMacro() MacroScalars {
	return MacroScalars{AsOf: asOf, RiskOnScalar: 1, USDScalar: 1}
}

func baseEnvelope() risk.SleeveRiskEnvelope {
	return risk.SleeveRiskEnvelope{
		SleeveID:               risk.SleeveMicroFuturesMacroTrend,
		MaxPositionSizeUSD:     2_000,
		MaxConcurrentPositions: 3,
		ExposureRemainingUSD:   100_000,
		MarginRemainingUSD:     100_000,
		VolatilityRegimeScalar: 1,
		LeverageScalar:         1,
		PortfolioRiskState:     risk.PortfolioRiskNormal,
	}
}

func baseContext() FuturesSleeveContext {
	return FuturesSleeveContext{
		AsOf:             asOf,
		Histories:        allHistories(),
		MacroScalars:     neutralMacro(),
		RiskEnvelope:     baseEnvelope(),
		CurrentPositions: map[FutureInstrument]int{},
		EURPerUSD:        0.92,
		EngineHealth:     monitoring.EngineHealthy,
	}
}

func uniformBudget(riskEUR float64, perInstrument, total int) FuturesRiskBudget {
	ib := InstrumentRiskBudget{MaxRiskPerPositionEUR: riskEUR, MaxContracts: perInstrument}
	return FuturesRiskBudget{MES: ib, MNQ: ib, SixE: ib, MaxTotalContracts: total}
}

func newTestSleeve() *MacroFuturesSleeve {
	s, err := NewMacroFuturesSleeve(DefaultMacroFuturesSleeveConfig(), nil)
	if err != nil {
		panic(err)
	}
	return s
}

func contractsFor(contracts []FuturesPlannedContracts, inst FutureInstrument) (int, bool) {
	for _, c := range contracts {
		if c.Instrument == inst {
			return c.TargetContracts, true
		}
	}
	return 0, false
}
