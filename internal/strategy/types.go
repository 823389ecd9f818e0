package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/pkg/types"
)

// FxCarryFeatures holds the interest differential features of a currency future
type FxCarryFeatures struct {
	CarryRateAnnualized float64 `json:"carry_rate_annualized"` // rate_EUR - rate_USD
	CarryRateVol252d    float64 `json:"carry_rate_vol_252d"`
}

// DailyFeatureBar is one daily bar with the derived features the signal reads
type DailyFeatureBar struct {
	types.OHLCV

	ATR14 float64 `json:"atr_14"`

	Ret20d  float64 `json:"ret_20d"`
	Ret60d  float64 `json:"ret_60d"`
	Ret120d float64 `json:"ret_120d"`

	Vol20d  float64 `json:"vol_20d"` // stdev of daily log returns
	Vol60d  float64 `json:"vol_60d"`
	Vol120d float64 `json:"vol_120d"`

	HighestClose50d float64 `json:"highest_close_50d"`
	LowestClose50d  float64 `json:"lowest_close_50d"`

	FxCarry *FxCarryFeatures `json:"fx_carry,omitempty"` // only for 6E
}

// InstrumentHistory is an ascending series of feature bars; the last bar is the latest
type InstrumentHistory struct {
	Instrument FutureInstrument
	Bars       []DailyFeatureBar
}

// Last returns the most recent bar
func (h InstrumentHistory) Last() (DailyFeatureBar, bool) {
	if len(h.Bars) == 0 {
		return DailyFeatureBar{}, false
	}
	return h.Bars[len(h.Bars)-1], true
}

// MacroScalars are the externally supplied macro tilts, nominally 0.7 to 1.3
type MacroScalars struct {
	AsOf         time.Time `json:"as_of"`
	RiskOnScalar float64   `json:"risk_on_scalar"`
	USDScalar    float64   `json:"usd_scalar"`
}

// InstrumentRiskBudget caps the contracts and EUR risk of one instrument
type InstrumentRiskBudget struct {
	MaxRiskPerPositionEUR float64 `json:"max_risk_per_position_eur" yaml:"max_risk_per_position_eur"`
	MaxContracts          int     `json:"max_contracts" yaml:"max_contracts"`
}

// FuturesRiskBudget is the contract budget of the whole sleeve
type FuturesRiskBudget struct {
	MES               InstrumentRiskBudget `json:"mes" yaml:"mes"`
	MNQ               InstrumentRiskBudget `json:"mnq" yaml:"mnq"`
	SixE              InstrumentRiskBudget `json:"sixe" yaml:"sixe"`
	MaxTotalContracts int                  `json:"max_total_contracts" yaml:"max_total_contracts"`
}

// For returns the budget of an instrument
func (b FuturesRiskBudget) For(inst FutureInstrument) InstrumentRiskBudget {
	switch inst {
	case InstrumentMES:
		return b.MES
	case InstrumentMNQ:
		return b.MNQ
	case Instrument6E:
		return b.SixE
	default:
		return InstrumentRiskBudget{}
	}
}

// LargestPositionRiskEUR returns the largest per-position EUR budget
func (b FuturesRiskBudget) LargestPositionRiskEUR() float64 {
	largest := 0.0
	for _, inst := range AllInstruments() {
		if r := b.For(inst).MaxRiskPerPositionEUR; r > largest {
			largest = r
		}
	}
	return largest
}

// SignalReason tags why a signal has the direction it has
type SignalReason int

const (
	ReasonNormal SignalReason = iota
	ReasonInsufficientHistory
	ReasonInvalidData
	ReasonBelowThreshold
)

func (r SignalReason) String() string {
	switch r {
	case ReasonNormal:
		return "Normal"
	case ReasonInsufficientHistory:
		return "InsufficientHistory"
	case ReasonInvalidData:
		return "InvalidData"
	case ReasonBelowThreshold:
		return "BelowThreshold"
	default:
		return "Unknown"
	}
}

// RawSignal holds the clipped trend (±3) and carry (±2) scores
type RawSignal struct {
	TrendScore float64 `json:"trend_score"`
	CarryScore float64 `json:"carry_score"`
}

// MacroAdjustedSignal is the raw signal after the macro tilts
type MacroAdjustedSignal struct {
	TrendMacroAdjusted float64 `json:"trend_macro_adjusted"`
	CarryMacroAdjusted float64 `json:"carry_macro_adjusted"`
}

// FinalTradeSignal is what the planner consumes
type FinalTradeSignal struct {
	Direction      int     `json:"direction"`       // -1, 0, +1
	Conviction     float64 `json:"conviction"`      // 0..1
	EffectiveScore float64 `json:"effective_score"` // clipped to ±5
}

// InstrumentSignal bundles every stage of one instrument's signal
type InstrumentSignal struct {
	Instrument FutureInstrument    `json:"instrument"`
	Final      FinalTradeSignal    `json:"final"`
	Raw        RawSignal           `json:"raw"`
	MacroAdj   MacroAdjustedSignal `json:"macro_adj"`
	Reason     SignalReason        `json:"reason"`
}

// FuturesSleeveContext is everything the sleeve needs for one heartbeat
type FuturesSleeveContext struct {
	AsOf             time.Time
	Histories        map[FutureInstrument]InstrumentHistory
	MacroScalars     MacroScalars
	RiskEnvelope     risk.SleeveRiskEnvelope
	CurrentPositions map[FutureInstrument]int // signed contracts
	EURPerUSD        float64
	EngineHealth     monitoring.EngineHealth
}

// SleeveRiskCapMultiple sets the default sleeve cap as a multiple of the
// largest per-position budget.
const SleeveRiskCapMultiple = 5.0

// DefaultFuturesRiskBudget is the contract budget used by the heartbeat binary
func DefaultFuturesRiskBudget() FuturesRiskBudget {
	return FuturesRiskBudget{
		MES:               InstrumentRiskBudget{MaxRiskPerPositionEUR: 120, MaxContracts: 5},
		MNQ:               InstrumentRiskBudget{MaxRiskPerPositionEUR: 120, MaxContracts: 5},
		SixE:              InstrumentRiskBudget{MaxRiskPerPositionEUR: 80, MaxContracts: 3},
		MaxTotalContracts: 4,
	}
}

// DefaultMaxSleeveRiskEUR derives the sleeve risk cap from a budget
func DefaultMaxSleeveRiskEUR(b FuturesRiskBudget) float64 {
	return SleeveRiskCapMultiple * b.LargestPositionRiskEUR()
}

// Validate rejects budgets that cannot size a position
func (b FuturesRiskBudget) Validate() error {
	if b.MaxTotalContracts < 0 {
		return fmt.Errorf("max_total_contracts must not be negative")
	}
	for _, inst := range AllInstruments() {
		ib := b.For(inst)
		if ib.MaxContracts < 0 {
			return fmt.Errorf("%s: max_contracts must not be negative", inst)
		}
		if math.IsNaN(ib.MaxRiskPerPositionEUR) || math.IsInf(ib.MaxRiskPerPositionEUR, 0) || ib.MaxRiskPerPositionEUR < 0 {
			return fmt.Errorf("%s: max_risk_per_position_eur must be finite and not negative", inst)
		}
	}
	return nil
}
