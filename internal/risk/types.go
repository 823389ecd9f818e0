package risk

import (
	"fmt"
	"strings"
	"time"
)

// SleeveID identifies a capital sleeve of the portfolio
type SleeveID int

const (
	SleeveEquityLongShort SleeveID = iota
	SleeveStatArbResidual
	SleeveMicrostructureIntraday
	SleeveOptionsVolPremium
	SleeveMicroFuturesMacroTrend
)

var sleeveNames = map[SleeveID]string{
	SleeveEquityLongShort:        "EquityLongShort",
	SleeveStatArbResidual:        "StatArbResidual",
	SleeveMicrostructureIntraday: "MicrostructureIntraday",
	SleeveOptionsVolPremium:      "OptionsVolPremium",
	SleeveMicroFuturesMacroTrend: "MicroFuturesMacroTrend",
}

var sleeveAliases = map[string]SleeveID{
	"equity_long_short":         SleeveEquityLongShort,
	"stat_arb_residual":         SleeveStatArbResidual,
	"microstructure_intraday":   SleeveMicrostructureIntraday,
	"options_vol_premium":       SleeveOptionsVolPremium,
	"micro_futures_macro_trend": SleeveMicroFuturesMacroTrend,
}

// AllSleeves returns every known sleeve in declaration order
func AllSleeves() []SleeveID {
	return []SleeveID{
		SleeveEquityLongShort,
		SleeveStatArbResidual,
		SleeveMicrostructureIntraday,
		SleeveOptionsVolPremium,
		SleeveMicroFuturesMacroTrend,
	}
}

func (s SleeveID) String() string {
	if name, ok := sleeveNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Sleeve(%d)", int(s))
}

// MarshalText encodes the sleeve by name for JSON and YAML
func (s SleeveID) MarshalText() ([]byte, error) {
	if _, ok := sleeveNames[s]; !ok {
		return nil, fmt.Errorf("unknown sleeve id %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText accepts either the CamelCase or the snake_case sleeve name
func (s *SleeveID) UnmarshalText(text []byte) error {
	id, err := ParseSleeveID(string(text))
	if err != nil {
		return err
	}
	*s = id
	return nil
}

// ParseSleeveID resolves a sleeve name
func ParseSleeveID(name string) (SleeveID, error) {
	trimmed := strings.TrimSpace(name)
	for id, n := range sleeveNames {
		if strings.EqualFold(n, trimmed) {
			return id, nil
		}
	}
	if id, ok := sleeveAliases[strings.ToLower(trimmed)]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("unknown sleeve %q", name)
}

// HaltState is the hard trading permission derived from drawdown
type HaltState int

const (
	HaltNone HaltState = iota
	HaltHalt           // no new trades, existing positions may run off
	HaltKill           // liquidate everything, no new trades
)

func (h HaltState) String() string {
	switch h {
	case HaltNone:
		return "None"
	case HaltHalt:
		return "Halt"
	case HaltKill:
		return "Kill"
	default:
		return "Unknown"
	}
}

// Active reports whether the state blocks new risk
func (h HaltState) Active() bool {
	return h == HaltHalt || h == HaltKill
}

// PortfolioRiskState mirrors the portfolio halt state for observability
type PortfolioRiskState int

const (
	PortfolioRiskNormal PortfolioRiskState = iota
	PortfolioRiskCaution
	PortfolioRiskStress
)

func (p PortfolioRiskState) String() string {
	switch p {
	case PortfolioRiskNormal:
		return "Normal"
	case PortfolioRiskCaution:
		return "Caution"
	case PortfolioRiskStress:
		return "Stress"
	default:
		return "Unknown"
	}
}

// RiskDecisionReason explains the outcome of an admission check
type RiskDecisionReason int

const (
	DecisionOk RiskDecisionReason = iota
	DecisionPortfolioHalt
	DecisionSleeveHalt
	DecisionNoMarginHeadroom
	DecisionNoExposureHeadroom
	DecisionConcurrencyLimit
	DecisionPositionSizeZero
)

func (r RiskDecisionReason) String() string {
	switch r {
	case DecisionOk:
		return "Ok"
	case DecisionPortfolioHalt:
		return "PortfolioHalt"
	case DecisionSleeveHalt:
		return "SleeveHalt"
	case DecisionNoMarginHeadroom:
		return "NoMarginHeadroom"
	case DecisionNoExposureHeadroom:
		return "NoExposureHeadroom"
	case DecisionConcurrencyLimit:
		return "ConcurrencyLimit"
	case DecisionPositionSizeZero:
		return "PositionSizeZero"
	default:
		return "Unknown"
	}
}

// SleeveRiskConfig holds the hard limits of one sleeve
type SleeveRiskConfig struct {
	SleeveID               SleeveID `json:"sleeve_id" yaml:"sleeve_id"`
	CapitalAllocUSD        float64  `json:"capital_alloc_usd" yaml:"capital_alloc_usd"`
	MaxSinglePosRiskFrac   float64  `json:"max_single_pos_risk_frac" yaml:"max_single_pos_risk_frac"` // 0.01 = 1% of the sleeve
	HaltDrawdownFrac       float64  `json:"halt_dd_frac" yaml:"halt_dd_frac"`                         // e.g. -0.10
	KillDrawdownFrac       float64  `json:"kill_dd_frac" yaml:"kill_dd_frac"`                         // e.g. -0.15
	MaxConcurrentPositions int      `json:"max_concurrent_positions" yaml:"max_concurrent_positions"`
}

// PortfolioRiskConfig holds the portfolio-wide hard limits
type PortfolioRiskConfig struct {
	InitialEquityUSD   float64 `json:"initial_equity_usd" yaml:"initial_equity_usd"`
	HaltDrawdownFrac   float64 `json:"halt_dd_frac" yaml:"halt_dd_frac"`
	KillDrawdownFrac   float64 `json:"kill_dd_frac" yaml:"kill_dd_frac"`
	MaxLeverage        float64 `json:"max_leverage" yaml:"max_leverage"`
	RebalanceDriftFrac float64 `json:"rebalance_drift_frac" yaml:"rebalance_drift_frac"` // 0.15 = ±15%
	MaxGlobalPositions int     `json:"max_global_positions" yaml:"max_global_positions"`
}

// KernelConfig is the immutable per-session configuration of the kernel
type KernelConfig struct {
	Portfolio PortfolioRiskConfig `json:"portfolio" yaml:"portfolio"`
	Sleeves   []SleeveRiskConfig  `json:"sleeves" yaml:"sleeves"`
}

// SleeveConfig returns the config of a sleeve
func (c KernelConfig) SleeveConfig(id SleeveID) (SleeveRiskConfig, bool) {
	for _, s := range c.Sleeves {
		if s.SleeveID == id {
			return s, true
		}
	}
	return SleeveRiskConfig{}, false
}

// SleeveState is the live equity state of one sleeve, owned by the caller
type SleeveState struct {
	SleeveID         SleeveID `json:"sleeve_id"`
	EquityUSD        float64  `json:"equity_usd"`
	RealizedPnLUSD   float64  `json:"realized_pnl_usd"`
	UnrealizedPnLUSD float64  `json:"unrealized_pnl_usd"`
	PeakEquityUSD    float64  `json:"peak_equity_usd"` // high-water mark, updated by the kernel
	OpenPositions    int      `json:"open_positions"`
}

// PortfolioState is the live portfolio snapshot
type PortfolioState struct {
	CashUSD               float64 `json:"cash_usd"`
	OpenPnLUSD            float64 `json:"open_pnl_usd"`
	AccruedInterestUSD    float64 `json:"accrued_interest_usd"`
	PeakEquityUSD         float64 `json:"peak_equity_usd"` // informational, the kernel tracks its own peak
	TotalNotionalExposure float64 `json:"total_notional_exposure"`
	CurrentLeverage       float64 `json:"current_leverage"`
}

// EquityUSD returns cash plus open PnL plus accrued interest
func (p PortfolioState) EquityUSD() float64 {
	return p.CashUSD + p.OpenPnLUSD + p.AccruedInterestUSD
}

// MarginState holds both margin requirement figures
type MarginState struct {
	InternalMarginReqUSD float64 `json:"internal_margin_req_usd"`
	BrokerMarginReqUSD   float64 `json:"broker_margin_req_usd"`
	EquityUSD            float64 `json:"equity_usd"`
}

// VolatilityRegime is the market volatility snapshot of a tick
type VolatilityRegime struct {
	RealizedVol10d float64 `json:"rv10_annualized"`
	VIXLevel       float64 `json:"vix_level"`
	VIXTermSlope   float64 `json:"vix_term_slope"`
	RegimeScalar   float64 `json:"regime_scalar"` // supplied externally, not used by the kernel
}

// SleeveRiskEnvelope is the per-tick contract between the kernel and a sleeve
type SleeveRiskEnvelope struct {
	SleeveID SleeveID `json:"sleeve_id"`

	SleeveHalt    HaltState `json:"sleeve_halt"`
	PortfolioHalt HaltState `json:"portfolio_halt"`

	MaxPositionSizeUSD     float64 `json:"max_position_size_usd"`
	MaxConcurrentPositions int     `json:"max_concurrent_positions"`

	ExposureRemainingUSD float64 `json:"exposure_remaining_usd"`
	MarginRemainingUSD   float64 `json:"margin_remaining_usd"`

	VolatilityRegimeScalar float64 `json:"volatility_regime_scalar"`
	LeverageScalar         float64 `json:"leverage_scalar"`

	PortfolioRiskState PortfolioRiskState `json:"portfolio_risk_state"`
	EvaluatedAt        time.Time          `json:"evaluated_at"`
}

// AnyHalt reports whether the portfolio or the sleeve is halted
func (e SleeveRiskEnvelope) AnyHalt() bool {
	return e.PortfolioHalt.Active() || e.SleeveHalt.Active()
}

// RiskDecision is the outcome of EvaluateNewPositionRisk
type RiskDecision struct {
	AllowNewPosition    bool               `json:"allow_new_position"`
	MaxNewPositions     int                `json:"max_new_positions"`
	MaxOrderNotionalUSD float64            `json:"max_order_notional_usd"`
	Reason              RiskDecisionReason `json:"reason"`
}
