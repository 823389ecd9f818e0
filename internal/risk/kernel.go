package risk

import (
	"math"
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/errors"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/logger"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/regime"
)

// CashflowResetFrac is the net cashflow, as a fraction of equity, above which
// the portfolio high-water mark is reset.
const CashflowResetFrac = 0.20

// Kernel is the global risk kernel. It owns the portfolio high-water mark.
// Sleeve high-water marks live in the caller's SleeveState slice.
//
// Kernel is not safe for concurrent use; callers serialize whole ticks.
type Kernel struct {
	config        KernelConfig
	sleeveConfigs map[SleeveID]SleeveRiskConfig
	classifier    *regime.VolatilityClassifier
	guard         *monitoring.InvariantGuard
	logger        *logger.Logger

	portfolioPeakEquity float64
	lastEvaluatedAt     time.Time
}

// NewKernel validates the configuration and creates a kernel whose
// portfolio peak starts at the initial equity.
func NewKernel(config KernelConfig, log *logger.Logger) (*Kernel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Discard()
	}

	sleeveConfigs := make(map[SleeveID]SleeveRiskConfig, len(config.Sleeves))
	for _, s := range config.Sleeves {
		sleeveConfigs[s.SleeveID] = s
	}

	return &Kernel{
		config:              config,
		sleeveConfigs:       sleeveConfigs,
		classifier:          regime.NewVolatilityClassifier(nil),
		guard:               monitoring.NewInvariantGuard("risk_kernel", log),
		logger:              log,
		portfolioPeakEquity: config.Portfolio.InitialEquityUSD,
	}, nil
}

// Config returns the kernel configuration
func (k *Kernel) Config() KernelConfig {
	return k.config
}

// PortfolioPeakEquity returns the portfolio high-water mark
func (k *Kernel) PortfolioPeakEquity() float64 {
	return k.portfolioPeakEquity
}

// LastEvaluatedAt returns the tick time of the last successful evaluation
func (k *Kernel) LastEvaluatedAt() time.Time {
	return k.lastEvaluatedAt
}

// Evaluate computes one envelope per sleeve state. All sleeves must be passed
// in a single call because slots and headroom are shared across them. A
// sleeve without configuration aborts the whole evaluation before any state
// is touched.
func (k *Kernel) Evaluate(now time.Time, portfolio PortfolioState, sleeves []SleeveState, margin MarginState, vol VolatilityRegime) ([]SleeveRiskEnvelope, error) {
	for _, s := range sleeves {
		if _, ok := k.sleeveConfigs[s.SleeveID]; !ok {
			return nil, errors.NewFatalError("RiskKernel", "Evaluate", "missing sleeve risk config for live sleeve state").
				WithContext("sleeve_id", s.SleeveID.String())
		}
	}

	pcfg := k.config.Portfolio

	// 1) equity and high-water mark
	equityNow := k.guard.Finite("portfolio_equity", portfolio.EquityUSD(), 0)
	if equityNow > k.portfolioPeakEquity {
		k.portfolioPeakEquity = equityNow
	}

	// 2) drawdown and halt state
	portfolioDD := ComputeDrawdown(equityNow, k.portfolioPeakEquity)
	portfolioHalt := HaltStateFor(portfolioDD, pcfg.HaltDrawdownFrac, pcfg.KillDrawdownFrac)
	riskState := RiskStateFor(portfolioHalt)

	// 3) exposure headroom
	exposureRemaining := k.guard.Finite("exposure_remaining",
		ExposureRemaining(equityNow, pcfg.MaxLeverage, portfolio.TotalNotionalExposure), 0)

	// 4) margin headroom
	marginRemaining := k.guard.Finite("margin_remaining", MarginRemaining(equityNow, margin), 0)

	// 5) volatility scalar
	_, volScalar := k.classifier.Scalar(regime.Snapshot{
		RealizedVol10d: vol.RealizedVol10d,
		VIXLevel:       vol.VIXLevel,
		VIXTermSlope:   vol.VIXTermSlope,
	})

	// 6) leverage scalar
	levScalar := k.guard.Finite("leverage_scalar", LeverageScalar(portfolio.CurrentLeverage, pcfg.MaxLeverage), 0)

	// 7) global concurrency budget
	remainingSlots, extraPerSleeve := ConcurrencyBudget(pcfg.MaxGlobalPositions, sleeves)

	// 8) per sleeve
	envelopes := make([]SleeveRiskEnvelope, 0, len(sleeves))
	for i := range sleeves {
		state := &sleeves[i]
		scfg := k.sleeveConfigs[state.SleeveID]

		sleeveEquity := k.guard.Finite("sleeve_equity", state.EquityUSD, 0)
		// a corrupt peak is reseeded from equity so the halt ladder keeps working
		state.PeakEquityUSD = k.guard.Finite("sleeve_peak_equity", state.PeakEquityUSD, sleeveEquity)
		if monitoring.IsFinite(state.EquityUSD) && state.EquityUSD > state.PeakEquityUSD {
			state.PeakEquityUSD = state.EquityUSD
		}
		sleeveDD := ComputeDrawdown(sleeveEquity, state.PeakEquityUSD)
		sleeveHalt := HaltStateFor(sleeveDD, scfg.HaltDrawdownFrac, scfg.KillDrawdownFrac)

		maxConcurrent := state.OpenPositions
		if remainingSlots > 0 {
			maxConcurrent = min(scfg.MaxConcurrentPositions, state.OpenPositions+extraPerSleeve)
		}

		baseSize := scfg.CapitalAllocUSD * scfg.MaxSinglePosRiskFrac
		positionSize := math.Min(baseSize*volScalar*levScalar, exposureRemaining)
		positionSize = k.guard.Finite("max_position_size", positionSize, 0)
		if exposureRemaining <= 0 || marginRemaining <= 0 || portfolioHalt.Active() || sleeveHalt.Active() {
			positionSize = 0
		}
		if positionSize < 0 {
			positionSize = 0
		}

		envelopes = append(envelopes, SleeveRiskEnvelope{
			SleeveID:               state.SleeveID,
			SleeveHalt:             sleeveHalt,
			PortfolioHalt:          portfolioHalt,
			MaxPositionSizeUSD:     positionSize,
			MaxConcurrentPositions: maxConcurrent,
			ExposureRemainingUSD:   exposureRemaining,
			MarginRemainingUSD:     marginRemaining,
			VolatilityRegimeScalar: volScalar,
			LeverageScalar:         levScalar,
			PortfolioRiskState:     riskState,
			EvaluatedAt:            now,
		})

		if sleeveHalt.Active() {
			k.logger.Warning("sleeve %s in %s: drawdown %.2f%%", state.SleeveID, sleeveHalt, sleeveDD*100)
		}
	}

	if portfolioHalt.Active() {
		k.logger.Warning("portfolio in %s: drawdown %.2f%% (peak $%.2f, equity $%.2f)",
			portfolioHalt, portfolioDD*100, k.portfolioPeakEquity, equityNow)
	}

	k.lastEvaluatedAt = now
	return envelopes, nil
}

// ApplyCashflowReset resets the portfolio peak to equityAfter when the net
// cashflow is at least CashflowResetFrac of equityBefore, or when there was
// no positive equity before. Per-sleeve peaks are left untouched.
func (k *Kernel) ApplyCashflowReset(equityBefore, equityAfter float64) bool {
	if equityBefore <= 0 {
		k.portfolioPeakEquity = equityAfter
		return true
	}

	cfFrac := math.Abs(equityAfter-equityBefore) / equityBefore
	if cfFrac >= CashflowResetFrac {
		k.logger.Info("cashflow reset: %.1f%% net flow, peak $%.2f -> $%.2f", cfFrac*100, k.portfolioPeakEquity, equityAfter)
		k.portfolioPeakEquity = equityAfter
		return true
	}
	return false
}

// RestorePortfolioPeak raises the high-water mark to a previously persisted
// peak. It never lowers it; lowering is ApplyCashflowReset's job.
func (k *Kernel) RestorePortfolioPeak(peak float64) {
	if monitoring.IsFinite(peak) && peak > k.portfolioPeakEquity {
		k.portfolioPeakEquity = peak
	}
}
