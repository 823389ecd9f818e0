package risk

import "time"

// RiskKernel turns portfolio, margin and volatility snapshots into one risk
// envelope per sleeve.
type RiskKernel interface {
	// Evaluate computes the envelopes of all sleeves of a tick in one pass.
	// Sleeve peak equity is updated in place.
	Evaluate(now time.Time, portfolio PortfolioState, sleeves []SleeveState, margin MarginState, vol VolatilityRegime) ([]SleeveRiskEnvelope, error)

	// ApplyCashflowReset resets the portfolio high-water mark after a large deposit or withdrawal
	ApplyCashflowReset(equityBefore, equityAfter float64) bool

	// PortfolioPeakEquity returns the kernel-owned high-water mark
	PortfolioPeakEquity() float64

	// Config returns the immutable kernel configuration
	Config() KernelConfig
}
