package risk

import (
	"fmt"
	"strings"
)

// Profile names accepted by ProfileByName and the RISK_PROFILE variable
const (
	ProfileStarter10k    = "starter_10k"
	ProfileAggressive25k = "aggressive_25k"
	ProfileLegacy10k     = "legacy_10k"
)

// Starter10kConfig is the conservative 10k profile and the default
func Starter10kConfig() KernelConfig {
	return KernelConfig{
		Portfolio: PortfolioRiskConfig{
			InitialEquityUSD:   10_000,
			HaltDrawdownFrac:   -0.10,
			KillDrawdownFrac:   -0.20,
			MaxLeverage:        1.5,
			RebalanceDriftFrac: 0.15,
			MaxGlobalPositions: 20,
		},
		Sleeves: []SleeveRiskConfig{
			{SleeveID: SleeveEquityLongShort, CapitalAllocUSD: 1_500, MaxSinglePosRiskFrac: 0.01, HaltDrawdownFrac: -0.12, KillDrawdownFrac: -0.18, MaxConcurrentPositions: 10},
			{SleeveID: SleeveStatArbResidual, CapitalAllocUSD: 1_500, MaxSinglePosRiskFrac: 0.008, HaltDrawdownFrac: -0.12, KillDrawdownFrac: -0.18, MaxConcurrentPositions: 20},
			{SleeveID: SleeveMicrostructureIntraday, CapitalAllocUSD: 1_000, MaxSinglePosRiskFrac: 0.005, HaltDrawdownFrac: -0.08, KillDrawdownFrac: -0.15, MaxConcurrentPositions: 30},
			{SleeveID: SleeveOptionsVolPremium, CapitalAllocUSD: 1_000, MaxSinglePosRiskFrac: 0.02, HaltDrawdownFrac: -0.12, KillDrawdownFrac: -0.20, MaxConcurrentPositions: 6},
			// micro futures get most of the account: one contract needs real room
			{SleeveID: SleeveMicroFuturesMacroTrend, CapitalAllocUSD: 5_000, MaxSinglePosRiskFrac: 0.05, HaltDrawdownFrac: -0.15, KillDrawdownFrac: -0.25, MaxConcurrentPositions: 4},
		},
	}
}

// Aggressive25kConfig gives more room per position around 25k equity
func Aggressive25kConfig() KernelConfig {
	return KernelConfig{
		Portfolio: PortfolioRiskConfig{
			InitialEquityUSD:   25_000,
			HaltDrawdownFrac:   -0.12,
			KillDrawdownFrac:   -0.25,
			MaxLeverage:        2.0,
			RebalanceDriftFrac: 0.20,
			MaxGlobalPositions: 30,
		},
		Sleeves: []SleeveRiskConfig{
			{SleeveID: SleeveEquityLongShort, CapitalAllocUSD: 5_000, MaxSinglePosRiskFrac: 0.015, HaltDrawdownFrac: -0.15, KillDrawdownFrac: -0.25, MaxConcurrentPositions: 15},
			{SleeveID: SleeveStatArbResidual, CapitalAllocUSD: 6_250, MaxSinglePosRiskFrac: 0.01, HaltDrawdownFrac: -0.15, KillDrawdownFrac: -0.25, MaxConcurrentPositions: 30},
			{SleeveID: SleeveMicrostructureIntraday, CapitalAllocUSD: 3_750, MaxSinglePosRiskFrac: 0.007, HaltDrawdownFrac: -0.10, KillDrawdownFrac: -0.20, MaxConcurrentPositions: 40},
			{SleeveID: SleeveOptionsVolPremium, CapitalAllocUSD: 5_000, MaxSinglePosRiskFrac: 0.03, HaltDrawdownFrac: -0.15, KillDrawdownFrac: -0.25, MaxConcurrentPositions: 8},
			{SleeveID: SleeveMicroFuturesMacroTrend, CapitalAllocUSD: 5_000, MaxSinglePosRiskFrac: 0.05, HaltDrawdownFrac: -0.15, KillDrawdownFrac: -0.25, MaxConcurrentPositions: 4},
		},
	}
}

// LegacyPortfolioConfig10k is the first 10k portfolio table
func LegacyPortfolioConfig10k() PortfolioRiskConfig {
	return PortfolioRiskConfig{
		InitialEquityUSD:   10_000,
		HaltDrawdownFrac:   -0.08,
		KillDrawdownFrac:   -0.12,
		MaxLeverage:        1.5,
		RebalanceDriftFrac: 0.15,
		MaxGlobalPositions: 15,
	}
}

// LegacySleeveConfigs10k splits 10k as 20/25/15/20/20 percent across sleeves
func LegacySleeveConfigs10k() []SleeveRiskConfig {
	const total = 10_000.0
	return []SleeveRiskConfig{
		{SleeveID: SleeveEquityLongShort, CapitalAllocUSD: 0.20 * total, MaxSinglePosRiskFrac: 0.02, HaltDrawdownFrac: -0.10, KillDrawdownFrac: -0.15, MaxConcurrentPositions: 10},
		{SleeveID: SleeveStatArbResidual, CapitalAllocUSD: 0.25 * total, MaxSinglePosRiskFrac: 0.015, HaltDrawdownFrac: -0.10, KillDrawdownFrac: -0.18, MaxConcurrentPositions: 20},
		{SleeveID: SleeveMicrostructureIntraday, CapitalAllocUSD: 0.15 * total, MaxSinglePosRiskFrac: 0.01, HaltDrawdownFrac: -0.08, KillDrawdownFrac: -0.12, MaxConcurrentPositions: 10},
		{SleeveID: SleeveOptionsVolPremium, CapitalAllocUSD: 0.20 * total, MaxSinglePosRiskFrac: 0.03, HaltDrawdownFrac: -0.10, KillDrawdownFrac: -0.15, MaxConcurrentPositions: 6},
		{SleeveID: SleeveMicroFuturesMacroTrend, CapitalAllocUSD: 0.20 * total, MaxSinglePosRiskFrac: 0.045, HaltDrawdownFrac: -0.10, KillDrawdownFrac: -0.15, MaxConcurrentPositions: 3},
	}
}

// Legacy10kConfig combines the legacy portfolio and sleeve tables
func Legacy10kConfig() KernelConfig {
	return KernelConfig{
		Portfolio: LegacyPortfolioConfig10k(),
		Sleeves:   LegacySleeveConfigs10k(),
	}
}

// ProfileByName resolves a named profile. Unknown names are an error; use
// ResolveProfile for the lenient fallback used by the binaries.
func ProfileByName(name string) (KernelConfig, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProfileStarter10k:
		return Starter10kConfig(), nil
	case ProfileAggressive25k:
		return Aggressive25kConfig(), nil
	case ProfileLegacy10k:
		return Legacy10kConfig(), nil
	default:
		return KernelConfig{}, fmt.Errorf("unknown risk profile %q", name)
	}
}

// ResolveProfile returns the named profile, falling back to starter_10k
func ResolveProfile(name string) (string, KernelConfig) {
	if cfg, err := ProfileByName(name); err == nil {
		return strings.ToLower(strings.TrimSpace(name)), cfg
	}
	return ProfileStarter10k, Starter10kConfig()
}
