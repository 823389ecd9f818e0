package risk

import (
	"fmt"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/errors"
)

// Validate checks the drawdown ladder and the basic limits of every config
func (c KernelConfig) Validate() error {
	p := c.Portfolio
	if p.InitialEquityUSD <= 0 {
		return configError("portfolio", "initial_equity_usd must be positive")
	}
	if err := validateLadder("portfolio", p.HaltDrawdownFrac, p.KillDrawdownFrac); err != nil {
		return err
	}
	if p.MaxLeverage <= 0 {
		return configError("portfolio", "max_leverage must be positive")
	}
	if p.MaxGlobalPositions < 0 {
		return configError("portfolio", "max_global_positions must not be negative")
	}
	if len(c.Sleeves) == 0 {
		return configError("portfolio", "at least one sleeve is required")
	}

	seen := make(map[SleeveID]bool, len(c.Sleeves))
	for _, s := range c.Sleeves {
		scope := s.SleeveID.String()
		if seen[s.SleeveID] {
			return configError(scope, "duplicate sleeve config")
		}
		seen[s.SleeveID] = true

		if s.CapitalAllocUSD < 0 {
			return configError(scope, "capital_alloc_usd must not be negative")
		}
		if s.MaxSinglePosRiskFrac < 0 || s.MaxSinglePosRiskFrac > 1 {
			return configError(scope, fmt.Sprintf("max_single_pos_risk_frac %.4f outside [0, 1]", s.MaxSinglePosRiskFrac))
		}
		if s.MaxConcurrentPositions < 0 {
			return configError(scope, "max_concurrent_positions must not be negative")
		}
		if err := validateLadder(scope, s.HaltDrawdownFrac, s.KillDrawdownFrac); err != nil {
			return err
		}
	}
	return nil
}

// validateLadder enforces kill < halt < 0
func validateLadder(scope string, halt, kill float64) error {
	if !(halt < 0) {
		return configError(scope, fmt.Sprintf("halt_dd_frac %.4f must be negative", halt))
	}
	if !(kill < halt) {
		return configError(scope, fmt.Sprintf("kill_dd_frac %.4f must be below halt_dd_frac %.4f", kill, halt))
	}
	return nil
}

func configError(scope, message string) error {
	return errors.NewConfigurationError("RiskConfig", "Validate", scope+": "+message).WithContext("scope", scope)
}
