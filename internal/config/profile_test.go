package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
)

const yamlProfile = `name: desk_a
base: aggressive_25k
sleeves:
  - sleeve_id: micro_futures_macro_trend
    capital_alloc_usd: 8000
    max_single_pos_risk_frac: 0.04
    halt_dd_frac: -0.12
    kill_dd_frac: -0.22
    max_concurrent_positions: 3
budget:
  mes: {max_risk_per_position_eur: 150, max_contracts: 6}
  mnq: {max_risk_per_position_eur: 150, max_contracts: 2}
  sixe: {max_risk_per_position_eur: 90, max_contracts: 2}
  max_total_contracts: 5
macro_futures:
  min_conviction: 0.4
`

const jsonProfile = `{
  "portfolio": {
    "initial_equity_usd": 12000,
    "halt_dd_frac": -0.09,
    "kill_dd_frac": -0.18,
    "max_leverage": 1.2,
    "rebalance_drift_frac": 0.1,
    "max_global_positions": 12
  }
}`

func writeProfile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProfileFile_YAML(t *testing.T) {
	p, err := LoadProfileFile(writeProfile(t, "desk.yaml", yamlProfile))
	require.NoError(t, err)

	assert.Equal(t, "desk_a", p.Name)
	assert.Equal(t, 25_000.0, p.Kernel.Portfolio.InitialEquityUSD)
	assert.Len(t, p.Kernel.Sleeves, len(risk.AllSleeves()))

	mfmt, ok := p.Kernel.SleeveConfig(risk.SleeveMicroFuturesMacroTrend)
	require.True(t, ok)
	assert.Equal(t, 8_000.0, mfmt.CapitalAllocUSD)
	assert.Equal(t, 3, mfmt.MaxConcurrentPositions)

	assert.Equal(t, 6, p.Budget.MES.MaxContracts)
	assert.Equal(t, 5, p.Budget.MaxTotalContracts)

	def := strategy.DefaultMacroFuturesSleeveConfig()
	assert.Equal(t, 0.4, p.MacroFutures.MinConviction)
	assert.Equal(t, def.LogisticK, p.MacroFutures.LogisticK, "unset fields keep defaults")
}

func TestLoadProfileFile_JSON(t *testing.T) {
	p, err := LoadProfileFile(writeProfile(t, "small.json", jsonProfile))
	require.NoError(t, err)

	assert.Equal(t, risk.ProfileStarter10k, p.Name)
	assert.Equal(t, 12_000.0, p.Kernel.Portfolio.InitialEquityUSD)
	assert.Equal(t, risk.Starter10kConfig().Sleeves, p.Kernel.Sleeves)
	assert.Equal(t, strategy.DefaultFuturesRiskBudget(), p.Budget)
	assert.Equal(t, strategy.DefaultMacroFuturesSleeveConfig(), p.MacroFutures)
}

func TestLoadProfileFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown extension", "p.toml", "name = 'x'"},
		{"bad yaml", "p.yaml", "portfolio: [1, 2"},
		{"unknown base", "p.yaml", "base: huge_1m\n"},
		{"bad ladder", "p.json", `{"portfolio": {"initial_equity_usd": 1000, "halt_dd_frac": -0.2, "kill_dd_frac": -0.1, "max_leverage": 1}}`},
		{"bad budget", "p.yaml", "budget:\n  mes: {max_contracts: -2}\n"},
		{"bad sleeve name", "p.yaml", "sleeves:\n  - sleeve_id: crypto_dca\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProfileFile(writeProfile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadProfileFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadProfile(t *testing.T) {
	t.Run("builtin", func(t *testing.T) {
		p, err := LoadProfile(&Config{RiskProfile: "legacy_10k"})
		require.NoError(t, err)
		assert.Equal(t, risk.ProfileLegacy10k, p.Name)
		assert.Equal(t, risk.Legacy10kConfig(), p.Kernel)
	})

	t.Run("unknown falls back", func(t *testing.T) {
		p, err := LoadProfile(&Config{RiskProfile: "nope"})
		require.NoError(t, err)
		assert.Equal(t, risk.ProfileStarter10k, p.Name)
	})

	t.Run("file wins", func(t *testing.T) {
		path := writeProfile(t, "desk.yml", yamlProfile)
		p, err := LoadProfile(&Config{RiskProfile: "legacy_10k", ProfileFile: path})
		require.NoError(t, err)
		assert.Equal(t, "desk_a", p.Name)
	})
}
