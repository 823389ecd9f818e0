package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeverageScalar(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		max     float64
		want    float64
	}{
		{"no leverage", 0, 1.5, 1.10},
		{"negative leverage treated as zero", -0.5, 1.5, 1.10},
		{"low band", 0.3, 1.5, 1.10 - 0.25*0.2},
		{"middle band", 0.75, 1.5, 1.03 - 0.20*0.2},
		{"high band", 1.2, 1.5, 0.95 - 2.17*0.1},
		{"at max", 1.5, 1.5, 0},
		{"above max", 3.0, 1.5, 0},
		{"max leverage floored at 0.1", 0.05, 0, 1.03 - 0.20*0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LeverageScalar(tt.current, tt.max)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.10)
		})
	}
}

func TestComputeDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, ComputeDrawdown(5_000, 0))
	assert.Equal(t, 0.0, ComputeDrawdown(5_000, -1))
	assert.InDelta(t, -0.25, ComputeDrawdown(7_500, 10_000), 1e-12)
	assert.InDelta(t, 0.0, ComputeDrawdown(10_000, 10_000), 1e-12)
}

func TestHaltStateFor_KillImpliesHalt(t *testing.T) {
	const halt, kill = -0.10, -0.20

	for dd := 0.0; dd >= -0.5; dd -= 0.01 {
		state := HaltStateFor(dd, halt, kill)
		if state == HaltKill {
			assert.LessOrEqual(t, dd, halt, "kill at %.2f without halt condition", dd)
		}
		if dd > halt {
			assert.Equal(t, HaltNone, state, "drawdown %.2f", dd)
		}
	}
	assert.Equal(t, HaltKill, HaltStateFor(-0.2, halt, kill))
	assert.Equal(t, HaltHalt, HaltStateFor(-0.15, halt, kill))
}

func TestConcurrencyBudget(t *testing.T) {
	tests := []struct {
		name          string
		maxGlobal     int
		open          []int
		wantRemaining int
		wantExtra     int
	}{
		{"even split floors", 20, []int{1, 2, 3}, 14, 4},
		{"over the limit", 5, []int{4, 4}, 0, 0},
		{"no sleeves", 10, nil, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sleeves := make([]SleeveState, len(tt.open))
			for i, o := range tt.open {
				sleeves[i].OpenPositions = o
			}
			remaining, extra := ConcurrencyBudget(tt.maxGlobal, sleeves)
			assert.Equal(t, tt.wantRemaining, remaining)
			assert.Equal(t, tt.wantExtra, extra)
		})
	}
}

func TestMarginRemaining_NonNegative(t *testing.T) {
	assert.Equal(t, 0.0, MarginRemaining(1_000, MarginState{BrokerMarginReqUSD: 5_000}))
	assert.Equal(t, 0.0, ExposureRemaining(1_000, 1.5, math.MaxFloat64))
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "Kill", HaltKill.String())
	assert.Equal(t, "Caution", PortfolioRiskCaution.String())
	assert.Equal(t, "ConcurrencyLimit", DecisionConcurrencyLimit.String())
	assert.Equal(t, "MicroFuturesMacroTrend", SleeveMicroFuturesMacroTrend.String())
}

func TestParseSleeveID(t *testing.T) {
	tests := []struct {
		in   string
		want SleeveID
	}{
		{"MicroFuturesMacroTrend", SleeveMicroFuturesMacroTrend},
		{"micro_futures_macro_trend", SleeveMicroFuturesMacroTrend},
		{" statarbresidual ", SleeveStatArbResidual},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSleeveID(tt.in)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSleeveID("crypto")
	assert.Error(t, err)

	var id SleeveID
	assert.NoError(t, id.UnmarshalText([]byte("options_vol_premium")))
	assert.Equal(t, SleeveOptionsVolPremium, id)
	text, err := id.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "OptionsVolPremium", string(text))
}
