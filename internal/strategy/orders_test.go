package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/pkg/types"
)

func TestBuildOrderIntents(t *testing.T) {
	tests := []struct {
		name      string
		contracts []FuturesPlannedContracts
		current   map[FutureInstrument]int
		expected  []FuturesOrderIntent
	}{
		{
			name:      "open from flat",
			contracts: []FuturesPlannedContracts{{Instrument: InstrumentMES, TargetContracts: 3}},
			current:   map[FutureInstrument]int{},
			expected: []FuturesOrderIntent{
				{Instrument: InstrumentMES, CurrentContracts: 0, TargetContracts: 3, DeltaContracts: 3},
			},
		},
		{
			name:      "reverse and flatten unplanned",
			contracts: []FuturesPlannedContracts{{Instrument: InstrumentMNQ, TargetContracts: -2}},
			current:   map[FutureInstrument]int{InstrumentMNQ: 1, Instrument6E: 2},
			expected: []FuturesOrderIntent{
				{Instrument: InstrumentMNQ, CurrentContracts: 1, TargetContracts: -2, DeltaContracts: -3},
				{Instrument: Instrument6E, CurrentContracts: 2, TargetContracts: 0, DeltaContracts: -2},
			},
		},
		{
			name:      "already at target keeps a zero delta intent",
			contracts: []FuturesPlannedContracts{{Instrument: InstrumentMES, TargetContracts: 2}},
			current:   map[FutureInstrument]int{InstrumentMES: 2},
			expected: []FuturesOrderIntent{
				{Instrument: InstrumentMES, CurrentContracts: 2, TargetContracts: 2, DeltaContracts: 0},
			},
		},
		{
			name:      "no plan no positions",
			contracts: nil,
			current:   map[FutureInstrument]int{},
			expected:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildOrderIntents(tt.contracts, tt.current)
			assert.Equal(t, tt.expected, got)
			for _, in := range got {
				assert.Equal(t, in.TargetContracts-in.CurrentContracts, in.DeltaContracts)
			}
		})
	}
}

func TestMapOrderIntentsToEngineOrders(t *testing.T) {
	intents := []FuturesOrderIntent{
		{Instrument: InstrumentMES, CurrentContracts: 0, TargetContracts: 3, DeltaContracts: 3},
		{Instrument: InstrumentMNQ, CurrentContracts: 2, TargetContracts: 2, DeltaContracts: 0},
		{Instrument: Instrument6E, CurrentContracts: 2, TargetContracts: -1, DeltaContracts: -3},
	}

	orders := MapOrderIntentsToEngineOrders(risk.SleeveMicroFuturesMacroTrend, intents)
	require.Len(t, orders, 2)

	assert.Equal(t, EngineOrder{
		SleeveID:   risk.SleeveMicroFuturesMacroTrend,
		Instrument: InstrumentMES,
		Symbol:     InstrumentMES.Spec().Symbol,
		Venue:      InstrumentMES.Spec().Venue,
		Side:       types.SideBuy,
		Quantity:   3,
	}, orders[0])

	assert.Equal(t, Instrument6E, orders[1].Instrument)
	assert.Equal(t, types.SideSell, orders[1].Side)
	assert.Equal(t, 3, orders[1].Quantity)
	assert.Empty(t, orders[1].ClientOrderID)
}
