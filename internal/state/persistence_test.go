package state

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
)

func TestStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(nil, dir, "starter_10k")

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, snap)

	tick := time.Date(2025, 1, 6, 21, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(SessionSnapshot{
		LastTick:               tick,
		PortfolioPeakEquityUSD: 10_500,
		Sleeves: []risk.SleeveState{
			{SleeveID: risk.SleeveMicroFuturesMacroTrend, EquityUSD: 2_100, PeakEquityUSD: 2_150, OpenPositions: 2},
		},
		Positions: PositionsBySymbol(map[strategy.FutureInstrument]int{
			strategy.InstrumentMES: 3,
			strategy.InstrumentMNQ: 0,
			strategy.Instrument6E:  -1,
		}),
	}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, SnapshotVersion, loaded.Version)
	assert.Equal(t, "starter_10k", loaded.Profile)
	assert.True(t, loaded.LastTick.Equal(tick))
	assert.Equal(t, 10_500.0, loaded.PortfolioPeakEquityUSD)
	require.Len(t, loaded.Sleeves, 1)
	assert.Equal(t, risk.SleeveMicroFuturesMacroTrend, loaded.Sleeves[0].SleeveID)
	assert.Equal(t, 2_150.0, loaded.Sleeves[0].PeakEquityUSD)
	assert.Equal(t, map[strategy.FutureInstrument]int{
		strategy.InstrumentMES: 3,
		strategy.Instrument6E:  -1,
	}, loaded.PositionsByInstrument())
}

func TestStore_SaveKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(nil, dir, "starter_10k")

	require.NoError(t, store.Save(SessionSnapshot{PortfolioPeakEquityUSD: 1}))
	require.NoError(t, store.Save(SessionSnapshot{PortfolioPeakEquityUSD: 2}))

	_, err := os.Stat(store.backupPath())
	assert.NoError(t, err)
}

func TestStore_IgnoresUnusableSnapshots(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
	}{
		{
			name: "other profile",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, NewStore(nil, dir, "aggressive_25k").Save(SessionSnapshot{}))
				// copy it under the starter name
				data, err := os.ReadFile(NewStore(nil, dir, "aggressive_25k").statePath())
				require.NoError(t, err)
				require.NoError(t, os.WriteFile(NewStore(nil, dir, "starter_10k").statePath(), data, 0644))
			},
		},
		{
			name: "too old",
			setup: func(t *testing.T, dir string) {
				old := NewStore(nil, dir, "starter_10k")
				old.now = func() time.Time { return time.Now().Add(-MaxSnapshotAge - time.Hour) }
				require.NoError(t, old.Save(SessionSnapshot{}))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)

			snap, err := NewStore(nil, dir, "starter_10k").Load()
			require.NoError(t, err)
			assert.Nil(t, snap)
		})
	}
}

func TestStore_CorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(nil, dir, "starter_10k")
	require.NoError(t, os.WriteFile(store.statePath(), []byte("{not json"), 0644))

	_, err := store.Load()
	assert.Error(t, err)
}
