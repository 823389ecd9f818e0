package features

import (
	"math"
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
	"github.com/ducminhle1904/sleeve-risk-engine/pkg/types"
)

// SyntheticParams shapes a deterministic daily series
type SyntheticParams struct {
	BasePrice  float64
	DailyDrift float64 // compounded per bar
	Wiggle     float64 // relative amplitude of a weekly sine
	Bars       int
	End        time.Time // timestamp of the last bar
}

// DefaultSyntheticParams returns a gently trending series long enough to
// produce a full feature history.
func DefaultSyntheticParams(inst strategy.FutureInstrument, end time.Time) SyntheticParams {
	base := map[strategy.FutureInstrument]float64{
		strategy.InstrumentMES: 5_000,
		strategy.InstrumentMNQ: 17_500,
		strategy.Instrument6E:  1.08,
	}[inst]
	return SyntheticParams{
		BasePrice:  base,
		DailyDrift: 0.0015,
		Wiggle:     0.004,
		Bars:       RequiredOHLCV + 20,
		End:        end,
	}
}

// SyntheticBars generates a noise-free OHLCV series. Identical params give
// identical bars.
func SyntheticBars(p SyntheticParams) []types.OHLCV {
	bars := make([]types.OHLCV, p.Bars)
	start := p.End.AddDate(0, 0, -(p.Bars - 1))
	prev := p.BasePrice
	for i := range bars {
		c := p.BasePrice * math.Pow(1+p.DailyDrift, float64(i)) * (1 + p.Wiggle*math.Sin(float64(i)*2*math.Pi/7))
		open := prev
		high := math.Max(open, c) * 1.002
		low := math.Min(open, c) * 0.998
		bars[i] = types.OHLCV{
			Open:      open,
			High:      high,
			Low:       low,
			Close:     c,
			Volume:    1_000 + float64(i%5)*100,
			Timestamp: start.AddDate(0, 0, i),
		}
		prev = c
	}
	return bars
}

// SyntheticHistories builds feature histories for all instruments from
// default synthetic series ending at end.
func SyntheticHistories(end time.Time, carry *strategy.FxCarryFeatures) (map[strategy.FutureInstrument]strategy.InstrumentHistory, error) {
	bars := make(map[strategy.FutureInstrument][]types.OHLCV, 3)
	for _, inst := range strategy.AllInstruments() {
		bars[inst] = SyntheticBars(DefaultSyntheticParams(inst, end))
	}
	return BuildAll(bars, carry)
}
