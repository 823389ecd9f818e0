package indicators

import (
	"math"

	"github.com/ducminhle1904/sleeve-risk-engine/pkg/types"
)

// ATR is the Average True Range with Wilder smoothing. The first value is the
// mean true range of the first period bars.
type ATR struct {
	period    int
	count     int
	sumTR     float64
	value     float64
	lastClose float64
}

// NewATR creates a new ATR indicator
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Update(bar types.OHLCV) (float64, bool) {
	var tr float64
	if a.count == 0 {
		tr = bar.High - bar.Low // first candle
	} else {
		tr = trueRange(bar, a.lastClose)
	}
	a.lastClose = bar.Close
	a.count++

	switch {
	case a.count < a.period:
		a.sumTR += tr
		return 0, false
	case a.count == a.period:
		a.sumTR += tr
		a.value = a.sumTR / float64(a.period)
	default:
		a.value = (a.value*float64(a.period-1) + tr) / float64(a.period)
	}
	return a.value, true
}

// trueRange = max(High-Low, |High-PrevClose|, |Low-PrevClose|)
func trueRange(current types.OHLCV, prevClose float64) float64 {
	hl := current.High - current.Low
	hc := math.Abs(current.High - prevClose)
	lc := math.Abs(current.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}

func (a *ATR) GetName() string { return "ATR" }

func (a *ATR) GetRequiredPeriods() int { return a.period }

// GetLastValue returns the last calculated ATR value
func (a *ATR) GetLastValue() float64 { return a.value }

func (a *ATR) ResetState() {
	a.count = 0
	a.sumTR = 0
	a.value = 0
	a.lastClose = 0
}
