package indicators

import (
	"math"

	"github.com/ducminhle1904/sleeve-risk-engine/pkg/types"
)

// RateOfChange is the simple return over period bars: close / close[-period] - 1
type RateOfChange struct {
	period int
	closes []float64 // period+1 closes, circular
	next   int
	count  int
}

func NewRateOfChange(period int) *RateOfChange {
	return &RateOfChange{period: period, closes: make([]float64, period+1)}
}

func (r *RateOfChange) Update(bar types.OHLCV) (float64, bool) {
	r.closes[r.next] = bar.Close
	r.next = (r.next + 1) % len(r.closes)
	if r.count < len(r.closes) {
		r.count++
	}
	if r.count < len(r.closes) {
		return 0, false
	}
	// after the write, r.next points at the oldest close
	oldest := r.closes[r.next]
	if oldest == 0 {
		return math.NaN(), true
	}
	return bar.Close/oldest - 1, true
}

func (r *RateOfChange) GetName() string { return "ROC" }

func (r *RateOfChange) GetRequiredPeriods() int { return r.period + 1 }

func (r *RateOfChange) ResetState() {
	r.next = 0
	r.count = 0
}

// LogReturnVol is the sample standard deviation of the last period daily log
// returns. It is not annualized.
type LogReturnVol struct {
	period    int
	returns   []float64 // circular
	next      int
	count     int
	lastClose float64
	hasClose  bool
}

func NewLogReturnVol(period int) *LogReturnVol {
	return &LogReturnVol{period: period, returns: make([]float64, period)}
}

func (v *LogReturnVol) Update(bar types.OHLCV) (float64, bool) {
	if !v.hasClose {
		v.lastClose = bar.Close
		v.hasClose = true
		return 0, false
	}

	lr := math.NaN()
	if v.lastClose > 0 && bar.Close > 0 {
		lr = math.Log(bar.Close / v.lastClose)
	}
	v.lastClose = bar.Close

	v.returns[v.next] = lr
	v.next = (v.next + 1) % v.period
	if v.count < v.period {
		v.count++
	}
	if v.count < v.period {
		return 0, false
	}
	return sampleStdev(v.returns), true
}

func sampleStdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func (v *LogReturnVol) GetName() string { return "LogReturnVol" }

func (v *LogReturnVol) GetRequiredPeriods() int { return v.period + 1 }

func (v *LogReturnVol) ResetState() {
	v.next = 0
	v.count = 0
	v.lastClose = 0
	v.hasClose = false
}
