package types

import "time"

// OHLCV is one daily price bar as delivered by a data provider.
type OHLCV struct {
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// Side is the direction of an engine order.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// SideForDelta returns Buy for a positive contract delta and Sell otherwise.
func SideForDelta(delta int) Side {
	if delta > 0 {
		return SideBuy
	}
	return SideSell
}
