package indicators

import "github.com/ducminhle1904/sleeve-risk-engine/pkg/types"

// StreamingIndicator consumes daily bars one at a time, oldest first
type StreamingIndicator interface {
	// Update adds a bar and returns the current value. ready is false while
	// the indicator is still warming up.
	Update(bar types.OHLCV) (value float64, ready bool)
	GetName() string
	GetRequiredPeriods() int
	ResetState()
}
