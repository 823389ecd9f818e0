package indicators

import "github.com/ducminhle1904/sleeve-risk-engine/pkg/types"

// CloseChannel tracks the highest and lowest close of the period bars before
// the current one, so a close can break out of its own channel.
type CloseChannel struct {
	period     int
	closes     []float64 // circular buffer
	writeIndex int
	count      int

	lastUpper float64
	lastLower float64
}

// NewCloseChannel creates a close-based Donchian channel
func NewCloseChannel(period int) *CloseChannel {
	return &CloseChannel{
		period: period,
		closes: make([]float64, period),
	}
}

// Update returns the channel midline of the prior window, then adds the
// bar's close. Use Channel for the bounds.
func (c *CloseChannel) Update(bar types.OHLCV) (float64, bool) {
	ready := c.count == c.period
	if ready {
		c.calculateChannel()
	}

	c.closes[c.writeIndex] = bar.Close
	c.writeIndex = (c.writeIndex + 1) % c.period
	if c.count < c.period {
		c.count++
	}

	if !ready {
		return 0, false
	}
	return (c.lastUpper + c.lastLower) / 2, true
}

func (c *CloseChannel) calculateChannel() {
	c.lastUpper = c.closes[0]
	c.lastLower = c.closes[0]
	for i := 1; i < c.count; i++ {
		if c.closes[i] > c.lastUpper {
			c.lastUpper = c.closes[i]
		}
		if c.closes[i] < c.lastLower {
			c.lastLower = c.closes[i]
		}
	}
}

// Channel returns the highest and lowest close of the last complete window
func (c *CloseChannel) Channel() (upper, lower float64) {
	return c.lastUpper, c.lastLower
}

func (c *CloseChannel) GetName() string { return "Close Channel" }

func (c *CloseChannel) GetRequiredPeriods() int { return c.period + 1 }

func (c *CloseChannel) ResetState() {
	c.writeIndex = 0
	c.count = 0
	c.lastUpper = 0
	c.lastLower = 0
	for i := range c.closes {
		c.closes[i] = 0
	}
}
