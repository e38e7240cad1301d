package market

import "time"

// Bar represents a single price bar (candlestick)
type Bar struct {
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	StartTime time.Time `json:"start_time"`
	Complete  bool      `json:"complete"`
}

// Body returns the absolute size of the bar's body
func (b Bar) Body() float64 {
	if b.Close >= b.Open {
		return b.Close - b.Open
	}
	return b.Open - b.Close
}

// IsUp reports whether the bar closed above its open
func (b Bar) IsUp() bool {
	return b.Close > b.Open
}

// IsDown reports whether the bar closed below its open
func (b Bar) IsDown() bool {
	return b.Close < b.Open
}

// Range returns the full high-to-low extent of the bar
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// Direction represents a trade or zone direction
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// Opposite returns the flipped direction
func (d Direction) Opposite() Direction {
	if d == Bullish {
		return Bearish
	}
	return Bullish
}
