package zones

import "smc-trading-bot/internal/market"

// FVGDetector detects three-bar fair value gaps
type FVGDetector struct {
	minGap float64 // minimum gap height in price points
}

// NewFVGDetector creates a new FVG detector
func NewFVGDetector(minGap float64) *FVGDetector {
	if minGap < 0 {
		minGap = 0
	}
	return &FVGDetector{minGap: minGap}
}

// Detect checks the three bars ending at index for an imbalance between the
// first and third bar's wicks. A gap of exactly minGap qualifies.
func (d *FVGDetector) Detect(bars []market.Bar, index int) *Zone {
	if index < 2 || index >= len(bars) {
		return nil
	}

	first := bars[index-2]
	third := bars[index]

	// Bullish: third bar's low clears the first bar's high
	if gap := third.Low - first.High; gap >= d.minGap && gap > 0 {
		return NewZone(FairValueGap, market.Bullish, third.Low, first.High, index)
	}

	// Bearish: first bar's low clears the third bar's high
	if gap := first.Low - third.High; gap >= d.minGap && gap > 0 {
		return NewZone(FairValueGap, market.Bearish, first.Low, third.High, index)
	}

	return nil
}
