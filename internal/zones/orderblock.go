package zones

import "smc-trading-bot/internal/market"

// OrderBlockDetector detects order blocks: a run of consecutive
// same-direction closes whose opposite extreme is broken by the current bar
type OrderBlockDetector struct {
	minCandles  int // minimum consecutive same-direction closes in the block
	maxLookback int // how far back the run scan may extend
}

// NewOrderBlockDetector creates a new order block detector
func NewOrderBlockDetector(minCandles, maxLookback int) *OrderBlockDetector {
	if minCandles < 1 {
		minCandles = 1
	}
	if maxLookback < minCandles {
		maxLookback = minCandles * 3
	}
	return &OrderBlockDetector{minCandles: minCandles, maxLookback: maxLookback}
}

// Detect scans backward from the bar before index for a run of consecutive
// down-closes (or up-closes). If the current bar closes above the run's high
// (resp. below its low), the run becomes a bullish (resp. bearish) order
// block spanning the run's full extent.
func (d *OrderBlockDetector) Detect(bars []market.Bar, index int) *Zone {
	if index < d.minCandles || index >= len(bars) {
		return nil
	}

	current := bars[index]

	// Down-close run broken upward => bullish order block
	if z := d.scanRun(bars, index, false, current); z != nil {
		return z
	}
	// Up-close run broken downward => bearish order block
	return d.scanRun(bars, index, true, current)
}

func (d *OrderBlockDetector) scanRun(bars []market.Bar, index int, upRun bool, current market.Bar) *Zone {
	high := 0.0
	low := 0.0
	count := 0

	for i := index - 1; i >= 0 && count < d.maxLookback; i-- {
		b := bars[i]
		if upRun && !b.IsUp() {
			break
		}
		if !upRun && !b.IsDown() {
			break
		}
		if count == 0 {
			high, low = b.High, b.Low
		} else {
			if b.High > high {
				high = b.High
			}
			if b.Low < low {
				low = b.Low
			}
		}
		count++
	}

	if count < d.minCandles {
		return nil
	}

	if upRun {
		// Up-closes broken by a close below the block low => bearish OB
		if current.Close < low {
			return NewZone(OrderBlock, market.Bearish, high, low, index)
		}
		return nil
	}

	// Down-closes broken by a close above the block high => bullish OB
	if current.Close > high {
		return NewZone(OrderBlock, market.Bullish, high, low, index)
	}
	return nil
}
