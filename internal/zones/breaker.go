package zones

import "smc-trading-bot/internal/market"

// BreakerDetector emits breaker zones from two independent triggers: an
// order block violated by an opposite close (flip), and a liquidity sweep
// followed by a displacement close through the opposite swing extreme
// (structure). Either trigger may fire on any bar.
type BreakerDetector struct {
	sweepLookback int     // bars allowed between sweep and displacement close
	displacement  float64 // minimum body size of the displacement bar
	sweepBuffer   float64 // zone height around the swept extreme

	pending *pendingSweep
}

// pendingSweep tracks a sweep of a swing extreme awaiting displacement
type pendingSweep struct {
	barIndex int
	swept    float64
	dir      market.Direction // direction of the breaker that would form
	opposite float64          // opposite swing extreme price at sweep time
}

// NewBreakerDetector creates a new breaker detector
func NewBreakerDetector(sweepLookback int, displacement, sweepBuffer float64) *BreakerDetector {
	if sweepLookback < 1 {
		sweepLookback = 5
	}
	return &BreakerDetector{
		sweepLookback: sweepLookback,
		displacement:  displacement,
		sweepBuffer:   sweepBuffer,
	}
}

// DetectFlips checks every active, not-yet-violated order block for a close
// through its opposite side. Violated blocks are marked in place and a
// breaker with the same bounds and flipped direction is returned for each.
func (d *BreakerDetector) DetectFlips(bar market.Bar, index int, active []*Zone) []*Zone {
	var breakers []*Zone

	for _, z := range active {
		if z.Kind != OrderBlock || z.Status != StatusActive || z.ViolatedOnce {
			continue
		}

		flipped := false
		if z.Direction == market.Bullish && bar.Close < z.Bottom {
			flipped = true
		}
		if z.Direction == market.Bearish && bar.Close > z.Top {
			flipped = true
		}
		if !flipped {
			continue
		}

		z.Status = StatusViolated
		z.ViolatedOnce = true
		breakers = append(breakers, NewZone(Breaker, z.Direction.Opposite(), z.Top, z.Bottom, index))
	}

	return breakers
}

// DetectStructure advances the sweep state machine. swingHigh/swingLow are
// the most recent confirmed swing extremes; haveHigh/haveLow report whether
// they exist yet.
func (d *BreakerDetector) DetectStructure(bar market.Bar, index int, swingHigh, swingLow float64, haveHigh, haveLow bool) *Zone {
	// Expire a stale sweep
	if d.pending != nil && index-d.pending.barIndex > d.sweepLookback {
		d.pending = nil
	}

	// Resolve a pending sweep: a displacement body closing beyond the
	// opposite extreme confirms the structural reversal.
	if d.pending != nil && bar.Body() >= d.displacement {
		p := d.pending
		if p.dir == market.Bullish && bar.Close > p.opposite {
			d.pending = nil
			return NewZone(Breaker, market.Bullish, p.swept+d.sweepBuffer, p.swept, index)
		}
		if p.dir == market.Bearish && bar.Close < p.opposite {
			d.pending = nil
			return NewZone(Breaker, market.Bearish, p.swept, p.swept-d.sweepBuffer, index)
		}
	}

	// Arm a new sweep. A wick beyond the swing low with a close back above it
	// sets up a bullish reversal; symmetric above the swing high.
	if haveLow && haveHigh && bar.Low < swingLow && bar.Close > swingLow {
		d.pending = &pendingSweep{barIndex: index, swept: swingLow, dir: market.Bullish, opposite: swingHigh}
	} else if haveHigh && haveLow && bar.High > swingHigh && bar.Close < swingHigh {
		d.pending = &pendingSweep{barIndex: index, swept: swingHigh, dir: market.Bearish, opposite: swingLow}
	}

	return nil
}

// Reset clears any pending sweep state (used at daily reset)
func (d *BreakerDetector) Reset() {
	d.pending = nil
}
