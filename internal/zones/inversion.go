package zones

import "smc-trading-bot/internal/market"

// InversionDetector flips fair value gaps whose far edge is closed through.
// The original gap is marked consumed and an inverted gap with the same
// bounds and opposite direction replaces it.
type InversionDetector struct{}

// NewInversionDetector creates a new FVG inversion detector
func NewInversionDetector() *InversionDetector {
	return &InversionDetector{}
}

// Detect scans active fair value gaps for a close beyond the far edge:
// below the bottom for a bullish gap, above the top for a bearish gap.
// It returns the new inverted gaps and the source gaps they consumed.
func (d *InversionDetector) Detect(bar market.Bar, index int, active []*Zone) (inverted, consumed []*Zone) {
	for _, z := range active {
		if z.Kind != FairValueGap || z.Status != StatusActive {
			continue
		}

		through := false
		if z.Direction == market.Bullish && bar.Close < z.Bottom {
			through = true
		}
		if z.Direction == market.Bearish && bar.Close > z.Top {
			through = true
		}
		if !through {
			continue
		}

		z.Status = StatusConsumed
		consumed = append(consumed, z)
		inverted = append(inverted, NewZone(InvertedFVG, z.Direction.Opposite(), z.Top, z.Bottom, index))
	}

	return inverted, consumed
}
