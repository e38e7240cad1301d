package zones

// BPRDetector computes balanced price ranges: the overlap between two
// active zones of complementary origin and matching direction.
type BPRDetector struct {
	minWidth  float64 // minimum overlap height in price points
	dedupeTol float64 // bound tolerance for deduplication against existing BPRs
}

// NewBPRDetector creates a new balanced price range detector
func NewBPRDetector(minWidth, dedupeTol float64) *BPRDetector {
	if dedupeTol <= 0 {
		dedupeTol = minWidth / 4
	}
	return &BPRDetector{minWidth: minWidth, dedupeTol: dedupeTol}
}

// complementary reports whether two zone kinds can combine into a BPR
func complementary(a, b Kind) bool {
	if a == b {
		return false
	}
	pairable := func(k Kind) bool {
		return k == FairValueGap || k == InvertedFVG || k == Breaker
	}
	return pairable(a) && pairable(b)
}

// Detect pairs active zones and emits one BPR per qualifying overlap not
// already represented. Emitted zones carry the shared direction.
func (d *BPRDetector) Detect(index int, active []*Zone) []*Zone {
	var found []*Zone

	for i := 0; i < len(active); i++ {
		a := active[i]
		if a.Status != StatusActive || a.Kind == BalancedRange || a.Kind == OrderBlock {
			continue
		}
		for j := i + 1; j < len(active); j++ {
			b := active[j]
			if b.Status != StatusActive || b.Direction != a.Direction {
				continue
			}
			if !complementary(a.Kind, b.Kind) {
				continue
			}

			top, bottom, ok := a.Overlap(b)
			if !ok || top-bottom < d.minWidth {
				continue
			}
			if d.duplicate(top, bottom, active) || d.duplicateIn(top, bottom, found) {
				continue
			}
			found = append(found, NewZone(BalancedRange, a.Direction, top, bottom, index))
		}
	}

	return found
}

func (d *BPRDetector) duplicate(top, bottom float64, active []*Zone) bool {
	for _, z := range active {
		if z.Kind != BalancedRange || z.Status != StatusActive {
			continue
		}
		if absDiff(z.Top, top) <= d.dedupeTol && absDiff(z.Bottom, bottom) <= d.dedupeTol {
			return true
		}
	}
	return false
}

func (d *BPRDetector) duplicateIn(top, bottom float64, found []*Zone) bool {
	for _, z := range found {
		if absDiff(z.Top, top) <= d.dedupeTol && absDiff(z.Bottom, bottom) <= d.dedupeTol {
			return true
		}
	}
	return false
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
