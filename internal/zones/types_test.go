package zones

import (
	"testing"

	"smc-trading-bot/internal/market"
)

// Bounds are normalized at construction, so Top >= Bottom always holds.
func TestNewZoneNormalizesBounds(t *testing.T) {
	z := NewZone(FairValueGap, market.Bullish, 21815, 21825, 3)

	if z.Top != 21825 || z.Bottom != 21815 {
		t.Errorf("bounds = [%v,%v], want [21815,21825]", z.Bottom, z.Top)
	}
	if z.Mean != 21820 {
		t.Errorf("mean = %v, want 21820", z.Mean)
	}
	if z.Status != StatusActive {
		t.Errorf("status = %s, want active", z.Status)
	}
}

func TestZoneContains(t *testing.T) {
	z := NewZone(Breaker, market.Bullish, 21830, 21820, 0)

	for _, px := range []float64{21820, 21825, 21830} {
		if !z.Contains(px) {
			t.Errorf("%v should be inside [21820,21830]", px)
		}
	}
	if z.Contains(21819.75) || z.Contains(21830.25) {
		t.Error("prices outside the bounds reported as inside")
	}
}

func TestZoneOverlap(t *testing.T) {
	a := NewZone(Breaker, market.Bullish, 21830, 21820, 0)
	b := NewZone(FairValueGap, market.Bullish, 21825, 21815, 0)

	top, bottom, ok := a.Overlap(b)
	if !ok || top != 21825 || bottom != 21820 {
		t.Errorf("overlap = [%v,%v] ok=%v, want [21820,21825]", bottom, top, ok)
	}
}

// Disjoint and edge-touching ranges yield no overlap.
func TestZoneOverlapEmpty(t *testing.T) {
	a := NewZone(Breaker, market.Bullish, 21830, 21820, 0)

	disjoint := NewZone(FairValueGap, market.Bullish, 21815, 21810, 0)
	if _, _, ok := a.Overlap(disjoint); ok {
		t.Error("disjoint ranges overlapped")
	}

	touching := NewZone(FairValueGap, market.Bullish, 21820, 21815, 0)
	if _, _, ok := a.Overlap(touching); ok {
		t.Error("degenerate single-point overlap must not qualify")
	}
}
