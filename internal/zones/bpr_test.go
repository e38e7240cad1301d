package zones

import (
	"testing"

	"smc-trading-bot/internal/market"
)

func TestBPRFromBreakerAndGap(t *testing.T) {
	d := NewBPRDetector(2, 1)
	brk := NewZone(Breaker, market.Bullish, 21830, 21820, 5)
	gap := NewZone(FairValueGap, market.Bullish, 21825, 21815, 2)

	out := d.Detect(6, []*Zone{brk, gap})
	if len(out) != 1 {
		t.Fatalf("ranges = %d, want 1", len(out))
	}

	bpr := out[0]
	if bpr.Kind != BalancedRange || bpr.Direction != market.Bullish {
		t.Errorf("got %s %s", bpr.Direction, bpr.Kind)
	}
	if bpr.Top != 21825 || bpr.Bottom != 21820 {
		t.Errorf("bounds = [%v,%v], want the overlap [21820,21825]", bpr.Bottom, bpr.Top)
	}
	if bpr.Mean != 21822.5 {
		t.Errorf("mean = %v, want 21822.5", bpr.Mean)
	}
}

func TestBPRDirectionMustMatch(t *testing.T) {
	d := NewBPRDetector(2, 1)
	brk := NewZone(Breaker, market.Bullish, 21830, 21820, 5)
	gap := NewZone(FairValueGap, market.Bearish, 21825, 21815, 2)

	if out := d.Detect(6, []*Zone{brk, gap}); out != nil {
		t.Errorf("opposite directions paired: %+v", out)
	}
}

func TestBPRSameKindDoesNotPair(t *testing.T) {
	d := NewBPRDetector(2, 1)
	a := NewZone(FairValueGap, market.Bullish, 21830, 21820, 5)
	b := NewZone(FairValueGap, market.Bullish, 21825, 21815, 2)

	if out := d.Detect(6, []*Zone{a, b}); out != nil {
		t.Errorf("two gaps paired: %+v", out)
	}
}

func TestBPROrderBlockExcluded(t *testing.T) {
	d := NewBPRDetector(2, 1)
	ob := NewZone(OrderBlock, market.Bullish, 21830, 21820, 5)
	gap := NewZone(FairValueGap, market.Bullish, 21825, 21815, 2)

	if out := d.Detect(6, []*Zone{ob, gap}); out != nil {
		t.Errorf("order block contributed to a range: %+v", out)
	}
}

func TestBPRMinWidth(t *testing.T) {
	d := NewBPRDetector(6, 1)
	brk := NewZone(Breaker, market.Bullish, 21830, 21820, 5)
	gap := NewZone(FairValueGap, market.Bullish, 21825, 21815, 2) // overlap width 5

	if out := d.Detect(6, []*Zone{brk, gap}); out != nil {
		t.Errorf("narrow overlap emitted: %+v", out)
	}
}

// An overlap already represented by an active range must not re-emit.
func TestBPRDedupe(t *testing.T) {
	d := NewBPRDetector(2, 1)
	brk := NewZone(Breaker, market.Bullish, 21830, 21820, 5)
	gap := NewZone(FairValueGap, market.Bullish, 21825, 21815, 2)
	prior := NewZone(BalancedRange, market.Bullish, 21825.5, 21820.5, 5)

	if out := d.Detect(6, []*Zone{brk, gap, prior}); out != nil {
		t.Errorf("duplicate of an active range emitted: %+v", out)
	}
}

func TestBPRInvertedGapPairs(t *testing.T) {
	d := NewBPRDetector(2, 1)
	brk := NewZone(Breaker, market.Bearish, 21830, 21820, 5)
	inv := NewZone(InvertedFVG, market.Bearish, 21826, 21818, 3)

	out := d.Detect(6, []*Zone{brk, inv})
	if len(out) != 1 {
		t.Fatalf("ranges = %d, want 1", len(out))
	}
	if out[0].Top != 21826 || out[0].Bottom != 21820 {
		t.Errorf("bounds = [%v,%v], want [21820,21826]", out[0].Bottom, out[0].Top)
	}
}
