package zones

import (
	"testing"

	"smc-trading-bot/internal/market"
)

func TestOrderBlockBullish(t *testing.T) {
	d := NewOrderBlockDetector(2, 10)
	bars := []market.Bar{
		tb(21830, 21831, 21824, 21825), // down
		tb(21825, 21826, 21819, 21820), // down, run = [21819,21831]
		tb(21821, 21834, 21820, 21833), // closes above 21831
	}

	z := d.Detect(bars, 2)
	if z == nil {
		t.Fatal("expected bullish order block")
	}
	if z.Kind != OrderBlock || z.Direction != market.Bullish {
		t.Errorf("got %s %s", z.Direction, z.Kind)
	}
	if z.Bottom != 21819 || z.Top != 21831 {
		t.Errorf("bounds = [%v,%v], want [21819,21831]", z.Bottom, z.Top)
	}
}

func TestOrderBlockBearish(t *testing.T) {
	d := NewOrderBlockDetector(2, 10)
	bars := []market.Bar{
		tb(21820, 21826, 21819, 21825), // up
		tb(21825, 21831, 21824, 21830), // up, run = [21819,21831]
		tb(21829, 21830, 21816, 21817), // closes below 21819
	}

	z := d.Detect(bars, 2)
	if z == nil {
		t.Fatal("expected bearish order block")
	}
	if z.Direction != market.Bearish {
		t.Errorf("direction = %s, want bearish", z.Direction)
	}
	if z.Bottom != 21819 || z.Top != 21831 {
		t.Errorf("bounds = [%v,%v], want [21819,21831]", z.Bottom, z.Top)
	}
}

// A break that does not clear the run's extreme is not a block.
func TestOrderBlockRequiresBreak(t *testing.T) {
	d := NewOrderBlockDetector(2, 10)
	bars := []market.Bar{
		tb(21830, 21831, 21824, 21825),
		tb(21825, 21826, 21819, 21820),
		tb(21821, 21830, 21820, 21829), // close 21829 < run high 21831
	}
	if z := d.Detect(bars, 2); z != nil {
		t.Errorf("close inside the run produced a block: %+v", z)
	}
}

func TestOrderBlockMinCandles(t *testing.T) {
	d := NewOrderBlockDetector(3, 10)
	bars := []market.Bar{
		tb(21826, 21828, 21824, 21827), // up bar ends any down run here
		tb(21827, 21828, 21821, 21822), // down
		tb(21822, 21823, 21818, 21819), // down, run of 2
		tb(21820, 21835, 21819, 21834),
	}
	if z := d.Detect(bars, 3); z != nil {
		t.Errorf("two-candle run passed a three-candle minimum: %+v", z)
	}
}

// The backward scan stops at the lookback cap, so earlier bars of a long run
// are not folded into the block bounds.
func TestOrderBlockLookbackCap(t *testing.T) {
	d := NewOrderBlockDetector(1, 2)
	bars := []market.Bar{
		tb(21840, 21841, 21833, 21834), // beyond lookback
		tb(21834, 21835, 21828, 21829),
		tb(21829, 21830, 21823, 21824), // scan covers these two bars only
		tb(21825, 21837, 21824, 21836),
	}

	z := d.Detect(bars, 3)
	if z == nil {
		t.Fatal("expected order block")
	}
	if z.Top != 21835 || z.Bottom != 21823 {
		t.Errorf("bounds = [%v,%v], want [21823,21835]", z.Bottom, z.Top)
	}
}
