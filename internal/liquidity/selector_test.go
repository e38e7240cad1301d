package liquidity

import (
	"testing"

	"smc-trading-bot/internal/bias"
	"smc-trading-bot/internal/market"
	"smc-trading-bot/internal/swing"
)

func tb(o, h, l, c float64) market.Bar {
	return market.Bar{Open: o, High: h, Low: l, Close: c, Complete: true}
}

func swingBars() ([]market.Bar, *swing.Tracker) {
	tr := swing.NewTracker(1, 1)
	bars := []market.Bar{
		tb(21820, 21822, 21818, 21821),
		tb(21821, 21830, 21812, 21828), // swing high 21830, swing low 21812
		tb(21828, 21829, 21824, 21825),
	}
	for i := range bars {
		tr.Update(bars, i)
	}
	return bars, tr
}

func TestCandidatesFromSessionAndSwings(t *testing.T) {
	s := NewSelector(0, 20)
	bars, tr := swingBars()

	out := s.Candidates(bars, 2, 21840, 21805, true, tr)
	if len(out) != 4 {
		t.Fatalf("candidates = %d, want 4: %+v", len(out), out)
	}

	byOrigin := map[Origin]Target{}
	for _, c := range out {
		byOrigin[c.Origin] = c
	}
	if c := byOrigin[SessionHigh]; c.Price != 21840 || c.Draw != DrawUp {
		t.Errorf("session high = %+v", c)
	}
	if c := byOrigin[SessionLow]; c.Price != 21805 || c.Draw != DrawDown {
		t.Errorf("session low = %+v", c)
	}
	if c := byOrigin[SwingHigh]; c.Price != 21830 || c.Draw != DrawUp {
		t.Errorf("swing high = %+v", c)
	}
	if c := byOrigin[SwingLow]; c.Price != 21812 || c.Draw != DrawDown {
		t.Errorf("swing low = %+v", c)
	}
}

// A target the close has already traded through is filled and omitted.
func TestCandidatesOmitFilled(t *testing.T) {
	s := NewSelector(0, 20)
	bars, tr := swingBars()

	out := s.Candidates(bars, 2, 21825, 21805, true, tr) // session high == close
	for _, c := range out {
		if c.Origin == SessionHigh {
			t.Errorf("filled target still listed: %+v", c)
		}
	}
}

func TestEqualHighsCluster(t *testing.T) {
	s := NewSelector(0.5, 20)
	tr := swing.NewTracker(1, 1)
	bars := []market.Bar{
		tb(21820, 21835, 21818, 21822),
		tb(21822, 21828, 21820, 21826),
		tb(21826, 21835.25, 21824, 21827), // high within tolerance of bar 0
		tb(21827, 21829, 21825, 21828),
	}

	out := s.Candidates(bars, 3, 0, 0, false, tr)
	var found *Target
	for i := range out {
		if out[i].Origin == EqualHighs {
			found = &out[i]
		}
	}
	if found == nil {
		t.Fatal("expected an equal-highs target")
	}
	// The cluster's outer price is the draw
	if found.Price != 21835.25 || found.Draw != DrawUp {
		t.Errorf("target = %+v, want 21835.25 up", found)
	}
}

func TestPrimaryNearest(t *testing.T) {
	s := NewSelector(0, 20)
	cands := []Target{
		{Price: 21840, Origin: SessionHigh, Draw: DrawUp},
		{Price: 21830, Origin: SwingHigh, Draw: DrawUp},
		{Price: 21805, Origin: SessionLow, Draw: DrawDown},
	}

	best, ok := s.Primary(cands, 21825, bias.StateNeutral)
	if !ok || best.Price != 21830 {
		t.Errorf("primary = %+v ok=%v, want the nearest at 21830", best, ok)
	}
}

func TestPrimaryRespectsBias(t *testing.T) {
	s := NewSelector(0, 20)
	cands := []Target{
		{Price: 21830, Origin: SwingHigh, Draw: DrawUp},
		{Price: 21820, Origin: SwingLow, Draw: DrawDown},
	}

	best, ok := s.Primary(cands, 21825, bias.StateBearish)
	if !ok || best.Draw != DrawDown {
		t.Errorf("primary = %+v ok=%v, want the downside target", best, ok)
	}

	if _, ok := s.Primary(cands[:1], 21825, bias.StateBearish); ok {
		t.Error("bearish bias accepted an upside-only list")
	}
}
