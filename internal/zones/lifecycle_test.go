package zones

import (
	"testing"

	"smc-trading-bot/internal/market"
)

func TestManagerSequentialIDs(t *testing.T) {
	m := NewManager(100, 10)
	a := m.Add(NewZone(FairValueGap, market.Bullish, 21825, 21815, 0))
	b := m.Add(NewZone(OrderBlock, market.Bearish, 21840, 21830, 1))

	if a.ID != 1 || b.ID != 2 {
		t.Errorf("ids = %d,%d, want 1,2", a.ID, b.ID)
	}
}

func TestManagerCapDropsOldest(t *testing.T) {
	m := NewManager(100, 2)
	first := m.Add(NewZone(FairValueGap, market.Bullish, 21825, 21815, 0))
	m.Add(NewZone(FairValueGap, market.Bullish, 21835, 21828, 1))
	m.Add(NewZone(FairValueGap, market.Bullish, 21845, 21838, 2))

	if first.Status != StatusExpired {
		t.Errorf("oldest zone = %s, want expired", first.Status)
	}
	if n := len(m.Active()); n != 2 {
		t.Errorf("active = %d, want 2", n)
	}
}

func TestManagerAgeExpiry(t *testing.T) {
	m := NewManager(5, 10)
	z := m.Add(NewZone(FairValueGap, market.Bullish, 21825, 21815, 0))

	expired, _ := m.Update(tb(21820, 21822, 21818, 21821), 6)
	if len(expired) != 1 || expired[0] != z {
		t.Fatalf("expired = %+v, want the aged zone", expired)
	}
	if z.Status != StatusExpired {
		t.Errorf("status = %s, want expired", z.Status)
	}
}

func TestManagerViolation(t *testing.T) {
	m := NewManager(100, 10)
	bull := m.Add(NewZone(FairValueGap, market.Bullish, 21825, 21815, 0))
	bear := m.Add(NewZone(InvertedFVG, market.Bearish, 21840, 21830, 0))

	_, violated := m.Update(tb(21816, 21818, 21812, 21813), 3)
	if len(violated) != 1 || violated[0] != bull {
		t.Fatalf("violated = %+v, want the bullish zone", violated)
	}

	_, violated = m.Update(tb(21838, 21843, 21837, 21842), 4)
	if len(violated) != 1 || violated[0] != bear {
		t.Fatalf("violated = %+v, want the bearish zone", violated)
	}
}

// Dead zones stay visible until Sweep so same-bar consumers still see them.
func TestManagerSweep(t *testing.T) {
	m := NewManager(100, 10)
	m.Add(NewZone(FairValueGap, market.Bullish, 21825, 21815, 0))
	m.Add(NewZone(FairValueGap, market.Bearish, 21840, 21830, 0))

	m.Update(tb(21816, 21818, 21812, 21813), 3) // violates the bullish zone
	if m.Count() != 2 {
		t.Errorf("count before sweep = %d, want 2", m.Count())
	}

	m.Sweep()
	if m.Count() != 1 {
		t.Errorf("count after sweep = %d, want 1", m.Count())
	}
}

func TestManagerActiveOfKind(t *testing.T) {
	m := NewManager(100, 10)
	m.Add(NewZone(FairValueGap, market.Bullish, 21825, 21815, 0))
	m.Add(NewZone(Breaker, market.Bullish, 21830, 21820, 1))
	m.Add(NewZone(Breaker, market.Bearish, 21850, 21840, 2))

	if n := len(m.ActiveOfKind(Breaker)); n != 2 {
		t.Errorf("breakers = %d, want 2", n)
	}
	if n := len(m.ActiveOfKind(BalancedRange)); n != 0 {
		t.Errorf("ranges = %d, want 0", n)
	}
}

func TestManagerClear(t *testing.T) {
	m := NewManager(100, 10)
	m.Add(NewZone(FairValueGap, market.Bullish, 21825, 21815, 0))
	m.Clear()

	if m.Count() != 0 {
		t.Errorf("count = %d, want 0", m.Count())
	}
	// IDs keep advancing across a clear
	z := m.Add(NewZone(FairValueGap, market.Bullish, 21825, 21815, 5))
	if z.ID != 2 {
		t.Errorf("id = %d, want 2", z.ID)
	}
}
