package session

import (
	"testing"
	"time"

	"smc-trading-bot/internal/market"
)

func newTestController(t *testing.T, cfg Config) *Controller {
	t.Helper()
	clock, err := NewClock("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	return NewController(clock, cfg)
}

func TestResetOnDayBoundary(t *testing.T) {
	c := newTestController(t, Config{MaxTradesPerDay: 3})

	day1 := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	if !c.CheckReset(day1) {
		t.Fatal("first bar must reset")
	}
	if c.CheckReset(day1.Add(time.Minute)) {
		t.Error("same day must not reset again")
	}

	c.RecordEntry(market.Bullish, day1)
	c.ObserveBar(market.Bar{High: 21830, Low: 21810})

	if !c.CheckReset(day1.Add(24 * time.Hour)) {
		t.Fatal("next day must reset")
	}
	if c.State().TradesToday != 0 || c.State().LongUsed {
		t.Errorf("state after reset = %+v", c.State())
	}
	if _, _, ok := c.SessionExtremes(); ok {
		t.Error("session extremes must clear on reset")
	}
}

// A UTC evening bar and the next UTC morning bar fall on the same New York
// calendar day, so no reset fires between them.
func TestResetUsesLocalDay(t *testing.T) {
	c := newTestController(t, Config{})

	evening := time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC) // 18:30 NY
	morning := time.Date(2024, 3, 6, 3, 0, 0, 0, time.UTC)   // 22:00 NY, same day
	c.CheckReset(evening)
	if c.CheckReset(morning) {
		t.Error("UTC midnight crossed but local day did not change")
	}
}

func TestSessionExtremes(t *testing.T) {
	c := newTestController(t, Config{})
	c.ObserveBar(market.Bar{High: 21830, Low: 21810})
	c.ObserveBar(market.Bar{High: 21845, Low: 21820})
	c.ObserveBar(market.Bar{High: 21840, Low: 21805})

	high, low, ok := c.SessionExtremes()
	if !ok || high != 21845 || low != 21805 {
		t.Errorf("extremes = %v/%v ok=%v, want 21845/21805", high, low, ok)
	}
}

func TestDailyTradeLimit(t *testing.T) {
	c := newTestController(t, Config{MaxTradesPerDay: 2})
	ts := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	c.CheckReset(ts)

	c.RecordEntry(market.Bullish, ts)
	c.RecordEntry(market.Bearish, ts.Add(time.Minute))

	if ok, reason := c.CanEnter(market.Bullish, ts.Add(2*time.Minute)); ok {
		t.Errorf("third entry allowed: %s", reason)
	}
}

func TestOnePerDirection(t *testing.T) {
	c := newTestController(t, Config{OnePerDirection: true})
	ts := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	c.CheckReset(ts)
	c.RecordEntry(market.Bullish, ts)

	if ok, _ := c.CanEnter(market.Bullish, ts.Add(time.Minute)); ok {
		t.Error("second long allowed")
	}
	if ok, reason := c.CanEnter(market.Bearish, ts.Add(time.Minute)); !ok {
		t.Errorf("first short rejected: %s", reason)
	}
}

func TestCooldown(t *testing.T) {
	c := newTestController(t, Config{CooldownMinutes: 30})
	ts := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	c.CheckReset(ts)
	c.RecordEntry(market.Bullish, ts)

	if ok, _ := c.CanEnter(market.Bearish, ts.Add(15*time.Minute)); ok {
		t.Error("entry allowed inside the cooldown")
	}
	if ok, reason := c.CanEnter(market.Bearish, ts.Add(30*time.Minute)); !ok {
		t.Errorf("entry rejected after the cooldown: %s", reason)
	}
}

func TestPastCutoff(t *testing.T) {
	c := newTestController(t, Config{EODFlattenEnabled: true, EODFlattenHour: 15, EODFlattenMinute: 55})

	before := time.Date(2024, 3, 5, 20, 54, 0, 0, time.UTC) // 15:54 NY
	at := time.Date(2024, 3, 5, 20, 55, 0, 0, time.UTC)     // 15:55 NY
	after := time.Date(2024, 3, 5, 21, 10, 0, 0, time.UTC)  // 16:10 NY

	if c.PastCutoff(before) {
		t.Error("15:54 is before the cutoff")
	}
	if !c.PastCutoff(at) {
		t.Error("15:55 is at the cutoff")
	}
	if !c.PastCutoff(after) {
		t.Error("16:10 is past the cutoff")
	}
}

func TestCutoffDisabled(t *testing.T) {
	c := newTestController(t, Config{EODFlattenHour: 15, EODFlattenMinute: 55})
	if c.PastCutoff(time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)) {
		t.Error("cutoff must not fire while disabled")
	}
}

// A midnight cutoff is a real configuration, not a disabled one: every
// local time of day is at or past it.
func TestMidnightCutoff(t *testing.T) {
	c := newTestController(t, Config{EODFlattenEnabled: true})

	if !c.PastCutoff(time.Date(2024, 3, 5, 5, 0, 0, 0, time.UTC)) { // 00:00 NY
		t.Error("00:00 is at a midnight cutoff")
	}
	if !c.PastCutoff(time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)) { // 09:30 NY
		t.Error("a midnight cutoff covers the whole day")
	}
}

func TestRestore(t *testing.T) {
	c := newTestController(t, Config{MaxTradesPerDay: 2})
	c.Restore(DailyState{DayID: "2024-03-05", TradesToday: 2, LongUsed: true}, 21845, 21805, true)

	if ok, _ := c.CanEnter(market.Bullish, time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)); ok {
		t.Error("restored limit not enforced")
	}
	high, low, ok := c.SessionExtremes()
	if !ok || high != 21845 || low != 21805 {
		t.Errorf("extremes = %v/%v ok=%v", high, low, ok)
	}
	if c.CheckReset(time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)) {
		t.Error("restored day must not reset on the same day")
	}
}
