package trade

import (
	"testing"

	"smc-trading-bot/internal/market"
)

func testConfig() Config {
	return Config{
		Qty:                 2,
		StopBuffer:          2,
		TightThreshold:      5,
		OverrideToStructure: true,
		DefaultStopPoints:   15,
		StopMin:             5,
		StopMax:             50,
		TargetR:             2,
		TargetMode:          TargetRMultiple,
		BETriggerPoints:     10,
		BEOffset:            1,
		PartialR:            1,
		PartialPct:          0.5,
		TrailDistance:       8,
		MaxBarsInTrade:      40,
		ProgressCheckBars:   10,
		ProgressFloorR:      0.2,
	}
}

func openLong(t *testing.T, m *Manager, entry, structureStop float64) *Trade {
	t.Helper()
	tr, err := m.Open(OpenParams{
		Direction:     market.Bullish,
		EntryPrice:    entry,
		StructureStop: structureStop,
		Model:         "breaker_retap",
		BarIndex:      100,
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	return tr
}

func TestOpenDerivesStopAndTarget(t *testing.T) {
	gw := market.NewPaperGateway(0.25)
	m := NewManager(testConfig(), gw)

	tr := openLong(t, m, 21823, 21810) // structure distance 13 + buffer 2 = 15
	if tr.RiskPoints != 15 {
		t.Errorf("risk = %v, want 15", tr.RiskPoints)
	}
	if tr.StopPrice != 21808 {
		t.Errorf("stop = %v, want 21808", tr.StopPrice)
	}
	if tr.TargetPrice != 21853 {
		t.Errorf("target = %v, want 21853", tr.TargetPrice)
	}
	if gw.CurrentPosition() != 2 {
		t.Errorf("position = %v, want 2", gw.CurrentPosition())
	}
}

func TestOpenTightOverrideAndClamp(t *testing.T) {
	gw := market.NewPaperGateway(0.25)
	cfg := testConfig()
	m := NewManager(cfg, gw)

	// Structure stop 1 point away is below the tight threshold, no swing
	// fallback available, so the default distance applies
	tr := openLong(t, m, 21800, 21799)
	if tr.RiskPoints != cfg.DefaultStopPoints {
		t.Errorf("risk = %v, want default %v", tr.RiskPoints, cfg.DefaultStopPoints)
	}

	m2 := NewManager(cfg, market.NewPaperGateway(0.25))
	tr2 := openLong(t, m2, 21800, 21700) // 102 points, clamps to stop_max
	if tr2.RiskPoints != cfg.StopMax {
		t.Errorf("risk = %v, want clamp %v", tr2.RiskPoints, cfg.StopMax)
	}
}

func TestOpenRejectsSecondTrade(t *testing.T) {
	m := NewManager(testConfig(), market.NewPaperGateway(0.25))
	openLong(t, m, 21800, 21790)
	if _, err := m.Open(OpenParams{Direction: market.Bearish, EntryPrice: 21800, StructureStop: 21810}); err == nil {
		t.Fatal("second open should fail")
	}
}

func TestStopBreachClosesFull(t *testing.T) {
	m := NewManager(testConfig(), market.NewPaperGateway(0.25))
	openLong(t, m, 21823, 21810)

	upd, err := m.ManageBar(market.Bar{Close: 21807}, 101, false)
	if err != nil {
		t.Fatal(err)
	}
	if !upd.Closed || upd.Reason != ExitStop {
		t.Fatalf("expected stop exit, got %+v", upd)
	}
	if m.InPosition() {
		t.Error("should be flat after stop")
	}
}

func TestEODFlattenWinsOverEverything(t *testing.T) {
	m := NewManager(testConfig(), market.NewPaperGateway(0.25))
	openLong(t, m, 21823, 21810)

	// Both the target and EOD would fire; EOD must win
	upd, err := m.ManageBar(market.Bar{Close: 21860}, 101, true)
	if err != nil {
		t.Fatal(err)
	}
	if upd.Reason != ExitEOD {
		t.Errorf("reason = %s, want eod_flatten", upd.Reason)
	}
}

func TestBreakevenOneShot(t *testing.T) {
	m := NewManager(testConfig(), market.NewPaperGateway(0.25))
	tr := openLong(t, m, 21823, 21810)

	// +12 points trips the breakeven trigger
	upd, _ := m.ManageBar(market.Bar{Close: 21835}, 101, false)
	if !upd.BreakevenSet {
		t.Fatal("expected breakeven promotion")
	}
	if tr.StopPrice != 21824 {
		t.Errorf("breakeven stop = %v, want 21824", tr.StopPrice)
	}

	// Profit shrinks but stays above the new stop; the stop must not move back
	m.ManageBar(market.Bar{Close: 21828}, 102, false)
	if tr.StopPrice != 21824 {
		t.Errorf("stop reverted to %v", tr.StopPrice)
	}

	// Close at the breakeven stop exits with the breakeven reason
	upd, _ = m.ManageBar(market.Bar{Close: 21824}, 103, false)
	if !upd.Closed || upd.Reason != ExitBreakeven {
		t.Fatalf("expected breakeven exit, got %+v", upd)
	}
}

func TestPartialFiresOnceThenTrails(t *testing.T) {
	m := NewManager(testConfig(), market.NewPaperGateway(0.25))
	tr := openLong(t, m, 21823, 21810) // risk 15, partial at +15

	upd, _ := m.ManageBar(market.Bar{Close: 21838}, 101, false)
	if !upd.PartialFired || upd.PartialQty != 1 {
		t.Fatalf("expected half-size partial, got %+v", upd)
	}
	if tr.Qty != 1 || !tr.PartialTaken {
		t.Errorf("trade after partial: qty=%v taken=%v", tr.Qty, tr.PartialTaken)
	}

	// Second bar at the same R must not fire again, but trailing engages
	upd, _ = m.ManageBar(market.Bar{Close: 21840}, 102, false)
	if upd.PartialFired {
		t.Error("partial fired twice")
	}
	if !tr.TrailingActive {
		t.Fatal("trailing should activate after partial")
	}
	firstTrail := tr.TrailingStop

	// Price pulls back: the trailing stop must not loosen
	m.ManageBar(market.Bar{Close: 21836}, 103, false)
	if tr.TrailingStop != firstTrail {
		t.Errorf("trailing stop loosened: %v -> %v", firstTrail, tr.TrailingStop)
	}

	// New high ratchets it up
	m.ManageBar(market.Bar{Close: 21847}, 104, false)
	if tr.TrailingStop <= firstTrail {
		t.Errorf("trailing stop should ratchet up, still %v", tr.TrailingStop)
	}
}

func TestPartialDegradesToFullClose(t *testing.T) {
	cfg := testConfig()
	cfg.Qty = 1 // remaining after partial would be < 1 unit
	m := NewManager(cfg, market.NewPaperGateway(0.25))
	openLong(t, m, 21823, 21810)

	upd, _ := m.ManageBar(market.Bar{Close: 21838}, 101, false)
	if !upd.Closed {
		t.Fatal("expected full close instead of sub-unit partial")
	}
	if upd.Reason != ExitPartialFull {
		t.Errorf("reason = %s, want partial_full_close", upd.Reason)
	}
	if m.InPosition() {
		t.Error("should be flat")
	}
}

func TestFlattenReportsManualReason(t *testing.T) {
	m := NewManager(testConfig(), market.NewPaperGateway(0.25))
	openLong(t, m, 21823, 21810)

	upd, err := m.Flatten(21830)
	if err != nil {
		t.Fatal(err)
	}
	if !upd.Closed || upd.Reason != ExitManual {
		t.Fatalf("expected manual_flatten, got %+v", upd)
	}
	if upd.ExitPrice != 21830 {
		t.Errorf("exit price = %v, want 21830", upd.ExitPrice)
	}
	if m.InPosition() {
		t.Error("should be flat")
	}
}

func TestProgressStop(t *testing.T) {
	m := NewManager(testConfig(), market.NewPaperGateway(0.25))
	openLong(t, m, 21823, 21810)

	// Ten bars in with only +1 point, below the 0.2R floor
	upd, _ := m.ManageBar(market.Bar{Close: 21824}, 110, false)
	if !upd.Closed || upd.Reason != ExitProgress {
		t.Fatalf("expected progress stop, got %+v", upd)
	}
}

func TestTimeStop(t *testing.T) {
	cfg := testConfig()
	cfg.ProgressCheckBars = 0
	m := NewManager(cfg, market.NewPaperGateway(0.25))
	openLong(t, m, 21823, 21810)

	upd, _ := m.ManageBar(market.Bar{Close: 21824}, 140, false)
	if !upd.Closed || upd.Reason != ExitTimeStop {
		t.Fatalf("expected time stop, got %+v", upd)
	}
}

func TestShortTradeSymmetry(t *testing.T) {
	m := NewManager(testConfig(), market.NewPaperGateway(0.25))
	tr, err := m.Open(OpenParams{
		Direction:     market.Bearish,
		EntryPrice:    21855,
		StructureStop: 21865,
		Model:         "breaker_retap",
		BarIndex:      50,
	})
	if err != nil {
		t.Fatal(err)
	}
	if tr.StopPrice != 21867 {
		t.Errorf("short stop = %v, want 21867", tr.StopPrice)
	}
	if tr.TargetPrice != 21831 {
		t.Errorf("short target = %v, want 21831", tr.TargetPrice)
	}

	upd, _ := m.ManageBar(market.Bar{Close: 21868}, 51, false)
	if !upd.Closed || upd.Reason != ExitStop {
		t.Fatalf("expected short stop exit, got %+v", upd)
	}
}

func TestLiquidityTargetMode(t *testing.T) {
	cfg := testConfig()
	cfg.TargetMode = TargetLiquidity
	m := NewManager(cfg, market.NewPaperGateway(0.25))
	tr, err := m.Open(OpenParams{
		Direction:     market.Bullish,
		EntryPrice:    21823,
		StructureStop: 21810,
		LiquidityPx:   21880,
		BarIndex:      10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if tr.TargetPrice != 21880 {
		t.Errorf("target = %v, want liquidity draw 21880", tr.TargetPrice)
	}
}

func TestHybridTargetFallsBackBelowOneR(t *testing.T) {
	cfg := testConfig()
	cfg.TargetMode = TargetHybrid
	m := NewManager(cfg, market.NewPaperGateway(0.25))
	tr, err := m.Open(OpenParams{
		Direction:     market.Bullish,
		EntryPrice:    21823,
		StructureStop: 21810,
		LiquidityPx:   21830, // only +7 against 15 points of risk
		BarIndex:      10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if tr.TargetPrice != 21853 {
		t.Errorf("target = %v, want R-multiple fallback 21853", tr.TargetPrice)
	}
}
