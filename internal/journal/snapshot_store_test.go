package journal

import (
	"context"
	"testing"
	"time"

	"smc-trading-bot/internal/engine"
	"smc-trading-bot/internal/session"
)

func TestSnapshotStoreFallback(t *testing.T) {
	store := NewSnapshotStore(nil) // no Redis: in-memory only
	ctx := context.Background()

	snap := engine.Snapshot{
		LastBarTime: time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC),
		Daily:       session.DailyState{DayID: "2024-03-05", TradesToday: 2},
		SessionHigh: 21860,
		SessionLow:  21810,
		HaveSession: true,
	}

	if err := store.Save(ctx, "BTCUSDT", snap); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, ok, err := store.Load(ctx, "BTCUSDT")
	if err != nil || !ok {
		t.Fatalf("load failed: ok=%v err=%v", ok, err)
	}
	if got.Daily.TradesToday != 2 || got.SessionHigh != 21860 {
		t.Errorf("snapshot mismatch: %+v", got)
	}

	if _, ok, _ := store.Load(ctx, "ETHUSDT"); ok {
		t.Error("unknown symbol should not load")
	}

	store.Clear(ctx, "BTCUSDT")
	if _, ok, _ := store.Load(ctx, "BTCUSDT"); ok {
		t.Error("cleared snapshot should not load")
	}
}
