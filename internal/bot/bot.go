package bot

import (
	"context"
	"sync"
	"time"

	"smc-trading-bot/internal/engine"
	"smc-trading-bot/internal/journal"
	"smc-trading-bot/internal/logging"
	"smc-trading-bot/internal/market"
)

// Bot drives the engine from a live bar feed and exposes a thread-safe view
// for the API. The engine itself is single-threaded; every touch goes
// through the bot's mutex.
type Bot struct {
	engine *engine.Engine
	feed   market.BarFeed
	store  *journal.SnapshotStore // nil when snapshots are disabled
	repo   *journal.Repository    // nil when the database is disabled
	symbol string
	log    *logging.Logger

	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a bot around a wired engine and bar feed
func New(eng *engine.Engine, feed market.BarFeed, store *journal.SnapshotStore, repo *journal.Repository, symbol string) *Bot {
	return &Bot{
		engine:   eng,
		feed:     feed,
		store:    store,
		repo:     repo,
		symbol:   symbol,
		log:      logging.WithComponent("bot"),
		stopChan: make(chan struct{}),
	}
}

// Start restores any snapshot, starts the feed, and runs the bar loop
func (b *Bot) Start(ctx context.Context) error {
	if b.store != nil {
		if snap, ok, err := b.store.Load(ctx, b.symbol); err != nil {
			b.log.Warn("snapshot load failed", "error", err.Error())
		} else if ok {
			b.engine.Restore(snap)
			b.log.Info("engine state restored", "day", snap.Daily.DayID,
				"trades_today", snap.Daily.TradesToday)
		}
	}

	if err := b.feed.Start(); err != nil {
		return err
	}

	b.wg.Add(1)
	go b.run(ctx)
	return nil
}

// Stop shuts down the feed and waits for the bar loop to drain
func (b *Bot) Stop() {
	close(b.stopChan)
	b.feed.Stop()
	b.wg.Wait()
}

func (b *Bot) run(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ctx.Done():
			return
		case bar, ok := <-b.feed.Bars():
			if !ok {
				return
			}
			b.processBar(ctx, bar)
		}
	}
}

func (b *Bot) processBar(ctx context.Context, bar market.Bar) {
	b.mu.Lock()
	evts, err := b.engine.ProcessBar(bar)
	tr := b.engine.Trade()
	snap := b.engine.Snapshot()
	b.mu.Unlock()

	if err != nil {
		b.log.Error("bar processing failed", "error", err.Error())
		return
	}
	if len(evts) == 0 {
		return
	}

	for _, ev := range evts {
		if (ev.Kind == engine.EventEntryLong || ev.Kind == engine.EventEntryShort) &&
			b.repo != nil && tr != nil {
			rec := &journal.TradeRecord{
				Symbol:      b.symbol,
				Direction:   string(tr.Direction),
				Model:       tr.EntryModel,
				EntryPrice:  tr.EntryPrice,
				StopPrice:   tr.StopPrice,
				TargetPrice: tr.TargetPrice,
				Quantity:    tr.Qty,
				EntryTime:   bar.StartTime,
			}
			if err := b.repo.OpenTrade(ctx, rec); err != nil {
				b.log.Error("trade journaling failed", "error", err.Error())
			}
		}
	}

	if b.store != nil {
		saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := b.store.Save(saveCtx, b.symbol, snap); err != nil {
			b.log.Warn("snapshot save failed", "error", err.Error())
		}
		cancel()
	}
}

// Status reports the engine state for the API
func (b *Bot) Status() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	daily := b.engine.DailyState()
	return map[string]interface{}{
		"symbol":       b.symbol,
		"bars":         b.engine.BarCount(),
		"in_position":  b.engine.InPosition(),
		"active_zones": len(b.engine.ActiveZones()),
		"day":          daily.DayID,
		"trades_today": daily.TradesToday,
	}
}

// Zones returns the live zone set for the API
func (b *Bot) Zones() []map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	active := b.engine.ActiveZones()
	out := make([]map[string]interface{}, 0, len(active))
	for _, z := range active {
		out = append(out, map[string]interface{}{
			"id":        z.ID,
			"kind":      string(z.Kind),
			"direction": string(z.Direction),
			"top":       z.Top,
			"bottom":    z.Bottom,
			"mean":      z.Mean,
		})
	}
	return out
}

// OpenTrade returns the open trade for the API, or nil when flat
func (b *Bot) OpenTrade() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.engine.Trade()
	if t == nil {
		return nil
	}
	return map[string]interface{}{
		"direction":    string(t.Direction),
		"model":        t.EntryModel,
		"entry_price":  t.EntryPrice,
		"stop_price":   t.StopPrice,
		"target_price": t.TargetPrice,
		"quantity":     t.Qty,
		"partial":      t.PartialTaken,
		"breakeven":    t.BreakevenActive,
		"trailing":     t.TrailingActive,
	}
}

// FlattenNow force-closes any open position
func (b *Bot) FlattenNow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine.Flatten()
}
