package journal

import (
	"context"
	"time"

	"smc-trading-bot/internal/events"
)

// Recorder subscribes to the event bus and journals signals and trade
// outcomes. Repository may be nil when the database is disabled; the
// recorder then drops events silently.
type Recorder struct {
	repo   *Repository
	symbol string
}

// NewRecorder creates an event recorder for one instrument
func NewRecorder(repo *Repository, symbol string) *Recorder {
	return &Recorder{repo: repo, symbol: symbol}
}

// Attach subscribes the recorder to the bus
func (r *Recorder) Attach(bus *events.EventBus) {
	if r.repo == nil {
		return
	}
	bus.SubscribeAll(r.handle)
}

func (r *Recorder) handle(ev events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch ev.Type {
	case events.EventEntryLong, events.EventEntryShort, events.EventEntryPending,
		events.EventEntryTimeout, events.EventTrailingMoved, events.EventZoneCreated,
		events.EventZoneInvalidated, events.EventZoneExpired, events.EventZoneConsumed:
		rec := &SignalRecord{
			Symbol:   r.symbol,
			Kind:     string(ev.Type),
			BarIndex: intField(ev.Data, "bar_index"),
			Price:    floatField(ev.Data, "price"),
			Tag:      strField(ev.Data, "tag"),
		}
		if err := r.repo.SaveSignal(ctx, rec); err != nil {
			r.repo.log.Error().Err(err).Msg("signal journaling failed")
		}

	case events.EventTradeClosed:
		pnl := floatField(ev.Data, "pnl")
		err := r.repo.CloseTrade(ctx, r.symbol,
			floatField(ev.Data, "exit_price"), pnl,
			strField(ev.Data, "reason"), ev.Timestamp)
		if err != nil {
			r.repo.log.Error().Err(err).Msg("trade close journaling failed")
			return
		}
		dayID := ev.Timestamp.Format("2006-01-02")
		if err := r.repo.RecordTradeOutcome(ctx, dayID, r.symbol, pnl); err != nil {
			r.repo.log.Error().Err(err).Msg("daily summary update failed")
		}
	}
}

func strField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func floatField(data map[string]interface{}, key string) float64 {
	if v, ok := data[key].(float64); ok {
		return v
	}
	return 0
}

func intField(data map[string]interface{}, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
