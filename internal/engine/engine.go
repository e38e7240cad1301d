package engine

import (
	"fmt"
	"time"

	"smc-trading-bot/internal/bias"
	"smc-trading-bot/internal/entry"
	"smc-trading-bot/internal/events"
	"smc-trading-bot/internal/liquidity"
	"smc-trading-bot/internal/logging"
	"smc-trading-bot/internal/market"
	"smc-trading-bot/internal/session"
	"smc-trading-bot/internal/swing"
	"smc-trading-bot/internal/trade"
	"smc-trading-bot/internal/zones"
)

// EventKind tags an engine output event
type EventKind string

const (
	EventEntryLong       EventKind = "entry_long"
	EventEntryShort      EventKind = "entry_short"
	EventEntryPending    EventKind = "entry_pending"
	EventEntryTimeout    EventKind = "entry_timeout"
	EventTradeClosed     EventKind = "trade_closed"
	EventPartialTaken    EventKind = "partial_taken"
	EventBreakevenSet    EventKind = "breakeven_set"
	EventTrailingMoved   EventKind = "trailing_moved"
	EventZoneCreated     EventKind = "zone_created"
	EventZoneInvalidated EventKind = "zone_invalidated"
	EventZoneExpired     EventKind = "zone_expired"
	EventZoneConsumed    EventKind = "zone_consumed"
	EventDailyReset      EventKind = "daily_reset"
)

// Event is one engine output: a signal or a zone lifecycle change
type Event struct {
	Kind     EventKind `json:"kind"`
	BarIndex int       `json:"bar_index"`
	Price    float64   `json:"price"`
	Tag      string    `json:"tag"`
}

// Config holds every engine parameter
type Config struct {
	SwingLeft    int `json:"swing_left"`
	SwingRight   int `json:"swing_right"`
	OBMinCandles int `json:"ob_min_candles"`
	OBLookback   int `json:"ob_lookback"`

	FVGMinGap     float64 `json:"fvg_min_gap"`
	SweepLookback int     `json:"sweep_lookback"`
	Displacement  float64 `json:"displacement"`
	SweepBuffer   float64 `json:"sweep_buffer"`
	BPRMinWidth   float64 `json:"bpr_min_width"`
	BPRDedupeTol  float64 `json:"bpr_dedupe_tol"`

	ZoneMaxAge int `json:"zone_max_age"`
	MaxZones   int `json:"max_zones"`

	BiasMAPeriod     int       `json:"bias_ma_period"`
	BiasMode         bias.Mode `json:"bias_mode"`
	LooseCounterRank int       `json:"loose_counter_rank"`
	HTFFactor        int       `json:"htf_factor"`

	EqualTol          float64 `json:"equal_tol"`
	EqualLookback     int     `json:"equal_lookback"`
	RequireDrawTarget bool    `json:"require_draw_target"`

	EntryMaxWaitBars int  `json:"entry_max_wait_bars"`
	OBMeanRule       bool `json:"ob_mean_rule"`

	Timezone string         `json:"timezone"`
	Session  session.Config `json:"session"`
	Trade    trade.Config   `json:"trade"`
}

// DefaultConfig returns the stock engine parameters
func DefaultConfig() Config {
	return Config{
		SwingLeft:        3,
		SwingRight:       3,
		OBMinCandles:     2,
		OBLookback:       10,
		FVGMinGap:        2,
		SweepLookback:    8,
		Displacement:     10,
		SweepBuffer:      2,
		BPRMinWidth:      2,
		BPRDedupeTol:     1,
		ZoneMaxAge:       120,
		MaxZones:         30,
		BiasMAPeriod:     20,
		BiasMode:         bias.ModeOff,
		LooseCounterRank: 2,
		HTFFactor:        4,
		EqualTol:         3,
		EqualLookback:    40,
		EntryMaxWaitBars: 3,
		OBMeanRule:       true,
		Timezone:         "America/New_York",
		Session: session.Config{
			MaxTradesPerDay:   3,
			CooldownMinutes:   15,
			EODFlattenEnabled: true,
			EODFlattenHour:    15,
			EODFlattenMinute:  55,
		},
		Trade: trade.Config{
			Qty:                 2,
			StopBuffer:          2,
			TightThreshold:      5,
			OverrideToStructure: true,
			DefaultStopPoints:   15,
			StopMin:             5,
			StopMax:             50,
			TargetR:             2,
			TargetMode:          trade.TargetRMultiple,
			BETriggerPoints:     10,
			BEOffset:            1,
			PartialR:            1,
			PartialPct:          0.5,
			TrailDistance:       8,
			MaxBarsInTrade:      60,
			ProgressCheckBars:   20,
			ProgressFloorR:      0.1,
		},
	}
}

// Validate rejects malformed configuration before bar processing begins
func (c Config) Validate() error {
	if c.Trade.StopMin > c.Trade.StopMax {
		return fmt.Errorf("stop_min %.2f exceeds stop_max %.2f", c.Trade.StopMin, c.Trade.StopMax)
	}
	if c.Trade.PartialPct < 0 || c.Trade.PartialPct > 1 {
		return fmt.Errorf("partial_pct %.2f out of [0,1]", c.Trade.PartialPct)
	}
	if c.SwingLeft < 1 || c.SwingRight < 1 {
		return fmt.Errorf("swing strengths must be >= 1")
	}
	if c.FVGMinGap < 0 {
		return fmt.Errorf("fvg_min_gap must be >= 0")
	}
	if c.HTFFactor < 1 {
		return fmt.Errorf("htf_factor must be >= 1")
	}
	return nil
}

// Engine runs the full per-bar pipeline: swing and bias context, zone
// detection, lifecycle, liquidity, entry evaluation when flat and trade
// management when in position. Single-threaded: one call per closed bar.
type Engine struct {
	cfg Config
	log *logging.Logger
	bus *events.EventBus

	clock    *session.Clock
	sessions *session.Controller
	swings   *swing.Tracker
	zoneSet  *zones.Manager
	obDet    *zones.OrderBlockDetector
	fvgDet   *zones.FVGDetector
	brkDet   *zones.BreakerDetector
	invDet   *zones.InversionDetector
	bprDet   *zones.BPRDetector
	biasFlt  *bias.Filter
	liqSel   *liquidity.Selector
	entrySel *entry.Selector
	trades   *trade.Manager
	gateway  market.ExecutionGateway

	bars        []market.Bar
	lastBarTime time.Time
}

// NewEngine wires the engine components. bus may be nil.
func NewEngine(cfg Config, gateway market.ExecutionGateway, bus *events.EventBus) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	clock, err := session.NewClock(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		log:      logging.WithComponent("engine"),
		bus:      bus,
		clock:    clock,
		sessions: session.NewController(clock, cfg.Session),
		swings:   swing.NewTracker(cfg.SwingLeft, cfg.SwingRight),
		zoneSet:  zones.NewManager(cfg.ZoneMaxAge, cfg.MaxZones),
		obDet:    zones.NewOrderBlockDetector(cfg.OBMinCandles, cfg.OBLookback),
		fvgDet:   zones.NewFVGDetector(cfg.FVGMinGap),
		brkDet:   zones.NewBreakerDetector(cfg.SweepLookback, cfg.Displacement, cfg.SweepBuffer),
		invDet:   zones.NewInversionDetector(),
		bprDet:   zones.NewBPRDetector(cfg.BPRMinWidth, cfg.BPRDedupeTol),
		biasFlt:  bias.NewFilter(cfg.BiasMAPeriod, cfg.BiasMode, cfg.LooseCounterRank),
		liqSel:   liquidity.NewSelector(cfg.EqualTol, cfg.EqualLookback),
		entrySel: entry.NewSelector(cfg.EntryMaxWaitBars, cfg.OBMeanRule),
		trades:   trade.NewManager(cfg.Trade, gateway),
		gateway:  gateway,
	}, nil
}

// InPosition reports whether a trade is open
func (e *Engine) InPosition() bool {
	return e.trades.InPosition()
}

// Trade returns the open trade, or nil
func (e *Engine) Trade() *trade.Trade {
	return e.trades.Trade()
}

// ActiveZones returns the live zone set
func (e *Engine) ActiveZones() []*zones.Zone {
	return e.zoneSet.Active()
}

// DailyState returns the session counters
func (e *Engine) DailyState() session.DailyState {
	return e.sessions.State()
}

// BarCount returns the number of bars processed
func (e *Engine) BarCount() int {
	return len(e.bars)
}

// Flatten force-closes any open position at the gateway's last price
func (e *Engine) Flatten() error {
	if !e.trades.InPosition() {
		return nil
	}
	t := e.trades.Trade()
	upd, err := e.trades.Flatten(e.gateway.LastPrice())
	if err != nil {
		return err
	}
	e.log.Info("position flattened", "model", t.EntryModel, "exit", upd.ExitPrice)
	if e.bus != nil {
		pnl := (upd.ExitPrice - t.EntryPrice) * t.Qty
		if t.Direction == market.Bearish {
			pnl = -pnl
		}
		e.bus.PublishTradeClosed(t.EntryModel, string(upd.Reason), t.EntryPrice, upd.ExitPrice, t.Qty, pnl)
	}
	return nil
}

// ProcessBar runs one full engine pass over a closed bar and returns the
// events it produced. Incomplete bars and bars at or before the last
// processed timestamp are ignored, so replaying a bar has no side effects.
func (e *Engine) ProcessBar(bar market.Bar) ([]Event, error) {
	if !bar.Complete {
		return nil, nil
	}
	if !e.lastBarTime.IsZero() && !bar.StartTime.After(e.lastBarTime) {
		return nil, nil
	}
	e.lastBarTime = bar.StartTime

	e.bars = append(e.bars, bar)
	index := len(e.bars) - 1

	if sink, ok := e.gateway.(interface{ SetLastPrice(float64) }); ok {
		sink.SetLastPrice(bar.Close)
	}

	var out []Event

	if e.sessions.CheckReset(bar.StartTime) {
		e.zoneSet.Clear()
		e.entrySel.Reset()
		e.brkDet.Reset()
		out = append(out, Event{Kind: EventDailyReset, BarIndex: index, Price: bar.Close,
			Tag: e.clock.DayID(bar.StartTime)})
	}
	e.sessions.ObserveBar(bar)

	e.swings.Update(e.bars, index)
	intraday := e.biasFlt.Intraday(e.bars, index, e.swings)
	htf := intraday
	if e.cfg.BiasMode != bias.ModeOff && e.cfg.HTFFactor > 1 {
		htf = e.biasFlt.HTF(bias.Aggregate(e.bars, e.cfg.HTFFactor))
	}

	out = append(out, e.runDetectors(bar, index)...)
	out = append(out, e.runLifecycle(bar, index)...)

	primary, havePrimary := e.liquidityTarget(bar, index, intraday)

	if e.trades.InPosition() {
		evts, err := e.manageTrade(bar, index)
		if err != nil {
			return out, err
		}
		out = append(out, evts...)
	} else {
		evts, err := e.evaluateEntry(bar, index, htf, primary, havePrimary)
		if err != nil {
			return out, err
		}
		out = append(out, evts...)
	}

	e.zoneSet.Sweep()
	e.publish(out)
	if e.bus != nil {
		e.bus.Publish(events.Event{Type: events.EventBarProcessed, Data: map[string]interface{}{
			"bar_index": index,
			"price":     bar.Close,
		}})
	}
	return out, nil
}

// runDetectors emits new zones. Detection runs before lifecycle so a zone
// created this bar must survive this bar's invalidation pass before entry
// evaluation can see it.
func (e *Engine) runDetectors(bar market.Bar, index int) []Event {
	var out []Event
	add := func(z *zones.Zone) {
		e.zoneSet.Add(z)
		out = append(out, Event{Kind: EventZoneCreated, BarIndex: index, Price: z.Mean, Tag: z.Tag()})
		e.publishZone(events.EventZoneCreated, z, index)
	}

	if z := e.obDet.Detect(e.bars, index); z != nil {
		add(z)
	}
	if z := e.fvgDet.Detect(e.bars, index); z != nil {
		add(z)
	}
	for _, z := range e.brkDet.DetectFlips(bar, index, e.zoneSet.Active()) {
		add(z)
	}

	var swingHigh, swingLow float64
	high, haveHigh := e.swings.CurrentHigh()
	low, haveLow := e.swings.CurrentLow()
	if haveHigh {
		swingHigh = high.Price
	}
	if haveLow {
		swingLow = low.Price
	}
	if z := e.brkDet.DetectStructure(bar, index, swingHigh, swingLow, haveHigh, haveLow); z != nil {
		add(z)
	}

	inverted, consumed := e.invDet.Detect(bar, index, e.zoneSet.Active())
	for _, z := range consumed {
		out = append(out, Event{Kind: EventZoneConsumed, BarIndex: index, Price: z.Mean, Tag: z.Tag()})
		e.publishZone(events.EventZoneConsumed, z, index)
	}
	for _, z := range inverted {
		add(z)
	}
	for _, z := range e.bprDet.Detect(index, e.zoneSet.Active()) {
		add(z)
	}
	return out
}

func (e *Engine) runLifecycle(bar market.Bar, index int) []Event {
	var out []Event
	expired, violated := e.zoneSet.Update(bar, index)
	for _, z := range expired {
		out = append(out, Event{Kind: EventZoneExpired, BarIndex: index, Price: z.Mean, Tag: z.Tag()})
		e.publishZone(events.EventZoneExpired, z, index)
	}
	for _, z := range violated {
		out = append(out, Event{Kind: EventZoneInvalidated, BarIndex: index, Price: z.Mean, Tag: z.Tag()})
		e.publishZone(events.EventZoneInvalidated, z, index)
	}
	return out
}

func (e *Engine) publishZone(t events.EventType, z *zones.Zone, index int) {
	if e.bus == nil {
		return
	}
	e.bus.PublishZone(t, z.ID, string(z.Kind), string(z.Direction), z.Tag(), index, z.Mean)
}

func (e *Engine) liquidityTarget(bar market.Bar, index int, b bias.State) (liquidity.Target, bool) {
	high, low, ok := e.sessions.SessionExtremes()
	cands := e.liqSel.Candidates(e.bars, index, high, low, ok, e.swings)
	return e.liqSel.Primary(cands, bar.Close, b)
}

func (e *Engine) manageTrade(bar market.Bar, index int) ([]Event, error) {
	t := e.trades.Trade()
	model := t.EntryModel
	entryPx := t.EntryPrice
	qty := t.Qty
	dir := t.Direction

	upd, err := e.trades.ManageBar(bar, index, e.sessions.PastCutoff(bar.StartTime))
	if err != nil {
		return nil, err
	}

	var out []Event
	if upd.BreakevenSet {
		out = append(out, Event{Kind: EventBreakevenSet, BarIndex: index, Price: bar.Close, Tag: model})
	}
	if upd.PartialFired {
		out = append(out, Event{Kind: EventPartialTaken, BarIndex: index, Price: bar.Close,
			Tag: fmt.Sprintf("%s qty %.2f", model, upd.PartialQty)})
	}
	if upd.TrailingMoved {
		out = append(out, Event{Kind: EventTrailingMoved, BarIndex: index, Price: upd.TrailingStop, Tag: model})
	}
	if upd.Closed {
		pnl := (upd.ExitPrice - entryPx) * qty
		if dir == market.Bearish {
			pnl = -pnl
		}
		out = append(out, Event{Kind: EventTradeClosed, BarIndex: index, Price: upd.ExitPrice,
			Tag: fmt.Sprintf("%s %s", model, upd.Reason)})
		if e.bus != nil {
			e.bus.PublishTradeClosed(model, string(upd.Reason), entryPx, upd.ExitPrice, qty, pnl)
		}
		e.log.Info("trade closed", "model", model, "reason", string(upd.Reason),
			"exit", upd.ExitPrice, "pnl", pnl)
	}
	return out, nil
}

func (e *Engine) evaluateEntry(bar market.Bar, index int, htf bias.State, primary liquidity.Target, havePrimary bool) ([]Event, error) {
	permit := func(dir market.Direction, rank int) bool {
		if e.sessions.PastCutoff(bar.StartTime) {
			return false
		}
		if ok, reason := e.sessions.CanEnter(dir, bar.StartTime); !ok {
			e.log.Debug("entry blocked", "reason", reason)
			return false
		}
		if !e.biasFlt.Allows(htf, dir, rank) {
			return false
		}
		if e.cfg.RequireDrawTarget {
			if !havePrimary {
				return false
			}
			if dir == market.Bullish && primary.Draw != liquidity.DrawUp {
				return false
			}
			if dir == market.Bearish && primary.Draw != liquidity.DrawDown {
				return false
			}
		}
		return true
	}

	res := e.entrySel.Evaluate(bar, index, e.zoneSet.Active(), permit)
	switch {
	case res.Armed != nil:
		return []Event{{Kind: EventEntryPending, BarIndex: index, Price: bar.Close,
			Tag: fmt.Sprintf("%s %s", res.Armed.Model, res.Armed.Zone.Tag())}}, nil
	case res.TimedOut != nil:
		return []Event{{Kind: EventEntryTimeout, BarIndex: index, Price: bar.Close,
			Tag: string(res.TimedOut.Model)}}, nil
	case res.Trigger != nil:
		return e.openTrade(bar, index, res.Trigger, primary, havePrimary)
	}
	return nil, nil
}

func (e *Engine) openTrade(bar market.Bar, index int, trg *entry.Trigger, primary liquidity.Target, havePrimary bool) ([]Event, error) {
	params := trade.OpenParams{
		Direction:  trg.Direction,
		EntryPrice: trg.Price,
		Model:      string(trg.Model),
		BarIndex:   index,
	}
	if trg.Direction == market.Bullish {
		params.StructureStop = trg.Zone.Bottom
		if low, ok := e.swings.CurrentLow(); ok {
			params.SwingStop = low.Price
		}
		if havePrimary && primary.Draw == liquidity.DrawUp {
			params.LiquidityPx = primary.Price
		}
	} else {
		params.StructureStop = trg.Zone.Top
		if high, ok := e.swings.CurrentHigh(); ok {
			params.SwingStop = high.Price
		}
		if havePrimary && primary.Draw == liquidity.DrawDown {
			params.LiquidityPx = primary.Price
		}
	}

	t, err := e.trades.Open(params)
	if err != nil {
		return nil, fmt.Errorf("open trade: %w", err)
	}
	e.sessions.RecordEntry(trg.Direction, bar.StartTime)

	kind := EventEntryLong
	if trg.Direction == market.Bearish {
		kind = EventEntryShort
	}
	tag := fmt.Sprintf("%s %s", trg.Model, trg.Zone.Tag())
	e.log.Info("entry", "model", string(trg.Model), "direction", string(trg.Direction),
		"price", trg.Price, "stop", t.StopPrice, "target", t.TargetPrice)

	return []Event{{Kind: kind, BarIndex: index, Price: trg.Price, Tag: tag}}, nil
}

func (e *Engine) publish(evts []Event) {
	if e.bus == nil {
		return
	}
	for _, ev := range evts {
		var t events.EventType
		switch ev.Kind {
		case EventEntryLong:
			t = events.EventEntryLong
		case EventEntryShort:
			t = events.EventEntryShort
		case EventEntryPending:
			t = events.EventEntryPending
		case EventEntryTimeout:
			t = events.EventEntryTimeout
		case EventTradeClosed:
			continue // published with full detail in manageTrade
		case EventPartialTaken:
			t = events.EventPartialTaken
		case EventBreakevenSet:
			t = events.EventBreakevenSet
		case EventTrailingMoved:
			t = events.EventTrailingMoved
		case EventZoneCreated, EventZoneInvalidated, EventZoneExpired, EventZoneConsumed:
			continue // published with zone detail at the source
		case EventDailyReset:
			t = events.EventDailyReset
		default:
			continue
		}
		e.bus.PublishSignal(t, "", ev.Tag, ev.BarIndex, ev.Price)
	}
}
