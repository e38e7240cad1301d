package session

import (
	"fmt"
	"time"

	"smc-trading-bot/internal/market"
)

// Clock derives timezone-aware session fields from bar timestamps
type Clock struct {
	loc *time.Location
}

// NewClock creates a session clock for the given IANA timezone name
func NewClock(timezone string) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc}, nil
}

// DayID returns the calendar day identifier for a timestamp
func (c *Clock) DayID(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}

// HourMinute returns the local hour and minute of day
func (c *Clock) HourMinute(t time.Time) (int, int) {
	lt := t.In(c.loc)
	return lt.Hour(), lt.Minute()
}

// DailyState tracks per-day trading counters, reset exactly once at each
// calendar-day boundary.
type DailyState struct {
	DayID         string    `json:"day_id"`
	TradesToday   int       `json:"trades_today"`
	LongUsed      bool      `json:"long_used"`
	ShortUsed     bool      `json:"short_used"`
	LastTradeTime time.Time `json:"last_trade_time"`
}

// Config holds daily/session limits
type Config struct {
	MaxTradesPerDay   int  // 0 = unlimited
	OnePerDirection   bool // at most one long and one short per day
	CooldownMinutes   int  // minimum minutes between entries
	EODFlattenEnabled bool
	EODFlattenHour    int  // local hour after which open trades are flattened
	EODFlattenMinute  int
}

// Controller owns DailyState and the running session extremes. All other
// components consume its reset signal.
type Controller struct {
	clock *Clock
	cfg   Config

	state       DailyState
	sessionHigh float64
	sessionLow  float64
	haveSession bool
}

// NewController creates a daily/session controller
func NewController(clock *Clock, cfg Config) *Controller {
	return &Controller{clock: clock, cfg: cfg}
}

// CheckReset resets counters and session extremes when the bar's calendar
// day differs from the stored day. Returns true when a reset occurred.
func (c *Controller) CheckReset(barTime time.Time) bool {
	day := c.clock.DayID(barTime)
	if day == c.state.DayID {
		return false
	}
	c.state = DailyState{DayID: day}
	c.sessionHigh = 0
	c.sessionLow = 0
	c.haveSession = false
	return true
}

// ObserveBar folds a bar into the running session extremes
func (c *Controller) ObserveBar(bar market.Bar) {
	if !c.haveSession {
		c.sessionHigh = bar.High
		c.sessionLow = bar.Low
		c.haveSession = true
		return
	}
	if bar.High > c.sessionHigh {
		c.sessionHigh = bar.High
	}
	if bar.Low < c.sessionLow {
		c.sessionLow = bar.Low
	}
}

// SessionExtremes returns the session high/low so far today
func (c *Controller) SessionExtremes() (high, low float64, ok bool) {
	return c.sessionHigh, c.sessionLow, c.haveSession
}

// CanEnter checks daily trade-count, per-direction, and cooldown limits
func (c *Controller) CanEnter(dir market.Direction, barTime time.Time) (bool, string) {
	if c.cfg.MaxTradesPerDay > 0 && c.state.TradesToday >= c.cfg.MaxTradesPerDay {
		return false, fmt.Sprintf("daily trade limit reached (%d)", c.cfg.MaxTradesPerDay)
	}
	if c.cfg.OnePerDirection {
		if dir == market.Bullish && c.state.LongUsed {
			return false, "long already used today"
		}
		if dir == market.Bearish && c.state.ShortUsed {
			return false, "short already used today"
		}
	}
	if c.cfg.CooldownMinutes > 0 && !c.state.LastTradeTime.IsZero() {
		elapsed := barTime.Sub(c.state.LastTradeTime)
		if elapsed < time.Duration(c.cfg.CooldownMinutes)*time.Minute {
			return false, fmt.Sprintf("cooldown active (%.0fm elapsed)", elapsed.Minutes())
		}
	}
	return true, ""
}

// RecordEntry registers a new trade against today's limits
func (c *Controller) RecordEntry(dir market.Direction, barTime time.Time) {
	c.state.TradesToday++
	c.state.LastTradeTime = barTime
	if dir == market.Bullish {
		c.state.LongUsed = true
	} else {
		c.state.ShortUsed = true
	}
}

// PastCutoff reports whether the bar's local time is at or past the
// end-of-day flatten cutoff
func (c *Controller) PastCutoff(barTime time.Time) bool {
	if !c.cfg.EODFlattenEnabled {
		return false
	}
	h, m := c.clock.HourMinute(barTime)
	return h > c.cfg.EODFlattenHour || (h == c.cfg.EODFlattenHour && m >= c.cfg.EODFlattenMinute)
}

// State returns a copy of the current daily state
func (c *Controller) State() DailyState {
	return c.state
}

// Restore replaces the daily state (used when resuming from a snapshot)
func (c *Controller) Restore(state DailyState, sessionHigh, sessionLow float64, haveSession bool) {
	c.state = state
	c.sessionHigh = sessionHigh
	c.sessionLow = sessionLow
	c.haveSession = haveSession
}
