package engine

import (
	"time"

	"smc-trading-bot/internal/session"
	"smc-trading-bot/internal/trade"
)

// Snapshot captures the engine state needed to resume after a restart.
// Zones and swings are not persisted; they rebuild as new bars arrive.
type Snapshot struct {
	LastBarTime time.Time          `json:"last_bar_time"`
	Daily       session.DailyState `json:"daily"`
	SessionHigh float64            `json:"session_high"`
	SessionLow  float64            `json:"session_low"`
	HaveSession bool               `json:"have_session"`
	Trade       *trade.Trade       `json:"trade,omitempty"`
}

// Snapshot returns the current resumable state
func (e *Engine) Snapshot() Snapshot {
	high, low, ok := e.sessions.SessionExtremes()
	return Snapshot{
		LastBarTime: e.lastBarTime,
		Daily:       e.sessions.State(),
		SessionHigh: high,
		SessionLow:  low,
		HaveSession: ok,
		Trade:       e.trades.Trade(),
	}
}

// Restore reinstates a snapshot. Bars observed before the snapshot's last
// bar time are skipped by ProcessBar, so the caller may replay a full
// history feed safely.
func (e *Engine) Restore(s Snapshot) {
	e.lastBarTime = s.LastBarTime
	e.sessions.Restore(s.Daily, s.SessionHigh, s.SessionLow, s.HaveSession)
	if s.Trade != nil {
		e.trades.Restore(s.Trade)
	}
}
