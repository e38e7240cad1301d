package trade

import (
	"fmt"
	"math"

	"smc-trading-bot/internal/market"
)

// TargetMode selects how the profit target is derived
type TargetMode string

const (
	TargetRMultiple TargetMode = "r_multiple"
	TargetLiquidity TargetMode = "liquidity"
	TargetHybrid    TargetMode = "hybrid"
)

// ExitReason tags why a position was closed
type ExitReason string

const (
	ExitEOD         ExitReason = "eod_flatten"
	ExitTrailing    ExitReason = "trailing_stop"
	ExitBreakeven   ExitReason = "breakeven_stop"
	ExitStop        ExitReason = "stop"
	ExitTarget      ExitReason = "target"
	ExitTimeStop    ExitReason = "time_stop"
	ExitProgress    ExitReason = "progress_stop"
	ExitPartialFull ExitReason = "partial_full_close"
	ExitManual      ExitReason = "manual_flatten"
)

// Trade holds the state of the single open position. Created at trigger,
// destroyed at flat.
type Trade struct {
	Direction       market.Direction `json:"direction"`
	EntryPrice      float64          `json:"entry_price"`
	StopPrice       float64          `json:"stop_price"`
	RiskPoints      float64          `json:"risk_points"`
	TargetPrice     float64          `json:"target_price"`
	Qty             float64          `json:"qty"`
	PartialTaken    bool             `json:"partial_taken"`
	BreakevenActive bool             `json:"breakeven_active"`
	TrailingActive  bool             `json:"trailing_active"`
	TrailingStop    float64          `json:"trailing_stop"`
	BestPrice       float64          `json:"best_price"`
	EntryBarIndex   int              `json:"entry_bar_index"`
	EntryModel      string           `json:"entry_model"`
}

// UnrealizedPoints returns open profit in price points at the given price
func (t *Trade) UnrealizedPoints(price float64) float64 {
	if t.Direction == market.Bullish {
		return price - t.EntryPrice
	}
	return t.EntryPrice - price
}

// UnrealizedR returns open profit as a multiple of the initial risk
func (t *Trade) UnrealizedR(price float64) float64 {
	if t.RiskPoints <= 0 {
		return 0
	}
	return t.UnrealizedPoints(price) / t.RiskPoints
}

// Config holds the trade management parameters
type Config struct {
	Qty                 float64    `json:"qty"`
	StopBuffer          float64    `json:"stop_buffer"`
	TightThreshold      float64    `json:"tight_threshold"`
	OverrideToStructure bool       `json:"override_to_structure"`
	DefaultStopPoints   float64    `json:"default_stop_points"`
	StopMin             float64    `json:"stop_min"`
	StopMax             float64    `json:"stop_max"`
	TargetR             float64    `json:"target_r"`
	TargetMode          TargetMode `json:"target_mode"`
	BETriggerPoints     float64    `json:"be_trigger_points"`
	BEOffset            float64    `json:"be_offset"`
	PartialR            float64    `json:"partial_r"`
	PartialPct          float64    `json:"partial_pct"`
	TrailDistance       float64    `json:"trail_distance"`
	MaxBarsInTrade      int        `json:"max_bars_in_trade"`
	ProgressCheckBars   int        `json:"progress_check_bars"`
	ProgressFloorR      float64    `json:"progress_floor_r"`
}

// Update reports what the manager did on one bar
type Update struct {
	Closed        bool
	Reason        ExitReason
	ExitPrice     float64
	PartialFired  bool
	PartialQty    float64
	BreakevenSet  bool
	TrailingMoved bool
	TrailingStop  float64
}

// OpenParams carries everything needed to derive stop and target at trigger
type OpenParams struct {
	Direction     market.Direction
	EntryPrice    float64
	StructureStop float64 // zone edge or swept extreme, before buffer
	SwingStop     float64 // swing-extreme fallback, 0 when unavailable
	LiquidityPx   float64 // aligned draw target, 0 when unavailable
	Model         string
	BarIndex      int
}

// Manager owns the single open trade and its exit logic. The engine drives
// it once per closed bar; there is no concurrent access.
type Manager struct {
	cfg     Config
	gateway market.ExecutionGateway
	trade   *Trade
}

// NewManager creates a trade manager bound to an execution gateway
func NewManager(cfg Config, gateway market.ExecutionGateway) *Manager {
	return &Manager{cfg: cfg, gateway: gateway}
}

// Trade returns the open trade, or nil when flat
func (m *Manager) Trade() *Trade {
	return m.trade
}

// InPosition reports whether a trade is open
func (m *Manager) InPosition() bool {
	return m.trade != nil
}

// Restore reinstates a trade from a snapshot
func (m *Manager) Restore(t *Trade) {
	m.trade = t
}

// Open derives stop and target and opens the position. Returns an error only
// when a trade is already open.
func (m *Manager) Open(p OpenParams) (*Trade, error) {
	if m.trade != nil {
		return nil, fmt.Errorf("trade already open")
	}

	dist := m.stopDistance(p)
	var stop, target float64
	if p.Direction == market.Bullish {
		stop = p.EntryPrice - dist
		target = m.targetPrice(p.EntryPrice+dist*m.cfg.TargetR, p.LiquidityPx, p.EntryPrice, dist, true)
	} else {
		stop = p.EntryPrice + dist
		target = m.targetPrice(p.EntryPrice-dist*m.cfg.TargetR, p.LiquidityPx, p.EntryPrice, dist, false)
	}

	stop = m.gateway.RoundToTick(stop)
	target = m.gateway.RoundToTick(target)

	var err error
	if p.Direction == market.Bullish {
		err = m.gateway.OpenLong(m.cfg.Qty)
	} else {
		err = m.gateway.OpenShort(m.cfg.Qty)
	}
	if err != nil {
		return nil, fmt.Errorf("gateway open failed: %w", err)
	}

	m.trade = &Trade{
		Direction:     p.Direction,
		EntryPrice:    p.EntryPrice,
		StopPrice:     stop,
		RiskPoints:    dist,
		TargetPrice:   target,
		Qty:           m.cfg.Qty,
		BestPrice:     p.EntryPrice,
		EntryBarIndex: p.BarIndex,
		EntryModel:    p.Model,
	}
	return m.trade, nil
}

// stopDistance applies the tight-override and the [stop_min, stop_max] clamp
func (m *Manager) stopDistance(p OpenParams) float64 {
	dist := math.Abs(p.EntryPrice-p.StructureStop) + m.cfg.StopBuffer

	if dist < m.cfg.TightThreshold && m.cfg.OverrideToStructure {
		if p.SwingStop > 0 {
			dist = math.Abs(p.EntryPrice-p.SwingStop) + m.cfg.StopBuffer
		} else {
			dist = m.cfg.DefaultStopPoints
		}
	}

	if dist < m.cfg.StopMin {
		dist = m.cfg.StopMin
	}
	if dist > m.cfg.StopMax {
		dist = m.cfg.StopMax
	}
	return dist
}

func (m *Manager) targetPrice(rTarget, liqPx, entry, risk float64, long bool) float64 {
	switch m.cfg.TargetMode {
	case TargetLiquidity:
		if liqPx > 0 {
			return liqPx
		}
		return rTarget
	case TargetHybrid:
		// Take the liquidity draw only when it pays at least one full risk
		if liqPx > 0 {
			reward := liqPx - entry
			if !long {
				reward = entry - liqPx
			}
			if reward >= risk {
				return liqPx
			}
		}
		return rTarget
	default:
		return rTarget
	}
}

// ManageBar runs one bar of exit logic on the open trade. Exit checks run in
// strict priority: EOD flatten, trailing stop, breakeven stop, original
// stop, then target and time stop. State promotion (breakeven, partial,
// trailing) happens only when no exit fired.
func (m *Manager) ManageBar(bar market.Bar, index int, pastEOD bool) (Update, error) {
	t := m.trade
	if t == nil {
		return Update{}, nil
	}
	px := bar.Close

	if pastEOD {
		return m.closeAll(px, ExitEOD)
	}
	if t.TrailingActive && breached(t.Direction, px, t.TrailingStop) {
		return m.closeAll(px, ExitTrailing)
	}
	if t.BreakevenActive && breached(t.Direction, px, t.StopPrice) {
		return m.closeAll(px, ExitBreakeven)
	}
	if breached(t.Direction, px, t.StopPrice) {
		return m.closeAll(px, ExitStop)
	}
	if targetHit(t.Direction, px, t.TargetPrice) {
		return m.closeAll(px, ExitTarget)
	}

	barsIn := index - t.EntryBarIndex
	if m.cfg.MaxBarsInTrade > 0 && barsIn >= m.cfg.MaxBarsInTrade {
		return m.closeAll(px, ExitTimeStop)
	}
	if m.cfg.ProgressCheckBars > 0 && barsIn == m.cfg.ProgressCheckBars &&
		t.UnrealizedR(px) < m.cfg.ProgressFloorR {
		return m.closeAll(px, ExitProgress)
	}

	var upd Update

	// Breakeven promotion is one-shot, never reverted
	if !t.BreakevenActive && t.UnrealizedPoints(px) >= m.cfg.BETriggerPoints && m.cfg.BETriggerPoints > 0 {
		if t.Direction == market.Bullish {
			t.StopPrice = m.gateway.RoundToTick(t.EntryPrice + m.cfg.BEOffset)
		} else {
			t.StopPrice = m.gateway.RoundToTick(t.EntryPrice - m.cfg.BEOffset)
		}
		t.BreakevenActive = true
		upd.BreakevenSet = true
	}

	if !t.PartialTaken && m.cfg.PartialR > 0 && t.UnrealizedR(px) >= m.cfg.PartialR {
		qty := t.Qty * m.cfg.PartialPct
		// Too small to split: the partial becomes a full close
		if t.Qty-qty < 1 {
			return m.closeAll(px, ExitPartialFull)
		}
		if err := m.gateway.PartialClose(qty); err != nil {
			return upd, fmt.Errorf("gateway partial close failed: %w", err)
		}
		t.Qty -= qty
		t.PartialTaken = true
		upd.PartialFired = true
		upd.PartialQty = qty
	}

	m.updateTrailing(t, px, &upd)
	return upd, nil
}

// updateTrailing tracks the best price and ratchets the trailing stop. The
// stop only ever tightens toward price.
func (m *Manager) updateTrailing(t *Trade, px float64, upd *Update) {
	if m.cfg.TrailDistance <= 0 {
		return
	}
	if m.cfg.PartialR > 0 && !t.PartialTaken {
		return
	}

	if t.Direction == market.Bullish {
		if px > t.BestPrice {
			t.BestPrice = px
		}
		candidate := m.gateway.RoundToTick(t.BestPrice - m.cfg.TrailDistance)
		if !t.TrailingActive || candidate > t.TrailingStop {
			if candidate > t.StopPrice {
				t.TrailingStop = candidate
				t.TrailingActive = true
				upd.TrailingMoved = true
				upd.TrailingStop = candidate
			}
		}
	} else {
		if px < t.BestPrice {
			t.BestPrice = px
		}
		candidate := m.gateway.RoundToTick(t.BestPrice + m.cfg.TrailDistance)
		if !t.TrailingActive || candidate < t.TrailingStop {
			if candidate < t.StopPrice {
				t.TrailingStop = candidate
				t.TrailingActive = true
				upd.TrailingMoved = true
				upd.TrailingStop = candidate
			}
		}
	}
}

func (m *Manager) closeAll(px float64, reason ExitReason) (Update, error) {
	if err := m.gateway.CloseAll(); err != nil {
		return Update{}, fmt.Errorf("gateway close failed: %w", err)
	}
	m.trade = nil
	return Update{Closed: true, Reason: reason, ExitPrice: px}, nil
}

// Flatten force-closes the position regardless of bar state
func (m *Manager) Flatten(px float64) (Update, error) {
	if m.trade == nil {
		return Update{}, nil
	}
	return m.closeAll(px, ExitManual)
}

func breached(dir market.Direction, px, stop float64) bool {
	if dir == market.Bullish {
		return px <= stop
	}
	return px >= stop
}

func targetHit(dir market.Direction, px, target float64) bool {
	if dir == market.Bullish {
		return px >= target
	}
	return px <= target
}
