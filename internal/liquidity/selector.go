package liquidity

import (
	"math"

	"smc-trading-bot/internal/bias"
	"smc-trading-bot/internal/market"
	"smc-trading-bot/internal/swing"
)

// Origin identifies where a liquidity target comes from
type Origin string

const (
	SessionHigh Origin = "session_high"
	SessionLow  Origin = "session_low"
	SwingHigh   Origin = "swing_high"
	SwingLow    Origin = "swing_low"
	EqualHighs  Origin = "equal_highs"
	EqualLows   Origin = "equal_lows"
)

// DrawDirection is the side of price a target sits on
type DrawDirection string

const (
	DrawUp   DrawDirection = "up"
	DrawDown DrawDirection = "down"
)

// Target is an unfilled liquidity level price may be drawn toward.
// Recomputed every bar; never persisted.
type Target struct {
	Price  float64       `json:"price"`
	Origin Origin        `json:"origin"`
	Draw   DrawDirection `json:"draw_direction"`
}

// Selector recomputes liquidity targets each bar and picks the nearest one
// consistent with bias.
type Selector struct {
	equalTol      float64 // price tolerance for equal-extreme clustering
	equalLookback int     // bars scanned for equal highs/lows
}

// NewSelector creates a draw-liquidity selector
func NewSelector(equalTol float64, equalLookback int) *Selector {
	if equalLookback < 3 {
		equalLookback = 20
	}
	return &Selector{equalTol: equalTol, equalLookback: equalLookback}
}

// Candidates builds the target list from session extremes, swing extremes,
// and equal-extreme clusters. Targets at or through the close are filled and
// omitted.
func (s *Selector) Candidates(bars []market.Bar, index int, sessionHigh, sessionLow float64, haveSession bool, tracker *swing.Tracker) []Target {
	if index < 0 || index >= len(bars) {
		return nil
	}
	close := bars[index].Close
	var out []Target

	add := func(price float64, origin Origin) {
		if price > close {
			out = append(out, Target{Price: price, Origin: origin, Draw: DrawUp})
		} else if price < close {
			out = append(out, Target{Price: price, Origin: origin, Draw: DrawDown})
		}
	}

	if haveSession {
		add(sessionHigh, SessionHigh)
		add(sessionLow, SessionLow)
	}
	if p, ok := tracker.CurrentHigh(); ok {
		add(p.Price, SwingHigh)
	}
	if p, ok := tracker.CurrentLow(); ok {
		add(p.Price, SwingLow)
	}

	if s.equalTol > 0 {
		if price, ok := s.equalCluster(bars, index, true); ok {
			add(price, EqualHighs)
		}
		if price, ok := s.equalCluster(bars, index, false); ok {
			add(price, EqualLows)
		}
	}

	return out
}

// equalCluster looks for two bar extremes within tolerance of each other in
// the lookback window. The cluster's outer price is the target.
func (s *Selector) equalCluster(bars []market.Bar, index int, highs bool) (float64, bool) {
	start := index - s.equalLookback
	if start < 0 {
		start = 0
	}
	for i := index; i > start; i-- {
		for j := i - 1; j >= start; j-- {
			var a, b float64
			if highs {
				a, b = bars[i].High, bars[j].High
			} else {
				a, b = bars[i].Low, bars[j].Low
			}
			if math.Abs(a-b) <= s.equalTol {
				if highs {
					return math.Max(a, b), true
				}
				return math.Min(a, b), true
			}
		}
	}
	return 0, false
}

// Primary picks the candidate nearest the close whose draw direction agrees
// with bias. Neutral bias accepts any candidate.
func (s *Selector) Primary(candidates []Target, close float64, b bias.State) (Target, bool) {
	var best Target
	bestDist := math.MaxFloat64
	found := false

	for _, t := range candidates {
		if b == bias.StateBullish && t.Draw != DrawUp {
			continue
		}
		if b == bias.StateBearish && t.Draw != DrawDown {
			continue
		}
		if d := math.Abs(t.Price - close); d < bestDist {
			best, bestDist, found = t, d, true
		}
	}
	return best, found
}
