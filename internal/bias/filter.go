package bias

import (
	"smc-trading-bot/internal/market"
	"smc-trading-bot/internal/swing"
)

// State is the tri-state directional bias
type State string

const (
	StateBullish State = "bullish"
	StateBearish State = "bearish"
	StateNeutral State = "neutral"
)

// Mode controls how the higher-timeframe gate is applied
type Mode string

const (
	ModeStrict Mode = "strict" // trade only with HTF-aligned direction
	ModeLoose  Mode = "loose"  // prefer aligned, allow counter for strong setups
	ModeOff    Mode = "off"    // ignore HTF bias entirely
)

// Filter computes directional bias from a moving average and swing
// structure, with an optional higher-timeframe gate.
type Filter struct {
	maPeriod         int
	mode             Mode
	looseCounterRank int // loose mode: counter-bias allowed for model rank <= this
}

// NewFilter creates a bias filter
func NewFilter(maPeriod int, mode Mode, looseCounterRank int) *Filter {
	if maPeriod < 2 {
		maPeriod = 20
	}
	return &Filter{maPeriod: maPeriod, mode: mode, looseCounterRank: looseCounterRank}
}

// Intraday computes bias from the close versus the moving average combined
// with higher-low / lower-high swing structure. Neutral until both swing
// generations exist or when the two signals disagree.
func (f *Filter) Intraday(bars []market.Bar, index int, tracker *swing.Tracker) State {
	ma, ok := sma(bars, index, f.maPeriod)
	if !ok {
		return StateNeutral
	}
	close := bars[index].Close

	curLow, haveCL := tracker.CurrentLow()
	prevLow, havePL := tracker.PreviousLow()
	curHigh, haveCH := tracker.CurrentHigh()
	prevHigh, havePH := tracker.PreviousHigh()

	if close > ma && haveCL && havePL && curLow.Price > prevLow.Price {
		return StateBullish
	}
	if close < ma && haveCH && havePH && curHigh.Price < prevHigh.Price {
		return StateBearish
	}
	return StateNeutral
}

// HTF computes the higher-timeframe bias from aggregated bars using the
// moving average alone (no swing structure at the aggregate level).
func (f *Filter) HTF(htfBars []market.Bar) State {
	index := len(htfBars) - 1
	if index < 0 {
		return StateNeutral
	}
	ma, ok := sma(htfBars, index, f.maPeriod)
	if !ok {
		return StateNeutral
	}
	if htfBars[index].Close > ma {
		return StateBullish
	}
	if htfBars[index].Close < ma {
		return StateBearish
	}
	return StateNeutral
}

// Allows reports whether an entry in dir is permitted under the configured
// gate. modelRank is the entry model's priority rank (1 = highest). Neutral
// HTF bias is permissive in loose and off modes, restrictive in strict.
func (f *Filter) Allows(htf State, dir market.Direction, modelRank int) bool {
	switch f.mode {
	case ModeOff:
		return true
	case ModeStrict:
		return htf == directionState(dir)
	case ModeLoose:
		if htf == StateNeutral || htf == directionState(dir) {
			return true
		}
		return modelRank > 0 && modelRank <= f.looseCounterRank
	default:
		return true
	}
}

// Mode returns the configured gate mode
func (f *Filter) Mode() Mode {
	return f.mode
}

func directionState(dir market.Direction) State {
	if dir == market.Bullish {
		return StateBullish
	}
	return StateBearish
}

// sma returns the simple moving average of closes ending at index
func sma(bars []market.Bar, index, period int) (float64, bool) {
	if index+1 < period || index >= len(bars) {
		return 0, false
	}
	sum := 0.0
	for i := index - period + 1; i <= index; i++ {
		sum += bars[i].Close
	}
	return sum / float64(period), true
}

// Aggregate rolls groups of `factor` bars into higher-timeframe bars.
// A trailing partial group is dropped.
func Aggregate(bars []market.Bar, factor int) []market.Bar {
	if factor < 2 || len(bars) < factor {
		return nil
	}
	out := make([]market.Bar, 0, len(bars)/factor)
	for i := 0; i+factor <= len(bars); i += factor {
		agg := bars[i]
		for j := i + 1; j < i+factor; j++ {
			b := bars[j]
			if b.High > agg.High {
				agg.High = b.High
			}
			if b.Low < agg.Low {
				agg.Low = b.Low
			}
			agg.Close = b.Close
		}
		agg.Complete = true
		out = append(out, agg)
	}
	return out
}
