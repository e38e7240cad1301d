package swing

import "smc-trading-bot/internal/market"

// PointKind distinguishes swing highs from swing lows
type PointKind string

const (
	High PointKind = "high"
	Low  PointKind = "low"
)

// Point is a confirmed fractal swing point
type Point struct {
	Price    float64   `json:"price"`
	BarIndex int       `json:"bar_index"`
	Kind     PointKind `json:"kind"`
}

// Tracker maintains the most recent confirmed swing high and low plus one
// previous generation of each. Confirmation is delayed by rightStrength bars
// and never revised afterwards.
type Tracker struct {
	leftStrength  int
	rightStrength int

	curHigh, prevHigh *Point
	curLow, prevLow   *Point
}

// NewTracker creates a swing tracker with the given fractal strengths
func NewTracker(leftStrength, rightStrength int) *Tracker {
	if leftStrength < 1 {
		leftStrength = 2
	}
	if rightStrength < 1 {
		rightStrength = 2
	}
	return &Tracker{leftStrength: leftStrength, rightStrength: rightStrength}
}

// Update evaluates the pivot candidate at index-rightStrength once the bar at
// index has closed. Returns any newly confirmed points (high, low, or both).
func (t *Tracker) Update(bars []market.Bar, index int) []Point {
	pivot := index - t.rightStrength
	if pivot < t.leftStrength || index >= len(bars) {
		return nil
	}

	var confirmed []Point
	candidate := bars[pivot]

	if t.isSwingHigh(bars, pivot) {
		t.prevHigh = t.curHigh
		t.curHigh = &Point{Price: candidate.High, BarIndex: pivot, Kind: High}
		confirmed = append(confirmed, *t.curHigh)
	}
	if t.isSwingLow(bars, pivot) {
		t.prevLow = t.curLow
		t.curLow = &Point{Price: candidate.Low, BarIndex: pivot, Kind: Low}
		confirmed = append(confirmed, *t.curLow)
	}
	return confirmed
}

// isSwingHigh requires the pivot high to strictly exceed every neighbor
// within leftStrength bars left and rightStrength bars right
func (t *Tracker) isSwingHigh(bars []market.Bar, pivot int) bool {
	h := bars[pivot].High
	for i := pivot - t.leftStrength; i <= pivot+t.rightStrength; i++ {
		if i == pivot {
			continue
		}
		if bars[i].High >= h {
			return false
		}
	}
	return true
}

func (t *Tracker) isSwingLow(bars []market.Bar, pivot int) bool {
	l := bars[pivot].Low
	for i := pivot - t.leftStrength; i <= pivot+t.rightStrength; i++ {
		if i == pivot {
			continue
		}
		if bars[i].Low <= l {
			return false
		}
	}
	return true
}

// CurrentHigh returns the latest confirmed swing high, if any
func (t *Tracker) CurrentHigh() (Point, bool) {
	if t.curHigh == nil {
		return Point{}, false
	}
	return *t.curHigh, true
}

// CurrentLow returns the latest confirmed swing low, if any
func (t *Tracker) CurrentLow() (Point, bool) {
	if t.curLow == nil {
		return Point{}, false
	}
	return *t.curLow, true
}

// PreviousHigh returns the swing high one generation back, if any
func (t *Tracker) PreviousHigh() (Point, bool) {
	if t.prevHigh == nil {
		return Point{}, false
	}
	return *t.prevHigh, true
}

// PreviousLow returns the swing low one generation back, if any
func (t *Tracker) PreviousLow() (Point, bool) {
	if t.prevLow == nil {
		return Point{}, false
	}
	return *t.prevLow, true
}

// Reset clears all tracked points
func (t *Tracker) Reset() {
	t.curHigh, t.prevHigh, t.curLow, t.prevLow = nil, nil, nil, nil
}
