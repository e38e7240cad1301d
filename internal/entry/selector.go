package entry

import (
	"smc-trading-bot/internal/market"
	"smc-trading-bot/internal/zones"
)

// Model identifies an entry setup. Lower rank = higher priority.
type Model string

const (
	ModelUnicorn      Model = "unicorn"
	ModelBreakerRetap Model = "breaker_retap"
	ModelIFVGFlip     Model = "ifvg_flip"
	ModelOBMeanBounce Model = "ob_mean_bounce"
)

// Rank returns the model's priority rank, 1 being the strongest
func (m Model) Rank() int {
	switch m {
	case ModelUnicorn:
		return 1
	case ModelBreakerRetap:
		return 2
	case ModelIFVGFlip:
		return 3
	case ModelOBMeanBounce:
		return 4
	default:
		return 0
	}
}

// Pending is the single armed candidate awaiting confirmation
type Pending struct {
	Zone      *zones.Zone      `json:"zone"`
	Model     Model            `json:"model"`
	BarIndex  int              `json:"bar_index"`
	Direction market.Direction `json:"direction"`
}

// Trigger is a resolved entry signal
type Trigger struct {
	Direction market.Direction
	Model     Model
	Zone      *zones.Zone
	Price     float64
}

// Result reports what the selector did on a bar. At most one field is set.
type Result struct {
	Armed    *Pending
	TimedOut *Pending
	Trigger  *Trigger
}

// PermitFunc lets the caller veto a candidate before it is armed
// (bias gate, daily limits, draw-target requirement)
type PermitFunc func(dir market.Direction, modelRank int) bool

// Selector evaluates the fixed-priority setup chain and manages the single
// pending-confirmation slot. While a candidate is pending no other model is
// evaluated, preserving priority across bars.
type Selector struct {
	maxWaitBars int
	obMeanRule  bool

	pending *Pending
}

// NewSelector creates an entry model selector
func NewSelector(maxWaitBars int, obMeanRule bool) *Selector {
	if maxWaitBars < 1 {
		maxWaitBars = 3
	}
	return &Selector{maxWaitBars: maxWaitBars, obMeanRule: obMeanRule}
}

// Pending returns the armed candidate, if any
func (s *Selector) Pending() *Pending {
	return s.pending
}

// Reset clears the pending slot (used at daily reset)
func (s *Selector) Reset() {
	s.pending = nil
}

// Evaluate runs one bar of the entry state machine. Callers must only invoke
// it while flat.
func (s *Selector) Evaluate(bar market.Bar, index int, active []*zones.Zone, permit PermitFunc) Result {
	if s.pending != nil {
		return s.resolvePending(bar, index, permit)
	}

	cand := s.match(bar, active)
	if cand == nil {
		return Result{}
	}
	if permit != nil && !permit(cand.Direction, cand.Model.Rank()) {
		return Result{}
	}

	cand.BarIndex = index
	s.pending = cand
	return Result{Armed: cand}
}

// resolvePending checks the armed candidate for timeout or confirmation.
// Confirmation requires a rejection candle: close beyond open and beyond the
// zone's mean in the trade direction. The permit gate is re-applied at
// confirmation: conditions that held when the candidate was armed (cutoff,
// daily limits, bias) can lapse while it waits.
func (s *Selector) resolvePending(bar market.Bar, index int, permit PermitFunc) Result {
	p := s.pending

	if index-p.BarIndex > s.maxWaitBars {
		s.pending = nil
		return Result{TimedOut: p}
	}

	confirmed := false
	if p.Direction == market.Bullish {
		confirmed = bar.Close > bar.Open && bar.Close > p.Zone.Mean
	} else {
		confirmed = bar.Close < bar.Open && bar.Close < p.Zone.Mean
	}
	if !confirmed {
		return Result{}
	}

	if permit != nil && !permit(p.Direction, p.Model.Rank()) {
		s.pending = nil
		return Result{TimedOut: p}
	}

	s.pending = nil
	return Result{Trigger: &Trigger{
		Direction: p.Direction,
		Model:     p.Model,
		Zone:      p.Zone,
		Price:     bar.Close,
	}}
}

// match walks the priority chain, first match wins
func (s *Selector) match(bar market.Bar, active []*zones.Zone) *Pending {
	px := bar.Close

	// Unicorn: a breaker overlapping a BPR or inverted FVG of the same
	// direction, with the close inside the overlap
	for _, brk := range active {
		if brk.Kind != zones.Breaker || brk.Status != zones.StatusActive {
			continue
		}
		for _, conf := range active {
			if conf.Status != zones.StatusActive || conf.Direction != brk.Direction {
				continue
			}
			if conf.Kind != zones.BalancedRange && conf.Kind != zones.InvertedFVG {
				continue
			}
			top, bottom, ok := brk.Overlap(conf)
			if ok && px >= bottom && px <= top {
				// Confirmation and stop derivation anchor on the overlap
				region := zones.NewZone(zones.BalancedRange, brk.Direction, top, bottom, brk.BirthIndex)
				return &Pending{Zone: region, Model: ModelUnicorn, Direction: brk.Direction}
			}
		}
	}

	// Breaker retap
	for _, z := range active {
		if z.Kind == zones.Breaker && z.Status == zones.StatusActive && z.Contains(px) {
			return &Pending{Zone: z, Model: ModelBreakerRetap, Direction: z.Direction}
		}
	}

	// Inverted FVG flip
	for _, z := range active {
		if z.Kind == zones.InvertedFVG && z.Status == zones.StatusActive && z.Contains(px) {
			return &Pending{Zone: z, Model: ModelIFVGFlip, Direction: z.Direction}
		}
	}

	// Order block mean bounce
	for _, z := range active {
		if z.Kind != zones.OrderBlock || z.Status != zones.StatusActive || z.ViolatedOnce {
			continue
		}
		if !z.Contains(px) {
			continue
		}
		if s.obMeanRule {
			// Close must not have crossed the block mean against the trade
			if z.Direction == market.Bullish && px < z.Mean {
				continue
			}
			if z.Direction == market.Bearish && px > z.Mean {
				continue
			}
		}
		return &Pending{Zone: z, Model: ModelOBMeanBounce, Direction: z.Direction}
	}

	return nil
}
