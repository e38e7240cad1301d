package zones

import (
	"fmt"

	"smc-trading-bot/internal/market"
)

// Kind represents the type of a market-structure zone
type Kind string

const (
	OrderBlock    Kind = "order_block"
	Breaker       Kind = "breaker"
	FairValueGap  Kind = "fair_value_gap"
	InvertedFVG   Kind = "inverted_fvg"
	BalancedRange Kind = "balanced_range"
)

// Status represents the lifecycle state of a zone
type Status string

const (
	StatusActive   Status = "active"
	StatusViolated Status = "violated"
	StatusExpired  Status = "expired"
	StatusConsumed Status = "consumed"
)

// Zone is a price region emitted by a detector and owned by the lifecycle
// manager thereafter. Mean is fixed at creation and never recomputed.
type Zone struct {
	ID           int              `json:"id"`
	Kind         Kind             `json:"kind"`
	Direction    market.Direction `json:"direction"`
	Top          float64          `json:"top"`
	Bottom       float64          `json:"bottom"`
	Mean         float64          `json:"mean"`
	BirthIndex   int              `json:"birth_index"`
	Status       Status           `json:"status"`
	ViolatedOnce bool             `json:"violated_once"` // set when an order block flips to a breaker
}

// NewZone creates a zone, normalizing bounds so Top >= Bottom
func NewZone(kind Kind, dir market.Direction, top, bottom float64, birthIndex int) *Zone {
	if bottom > top {
		top, bottom = bottom, top
	}
	return &Zone{
		Kind:       kind,
		Direction:  dir,
		Top:        top,
		Bottom:     bottom,
		Mean:       (top + bottom) / 2,
		BirthIndex: birthIndex,
		Status:     StatusActive,
	}
}

// Contains reports whether price falls inside the zone bounds (inclusive)
func (z *Zone) Contains(price float64) bool {
	return price >= z.Bottom && price <= z.Top
}

// Width returns the zone height in price points
func (z *Zone) Width() float64 {
	return z.Top - z.Bottom
}

// Overlap returns the overlapping range with another zone. ok is false when
// the ranges do not intersect or the intersection is degenerate.
func (z *Zone) Overlap(other *Zone) (top, bottom float64, ok bool) {
	top = z.Top
	if other.Top < top {
		top = other.Top
	}
	bottom = z.Bottom
	if other.Bottom > bottom {
		bottom = other.Bottom
	}
	if top <= bottom {
		return 0, 0, false
	}
	return top, bottom, true
}

// Tag returns a human-readable description used in signal output
func (z *Zone) Tag() string {
	return fmt.Sprintf("%s %s [%.2f-%.2f]", z.Direction, z.Kind, z.Bottom, z.Top)
}
