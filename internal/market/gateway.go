package market

import (
	"fmt"
	"math"
	"sync"
)

// ExecutionGateway defines the order execution contract. All order calls are
// fire-and-forget; fills are assumed immediate at the gateway's last price.
type ExecutionGateway interface {
	OpenLong(qty float64) error
	OpenShort(qty float64) error
	CloseAll() error
	PartialClose(qty float64) error
	CurrentPosition() float64 // signed quantity, positive = long
	RoundToTick(price float64) float64
	LastPrice() float64
}

// PaperGateway simulates immediate market fills for dry-run and backtesting
type PaperGateway struct {
	tickSize  float64
	lastPrice float64
	position  float64
	mu        sync.RWMutex
}

// NewPaperGateway creates a paper trading gateway
func NewPaperGateway(tickSize float64) *PaperGateway {
	if tickSize <= 0 {
		tickSize = 0.25
	}
	return &PaperGateway{tickSize: tickSize}
}

// SetLastPrice updates the simulated market price
func (g *PaperGateway) SetLastPrice(price float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastPrice = price
}

// OpenLong buys qty at the last price
func (g *PaperGateway) OpenLong(qty float64) error {
	if qty <= 0 {
		return fmt.Errorf("invalid quantity %.4f", qty)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position += qty
	return nil
}

// OpenShort sells qty at the last price
func (g *PaperGateway) OpenShort(qty float64) error {
	if qty <= 0 {
		return fmt.Errorf("invalid quantity %.4f", qty)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position -= qty
	return nil
}

// CloseAll flattens the position
func (g *PaperGateway) CloseAll() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = 0
	return nil
}

// PartialClose reduces the position by qty. Quantities at or above the
// remaining size degrade to a full close.
func (g *PaperGateway) PartialClose(qty float64) error {
	if qty <= 0 {
		return fmt.Errorf("invalid quantity %.4f", qty)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if qty >= math.Abs(g.position) {
		g.position = 0
		return nil
	}
	if g.position > 0 {
		g.position -= qty
	} else {
		g.position += qty
	}
	return nil
}

// CurrentPosition returns the signed position quantity
func (g *PaperGateway) CurrentPosition() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.position
}

// RoundToTick rounds a price to the nearest tick
func (g *PaperGateway) RoundToTick(price float64) float64 {
	return math.Round(price/g.tickSize) * g.tickSize
}

// LastPrice returns the most recent market price
func (g *PaperGateway) LastPrice() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastPrice
}

// Ensure PaperGateway implements ExecutionGateway
var _ ExecutionGateway = (*PaperGateway)(nil)
