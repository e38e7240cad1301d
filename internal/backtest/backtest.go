package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"smc-trading-bot/internal/engine"
	"smc-trading-bot/internal/market"
)

// ClosedTrade is one completed backtest trade
type ClosedTrade struct {
	Model      string
	Direction  string
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	PnL        float64
	PartialPnL float64
	EntryIndex int
	ExitIndex  int
	ExitReason string
}

// ModelPerformance tracks performance by entry model
type ModelPerformance struct {
	Model       string
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64
	NetProfit   float64
}

// Result contains backtest performance metrics
type Result struct {
	Bars         int
	TotalTrades  int
	Wins         int
	Losses       int
	WinRate      float64
	GrossProfit  float64
	GrossLoss    float64
	NetProfit    float64
	ProfitFactor float64
	MaxDrawdown  float64
	Trades       []ClosedTrade
	Models       map[string]*ModelPerformance
}

// Runner replays historical bars through a fresh engine instance
type Runner struct {
	cfg      engine.Config
	tickSize float64
}

// NewRunner creates a backtest runner
func NewRunner(cfg engine.Config, tickSize float64) *Runner {
	if tickSize <= 0 {
		tickSize = 0.01
	}
	return &Runner{cfg: cfg, tickSize: tickSize}
}

// LoadCSV reads bars from a CSV file with rows of
// unix_seconds,open,high,low,close
func LoadCSV(path string) ([]market.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read bars file: %w", err)
	}

	var bars []market.Bar
	for i, rec := range records {
		if len(rec) < 5 {
			return nil, fmt.Errorf("row %d: expected 5 fields, got %d", i+1, len(rec))
		}
		// Skip a header row
		if i == 0 {
			if _, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64); err != nil {
				continue
			}
		}
		ts, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad timestamp: %w", i+1, err)
		}
		vals := make([]float64, 4)
		for j := 0; j < 4; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[j+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad price: %w", i+1, err)
			}
			vals[j] = v
		}
		bars = append(bars, market.Bar{
			Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3],
			StartTime: time.Unix(ts, 0).UTC(),
			Complete:  true,
		})
	}
	return bars, nil
}

// Run replays the bars and aggregates the engine's trade outcomes
func (r *Runner) Run(bars []market.Bar) (*Result, error) {
	gateway := market.NewPaperGateway(r.tickSize)
	eng, err := engine.NewEngine(r.cfg, gateway, nil)
	if err != nil {
		return nil, err
	}

	res := &Result{Models: make(map[string]*ModelPerformance)}
	var open *ClosedTrade

	for _, b := range bars {
		evts, err := eng.ProcessBar(b)
		if err != nil {
			return nil, err
		}
		res.Bars++

		for _, ev := range evts {
			switch ev.Kind {
			case engine.EventEntryLong, engine.EventEntryShort:
				t := eng.Trade()
				if t == nil {
					continue
				}
				open = &ClosedTrade{
					Model:      t.EntryModel,
					Direction:  string(t.Direction),
					EntryPrice: t.EntryPrice,
					Quantity:   t.Qty,
					EntryIndex: ev.BarIndex,
				}
			case engine.EventPartialTaken:
				if open == nil {
					continue
				}
				// Tag carries "<model> qty <n>"
				parts := strings.Fields(ev.Tag)
				if len(parts) != 3 {
					continue
				}
				qty, err := strconv.ParseFloat(parts[2], 64)
				if err != nil || qty <= 0 || qty > open.Quantity {
					continue
				}
				pnl := (ev.Price - open.EntryPrice) * qty
				if open.Direction == string(market.Bearish) {
					pnl = -pnl
				}
				open.PartialPnL += pnl
				open.Quantity -= qty
			case engine.EventTradeClosed:
				if open == nil {
					continue
				}
				open.ExitPrice = ev.Price
				open.ExitIndex = ev.BarIndex
				if parts := strings.Fields(ev.Tag); len(parts) == 2 {
					open.ExitReason = parts[1]
				}
				open.PnL = (open.ExitPrice - open.EntryPrice) * open.Quantity
				if open.Direction == string(market.Bearish) {
					open.PnL = -open.PnL
				}
				open.PnL += open.PartialPnL
				res.Trades = append(res.Trades, *open)
				open = nil
			}
		}
	}

	r.aggregate(res)
	return res, nil
}

func (r *Runner) aggregate(res *Result) {
	equity, peak := 0.0, 0.0

	for _, t := range res.Trades {
		res.TotalTrades++
		if t.PnL >= 0 {
			res.Wins++
			res.GrossProfit += t.PnL
		} else {
			res.Losses++
			res.GrossLoss += -t.PnL
		}

		equity += t.PnL
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > res.MaxDrawdown {
			res.MaxDrawdown = dd
		}

		mp := res.Models[t.Model]
		if mp == nil {
			mp = &ModelPerformance{Model: t.Model}
			res.Models[t.Model] = mp
		}
		mp.TotalTrades++
		if t.PnL >= 0 {
			mp.Wins++
		} else {
			mp.Losses++
		}
		mp.NetProfit += t.PnL
	}

	res.NetProfit = res.GrossProfit - res.GrossLoss
	if res.TotalTrades > 0 {
		res.WinRate = float64(res.Wins) / float64(res.TotalTrades) * 100
	}
	if res.GrossLoss > 0 {
		res.ProfitFactor = res.GrossProfit / res.GrossLoss
	}
	for _, mp := range res.Models {
		if mp.TotalTrades > 0 {
			mp.WinRate = float64(mp.Wins) / float64(mp.TotalTrades) * 100
		}
	}
}

// Summary renders the headline metrics as a printable report
func (res *Result) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Bars processed:  %d\n", res.Bars)
	fmt.Fprintf(&sb, "Trades:          %d (%d wins / %d losses, %.1f%% win rate)\n",
		res.TotalTrades, res.Wins, res.Losses, res.WinRate)
	fmt.Fprintf(&sb, "Net profit:      %.2f\n", res.NetProfit)
	fmt.Fprintf(&sb, "Profit factor:   %.2f\n", res.ProfitFactor)
	fmt.Fprintf(&sb, "Max drawdown:    %.2f\n", res.MaxDrawdown)
	for _, mp := range res.Models {
		fmt.Fprintf(&sb, "  %-16s %d trades, %.1f%% win rate, net %.2f\n",
			mp.Model, mp.TotalTrades, mp.WinRate, mp.NetProfit)
	}
	return sb.String()
}
