package journal

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// SignalRecord is one persisted engine signal
type SignalRecord struct {
	ID        uuid.UUID `json:"id"`
	Symbol    string    `json:"symbol"`
	Kind      string    `json:"kind"`
	BarIndex  int       `json:"bar_index"`
	Price     float64   `json:"price"`
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"created_at"`
}

// TradeRecord is one persisted trade, open or closed
type TradeRecord struct {
	ID          uuid.UUID `json:"id"`
	Symbol      string    `json:"symbol"`
	Direction   string    `json:"direction"`
	Model       string    `json:"model"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price"`
	StopPrice   float64   `json:"stop_price"`
	TargetPrice float64   `json:"target_price"`
	Quantity    float64   `json:"quantity"`
	PnL         float64   `json:"pnl"`
	ExitReason  string    `json:"exit_reason"`
	EntryTime   time.Time `json:"entry_time"`
	ExitTime    time.Time `json:"exit_time"`
	Status      string    `json:"status"`
}

// DailySummary aggregates one trading day
type DailySummary struct {
	DayID  string  `json:"day_id"`
	Symbol string  `json:"symbol"`
	Trades int     `json:"trades"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	PnL    float64 `json:"pnl"`
}

// Repository persists signals, trades, and daily summaries
type Repository struct {
	db  *DB
	log zerolog.Logger
}

// NewRepository creates a journal repository
func NewRepository(db *DB) *Repository {
	return &Repository{
		db:  db,
		log: zerolog.New(os.Stdout).With().Timestamp().Str("component", "journal").Logger(),
	}
}

// SaveSignal inserts a signal record, assigning its ID
func (r *Repository) SaveSignal(ctx context.Context, s *SignalRecord) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO signals (id, symbol, kind, bar_index, price, tag)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.Symbol, s.Kind, s.BarIndex, s.Price, s.Tag)
	if err != nil {
		return fmt.Errorf("save signal: %w", err)
	}
	return nil
}

// OpenTrade inserts an open trade record, assigning its ID
func (r *Repository) OpenTrade(ctx context.Context, t *TradeRecord) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.Status = "OPEN"
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO trades (id, symbol, direction, model, entry_price, stop_price,
		                     target_price, quantity, entry_time, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'OPEN')`,
		t.ID, t.Symbol, t.Direction, t.Model, t.EntryPrice, t.StopPrice,
		t.TargetPrice, t.Quantity, t.EntryTime)
	if err != nil {
		return fmt.Errorf("open trade: %w", err)
	}
	r.log.Info().Str("model", t.Model).Float64("entry", t.EntryPrice).Msg("trade journaled")
	return nil
}

// CloseTrade marks the most recent open trade closed with its outcome
func (r *Repository) CloseTrade(ctx context.Context, symbol string, exitPrice, pnl float64, reason string, exitTime time.Time) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE trades SET exit_price = $1, pnl = $2, exit_reason = $3, exit_time = $4, status = 'CLOSED'
		 WHERE id = (SELECT id FROM trades WHERE symbol = $5 AND status = 'OPEN'
		             ORDER BY entry_time DESC LIMIT 1)`,
		exitPrice, pnl, reason, exitTime, symbol)
	if err != nil {
		return fmt.Errorf("close trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.log.Warn().Str("symbol", symbol).Msg("close with no open trade on record")
	}
	return nil
}

// RecentSignals returns the latest signals, newest first
func (r *Repository) RecentSignals(ctx context.Context, symbol string, limit int) ([]SignalRecord, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, symbol, kind, bar_index, price, tag, created_at
		 FROM signals WHERE symbol = $1 ORDER BY created_at DESC LIMIT $2`,
		symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var s SignalRecord
		if err := rows.Scan(&s.ID, &s.Symbol, &s.Kind, &s.BarIndex, &s.Price, &s.Tag, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecentTrades returns the latest trades, newest first
func (r *Repository) RecentTrades(ctx context.Context, symbol string, limit int) ([]TradeRecord, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, symbol, direction, model, entry_price,
		        COALESCE(exit_price, 0), COALESCE(stop_price, 0), COALESCE(target_price, 0),
		        quantity, COALESCE(pnl, 0), COALESCE(exit_reason, ''),
		        entry_time, COALESCE(exit_time, entry_time), status
		 FROM trades WHERE symbol = $1 ORDER BY entry_time DESC LIMIT $2`,
		symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Direction, &t.Model, &t.EntryPrice,
			&t.ExitPrice, &t.StopPrice, &t.TargetPrice, &t.Quantity, &t.PnL,
			&t.ExitReason, &t.EntryTime, &t.ExitTime, &t.Status); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RecordTradeOutcome upserts the day's summary with one closed trade
func (r *Repository) RecordTradeOutcome(ctx context.Context, dayID, symbol string, pnl float64) error {
	win, loss := 0, 0
	if pnl >= 0 {
		win = 1
	} else {
		loss = 1
	}
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO daily_summaries (day_id, symbol, trades, wins, losses, pnl)
		 VALUES ($1, $2, 1, $3, $4, $5)
		 ON CONFLICT (day_id) DO UPDATE SET
		   trades = daily_summaries.trades + 1,
		   wins = daily_summaries.wins + $3,
		   losses = daily_summaries.losses + $4,
		   pnl = daily_summaries.pnl + $5,
		   updated_at = CURRENT_TIMESTAMP`,
		dayID, symbol, win, loss, pnl)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// DailySummaryFor returns one day's aggregate, or nil when absent
func (r *Repository) DailySummaryFor(ctx context.Context, dayID string) (*DailySummary, error) {
	var s DailySummary
	err := r.db.Pool.QueryRow(ctx,
		`SELECT day_id, symbol, trades, wins, losses, pnl FROM daily_summaries WHERE day_id = $1`,
		dayID).Scan(&s.DayID, &s.Symbol, &s.Trades, &s.Wins, &s.Losses, &s.PnL)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	return &s, nil
}
