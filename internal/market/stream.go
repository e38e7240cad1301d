package market

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"smc-trading-bot/internal/logging"
)

// BarFeed delivers an ordered stream of bars
type BarFeed interface {
	Bars() <-chan Bar
	Start() error
	Stop()
}

// StreamFeed subscribes to a kline websocket stream and emits bars.
// Incomplete bars are forwarded with Complete=false so consumers can
// track intrabar extremes; a bar is emitted with Complete=true exactly
// once, when the exchange closes it.
type StreamFeed struct {
	wsURL    string
	symbol   string
	interval string

	conn    *websocket.Conn
	bars    chan Bar
	stopCh  chan struct{}
	stopped bool
	mu      sync.Mutex
	logger  *logging.Logger
}

// klineEvent mirrors the exchange kline stream payload
type klineEvent struct {
	EventType string `json:"e"`
	Kline     struct {
		StartTime int64  `json:"t"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Close     string `json:"c"`
		IsClosed  bool   `json:"x"`
	} `json:"k"`
}

// NewStreamFeed creates a websocket bar feed for one symbol/interval
func NewStreamFeed(wsURL, symbol, interval string) *StreamFeed {
	return &StreamFeed{
		wsURL:    wsURL,
		symbol:   symbol,
		interval: interval,
		bars:     make(chan Bar, 64),
		stopCh:   make(chan struct{}),
		logger:   logging.WithComponent("market_feed"),
	}
}

// Bars returns the bar channel
func (f *StreamFeed) Bars() <-chan Bar {
	return f.bars
}

// Start connects and begins streaming bars until Stop is called
func (f *StreamFeed) Start() error {
	streamName := fmt.Sprintf("%s@kline_%s", strings.ToLower(f.symbol), f.interval)
	endpoint := fmt.Sprintf("%s/ws/%s", f.wsURL, streamName)

	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return fmt.Errorf("error connecting to kline stream: %w", err)
	}
	f.conn = conn
	f.logger.Info("Kline stream connected", "symbol", f.symbol, "interval", f.interval)

	go f.readLoop()
	return nil
}

func (f *StreamFeed) readLoop() {
	defer close(f.bars)

	for {
		select {
		case <-f.stopCh:
			return
		default:
		}

		_, message, err := f.conn.ReadMessage()
		if err != nil {
			f.mu.Lock()
			stopped := f.stopped
			f.mu.Unlock()
			if !stopped {
				f.logger.Error("Kline stream read failed, reconnecting", "error", err)
				f.reconnect()
				continue
			}
			return
		}

		var event klineEvent
		if err := json.Unmarshal(message, &event); err != nil {
			f.logger.Warn("Dropping malformed kline event", "error", err)
			continue
		}
		if event.EventType != "kline" {
			continue
		}

		bar := Bar{
			StartTime: time.UnixMilli(event.Kline.StartTime),
			Open:      mustParse(event.Kline.Open),
			High:      mustParse(event.Kline.High),
			Low:       mustParse(event.Kline.Low),
			Close:     mustParse(event.Kline.Close),
			Complete:  event.Kline.IsClosed,
		}

		select {
		case f.bars <- bar:
		case <-f.stopCh:
			return
		}
	}
}

func (f *StreamFeed) reconnect() {
	streamName := fmt.Sprintf("%s@kline_%s", strings.ToLower(f.symbol), f.interval)
	endpoint := fmt.Sprintf("%s/ws/%s", f.wsURL, streamName)

	for {
		select {
		case <-f.stopCh:
			return
		case <-time.After(5 * time.Second):
		}

		conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
		if err != nil {
			f.logger.Warn("Reconnect attempt failed", "error", err)
			continue
		}
		f.conn = conn
		f.logger.Info("Kline stream reconnected", "symbol", f.symbol)
		return
	}
}

// Stop closes the stream
func (f *StreamFeed) Stop() {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return
	}
	f.stopped = true
	f.mu.Unlock()

	close(f.stopCh)
	if f.conn != nil {
		f.conn.Close()
	}
}

func mustParse(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// Ensure StreamFeed implements BarFeed
var _ BarFeed = (*StreamFeed)(nil)
