package market

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client fetches historical bars over REST
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new REST market data client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetBars fetches up to limit historical bars for a symbol/interval.
// The exchange returns klines as arrays of mixed types.
func (c *Client) GetBars(symbol, interval string, limit int) ([]Bar, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("error fetching klines: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var rawKlines [][]interface{}
	if err := json.Unmarshal(body, &rawKlines); err != nil {
		return nil, fmt.Errorf("error parsing klines: %w", err)
	}

	bars := make([]Bar, len(rawKlines))
	for i, raw := range rawKlines {
		if len(raw) < 7 {
			return nil, fmt.Errorf("malformed kline at index %d", i)
		}
		bars[i] = Bar{
			StartTime: time.UnixMilli(int64(raw[0].(float64))),
			Open:      parseFloat(raw[1]),
			High:      parseFloat(raw[2]),
			Low:       parseFloat(raw[3]),
			Close:     parseFloat(raw[4]),
			Complete:  true,
		}
	}

	// The newest kline may still be forming
	if len(bars) > 0 {
		closeTime := time.UnixMilli(int64(rawKlines[len(rawKlines)-1][6].(float64)))
		if closeTime.After(time.Now()) {
			bars[len(bars)-1].Complete = false
		}
	}

	return bars, nil
}

func parseFloat(v interface{}) float64 {
	switch val := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	case float64:
		return val
	default:
		return 0
	}
}
