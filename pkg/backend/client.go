// Package backend provides an HTTP client for the market-data API.
//
// The pipeline core never performs I/O; this client is the external
// data-path collaborator that fetches OHLCV bars over REST so the CLI
// can hand the evaluator a Frame. Indicators are NOT fetched: the
// evaluator computes every indicator the strategy references.
//
// Usage:
//
//	client := backend.NewClient("http://localhost:8000", nil)
//	bars, err := client.GetBars(ctx, "AAPL", "1Day", start, end)
//	frame := types.NewFrame(bars)
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/types"
)

// DefaultTimeout is the per-request timeout applied to API calls.
const DefaultTimeout = 30 * time.Second

// MaxRetries is the number of retry attempts for transient errors.
const MaxRetries = 3

// Config holds optional configuration for the market-data client.
type Config struct {
	// Timeout per HTTP request. Zero means DefaultTimeout.
	Timeout time.Duration

	// MaxRetries for transient errors. Zero means the package default.
	MaxRetries int

	// Logger for debug/info output. Nil uses slog.Default().
	Logger *slog.Logger

	// EnableCache enables in-memory caching of fetched bars.
	EnableCache bool
}

// Client is an HTTP client for the market-data API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	logger     *slog.Logger

	// In-memory cache (symbol+timeframe+range -> bars)
	cacheMu sync.RWMutex
	cache   map[string]cacheEntry
	cacheOn bool
}

type cacheEntry struct {
	bars      []types.Bar
	fetchedAt time.Time
}

// NewClient creates a new market-data API client.
//
// baseURL should include the scheme and host, e.g. "http://localhost:8000".
// A nil config uses sensible defaults.
func NewClient(baseURL string, cfg *Config) *Client {
	timeout := DefaultTimeout
	retries := MaxRetries
	logger := slog.Default()
	enableCache := false

	if cfg != nil {
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		if cfg.MaxRetries > 0 {
			retries = cfg.MaxRetries
		}
		if cfg.Logger != nil {
			logger = cfg.Logger
		}
		enableCache = cfg.EnableCache
	}

	logger.Info("Market-data client initialised",
		"base_url", baseURL,
		"timeout", timeout,
		"max_retries", retries,
		"cache", enableCache,
	)

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: retries,
		logger:     logger,
		cache:      make(map[string]cacheEntry),
		cacheOn:    enableCache,
	}
}

// ---------------------------------------------------------------------------
// JSON response shapes
// ---------------------------------------------------------------------------

type barsResponse struct {
	Symbol    string       `json:"symbol"`
	Timeframe string       `json:"timeframe"`
	Count     int          `json:"count"`
	Bars      []barPayload `json:"bars"`
}

type barPayload struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type apiError struct {
	Detail string `json:"detail"`
}

// ---------------------------------------------------------------------------
// Public methods
// ---------------------------------------------------------------------------

// GetBars fetches OHLCV bars for the given range. Results are cached in
// memory (if caching is enabled) so repeated calls for the same
// symbol/timeframe/range do not hit the network again.
func (c *Client) GetBars(
	ctx context.Context,
	symbol, timeframe string,
	start, end time.Time,
) ([]types.Bar, error) {
	cacheKey := fmt.Sprintf("%s|%s|%s|%s", symbol, timeframe,
		start.Format(time.RFC3339), end.Format(time.RFC3339))

	if c.cacheOn {
		c.cacheMu.RLock()
		entry, ok := c.cache[cacheKey]
		c.cacheMu.RUnlock()
		if ok {
			c.logger.Debug("Cache hit for bars", "key", cacheKey)
			return entry.bars, nil
		}
	}

	params := url.Values{
		"symbol":          {symbol},
		"timeframe":       {timeframe},
		"start_timestamp": {start.Format(time.RFC3339)},
		"end_timestamp":   {end.Format(time.RFC3339)},
	}

	c.logger.Debug("Fetching bars", "symbol", symbol, "timeframe", timeframe)

	body, err := c.doGet(ctx, "/api/bars", params)
	if err != nil {
		return nil, fmt.Errorf("GetBars: %w", err)
	}

	var resp barsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("GetBars: decoding response: %w", err)
	}

	bars := make([]types.Bar, 0, len(resp.Bars))
	for _, b := range resp.Bars {
		ts, err := parseTimestamp(b.Timestamp)
		if err != nil {
			c.logger.Warn("Skipping bar with unparseable timestamp", "ts", b.Timestamp, "err", err)
			continue
		}
		bars = append(bars, types.Bar{
			Timestamp: ts,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}

	if c.cacheOn {
		c.cacheMu.Lock()
		c.cache[cacheKey] = cacheEntry{bars: bars, fetchedAt: time.Now()}
		c.cacheMu.Unlock()
	}

	c.logger.Info("Fetched bars", "symbol", symbol, "timeframe", timeframe, "count", len(bars))
	return bars, nil
}

// GetFrame fetches bars and converts them to a columnar Frame ready for
// the evaluator. This is the method most callers should use.
func (c *Client) GetFrame(
	ctx context.Context,
	symbol, timeframe string,
	start, end time.Time,
) (*types.Frame, error) {
	bars, err := c.GetBars(ctx, symbol, timeframe, start, end)
	if err != nil {
		return nil, err
	}
	return types.NewFrame(bars), nil
}

// ClearCache removes all cached entries.
func (c *Client) ClearCache() {
	c.cacheMu.Lock()
	c.cache = make(map[string]cacheEntry)
	c.cacheMu.Unlock()
	c.logger.Debug("Cache cleared")
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// doGet executes a GET request with retries and exponential backoff.
func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
			c.logger.Debug("Retrying request",
				"attempt", attempt, "backoff", backoff, "url", u,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			c.logger.Warn("HTTP request failed", "url", u, "attempt", attempt, "err", err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("reading response body: %w", readErr)
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return body, nil
		case resp.StatusCode == 400:
			var apiErr apiError
			if json.Unmarshal(body, &apiErr) == nil && apiErr.Detail != "" {
				return nil, fmt.Errorf("bad request: %s", apiErr.Detail)
			}
			return nil, fmt.Errorf("bad request (status %d)", resp.StatusCode)
		case resp.StatusCode == 404:
			var apiErr apiError
			if json.Unmarshal(body, &apiErr) == nil && apiErr.Detail != "" {
				return nil, fmt.Errorf("not found: %s", apiErr.Detail)
			}
			return nil, fmt.Errorf("not found (status %d)", resp.StatusCode)
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error (status %d)", resp.StatusCode)
			c.logger.Warn("Server error, will retry",
				"status", resp.StatusCode, "attempt", attempt,
			)
			continue
		default:
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("all %d retries exhausted: %w", c.maxRetries, lastErr)
}

// parseTimestamp tries multiple timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp format: %s", s)
}
