// Package nse is a small client for the public NSE India JSON API.
//
// NSE rejects requests that do not look like they come from a browser, and
// the API endpoints require the cookies set by the home page. The client
// sends a browser User-Agent, keeps a cookie jar and primes it once with a
// GET of the base URL before the first API call.
//
// Usage:
//
//	c := nse.NewClient(nse.Config{})
//	h, err := c.HistoricalData(ctx, "SBIN", "EQ", from, to)
package nse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"nse-scraper/internal/model"
)

const (
	defaultBaseURL   = "https://www.nseindia.com"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	defaultSeries    = "EQ"
	defaultTimeout   = 15 * time.Second

	historicalRoute = "/api/historical/cm/equity"

	// maxErrorBody caps how much of a failed response is kept in APIError.
	maxErrorBody = 512
)

// ErrInvalidSymbol is returned for a blank symbol before any request is made.
var ErrInvalidSymbol = errors.New("nse: invalid symbol")

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("nse: API returned status %d", e.StatusCode)
}

// Config configures a Client. Zero values get defaults.
type Config struct {
	BaseURL   string        // default: https://www.nseindia.com
	UserAgent string        // default: a desktop Chrome UA
	Series    string        // default: EQ
	Timeout   time.Duration // default: 15s

	// MaxFailures and ResetTimeout configure the circuit breaker.
	// MaxFailures <= 0 disables it.
	MaxFailures  int
	ResetTimeout time.Duration

	// HTTPClient overrides the transport. Its Jar is replaced if nil.
	HTTPClient *http.Client
}

// Client fetches daily history from NSE.
type Client struct {
	baseURL   string
	userAgent string
	series    string

	httpClient *http.Client
	breaker    *Breaker

	primeMu sync.Mutex
	primed  bool
}

// NewClient builds a client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Series == "" {
		cfg.Series = defaultSeries
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if hc.Jar == nil {
		// cookiejar.New only fails on a bad PublicSuffixList, and we pass none.
		jar, _ := cookiejar.New(nil)
		hc.Jar = jar
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		series:     cfg.Series,
		httpClient: hc,
		breaker:    NewBreaker(cfg.MaxFailures, cfg.ResetTimeout),
	}
}

// Breaker exposes the client's circuit breaker for health reporting.
func (c *Client) Breaker() *Breaker { return c.breaker }

// DailyBars implements model.BarSource using the configured series.
func (c *Client) DailyBars(ctx context.Context, symbol string, from, to time.Time) (model.History, error) {
	return c.HistoricalData(ctx, symbol, c.series, from, to)
}

// HistoricalData fetches the daily history of symbol/series over [from, to].
// The returned History carries the upper-cased symbol.
func (c *Client) HistoricalData(ctx context.Context, symbol, series string, from, to time.Time) (model.History, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return model.History{}, ErrInvalidSymbol
	}
	if series == "" {
		series = c.series
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("series", series)
	q.Set("from", model.FormatDate(from))
	q.Set("to", model.FormatDate(to))
	reqURL := c.baseURL + historicalRoute + "?" + q.Encode()

	var h model.History
	err := c.breaker.Execute(func() error {
		if err := c.prime(ctx); err != nil {
			return err
		}
		raw, err := c.get(ctx, reqURL, "application/json")
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &h); err != nil {
			return fmt.Errorf("nse: couldn't parse historical response: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.History{}, fmt.Errorf("historical %s %s..%s: %w", symbol, q.Get("from"), q.Get("to"), err)
	}

	h.Symbol = symbol
	slog.Debug("[nse] historical data fetched", "symbol", symbol, "series", series, "bars", len(h.Data))
	return h, nil
}

// prime loads the home page once so the jar holds NSE's session cookies.
// A failed prime is retried on the next call.
func (c *Client) prime(ctx context.Context) error {
	c.primeMu.Lock()
	defer c.primeMu.Unlock()
	if c.primed {
		return nil
	}
	if _, err := c.get(ctx, c.baseURL+"/", "text/html"); err != nil {
		return fmt.Errorf("nse: prime session: %w", err)
	}
	c.primed = true
	return nil
}

func (c *Client) get(ctx context.Context, reqURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := string(raw)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: body}
	}
	return raw, nil
}
