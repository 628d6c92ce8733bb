// Package marketdata is the external data collaborator: a rate-limited
// quote client with a deterministic synthetic fallback, and a macro
// indicator loader. The analytics engines never call this package; they
// receive fully resolved series and snapshots from it via the services
// layer, with a Synthetic advisory flag whenever fallback data was
// substituted.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	apperrors "stratalpha/internal/errors"
	"stratalpha/internal/timeseries"
)

const (
	defaultBaseURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultTimeout   = 10 * time.Second
	defaultRateLimit = 5 // requests per second
	userAgent        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
)

// CallRecorder receives an audit record for every outbound request. The
// run-history service implements it; a nil recorder disables auditing.
type CallRecorder interface {
	RecordAPICall(apiName, endpoint string, statusCode int, duration time.Duration, callErr error)
}

// Client fetches daily price history from a Yahoo-style chart API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	recorder   CallRecorder
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL, used by tests to point at a stub.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithRateLimit overrides the default requests-per-second cap.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithRecorder wires an audit recorder into the client.
func WithRecorder(r CallRecorder) ClientOption {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a new market data client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateLimit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// chartResponse mirrors the subset of the chart API payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *json.RawMessage `json:"error"`
	} `json:"chart"`
}

// History fetches daily closes for a ticker over [start, end]. The second
// return value reports whether a deterministic synthetic series was
// substituted because the live source failed; that flag travels with the
// data as a non-fatal advisory, never as an error.
func (c *Client) History(ctx context.Context, ticker string, start, end time.Time) (*timeseries.PriceSeries, bool, error) {
	series, err := c.fetchHistory(ctx, ticker, start, end)
	if err == nil {
		return series, false, nil
	}
	if ctx.Err() != nil {
		return nil, false, ctx.Err()
	}

	// Live source unavailable: fall back to a seeded synthetic path so
	// downstream analysis stays deterministic and testable.
	return SyntheticSeries(ticker, start, end), true, nil
}

func (c *Client) fetchHistory(ctx context.Context, ticker string, start, end time.Time) (*timeseries.PriceSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Unix()))
	q.Set("interval", "1d")
	req.Header.Set("User-Agent", userAgent)
	req.URL.RawQuery = q.Encode()

	began := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.recorder != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.recorder.RecordAPICall("quote", endpoint, status, time.Since(began), err)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.WithMessage(apperrors.ErrTickerNotSupported,
			fmt.Sprintf("no chart data for %q", ticker))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.WithMessage(apperrors.ErrDataUnavailable,
			fmt.Sprintf("chart API returned status %d", resp.StatusCode))
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, err)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrDataUnavailable, "empty chart payload")
	}

	result := payload.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	if len(result.Timestamp) != len(closes) || len(closes) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrDataUnavailable, "malformed chart payload")
	}

	points := make([]timeseries.PricePoint, 0, len(closes))
	for i, ts := range result.Timestamp {
		if closes[i] <= 0 {
			continue // market holidays arrive as zeroed slots
		}
		points = append(points, timeseries.PricePoint{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: closes[i],
		})
	}

	series := &timeseries.PriceSeries{Ticker: ticker, Points: points}
	if err := series.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, err)
	}
	return series, nil
}
