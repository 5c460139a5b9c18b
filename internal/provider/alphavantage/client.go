package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"pricehistory/internal/provider"
	"pricehistory/internal/series"
)

const baseURL = "https://www.alphavantage.co"

// Client is a client for the Alpha Vantage time series API.
type Client struct {
	baseURL    string
	apiKey     string
	outputSize string
	httpClient provider.HTTPClient
}

// Option is a configuration option for the Alpha Vantage client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient provider.HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithOutputSize sets outputsize; "compact" returns only the latest 100 bars.
func WithOutputSize(size string) Option {
	return func(c *Client) {
		c.outputSize = size
	}
}

// New creates a new Alpha Vantage client.
func New(apiKey string, options ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		outputSize: "full",
		httpClient: http.DefaultClient,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Name() string { return "AlphaVantage" }

const seriesKey = "Time Series (Daily)"

// Fetch returns the full daily history of symbol. The API has no range
// parameters, so start and end are ignored here.
func (c *Client) Fetch(ctx context.Context, symbol string, _, _ time.Time) ([]provider.RawRow, error) {
	query := url.Values{}
	query.Set("function", "TIME_SERIES_DAILY")
	query.Set("symbol", symbol)
	query.Set("outputsize", c.outputSize)
	query.Set("datatype", "json")
	query.Set("apikey", c.apiKey)

	u := fmt.Sprintf("%s/query?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<10))
		return nil, fmt.Errorf("unexpected status code: %d: %s", res.StatusCode, string(b))
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding daily response: %w", err)
	}
	// Errors and quota notices come back as 200 with a single message key.
	for _, k := range []string{"Error Message", "Note", "Information"} {
		if raw, ok := body[k]; ok {
			var msg string
			if err := json.Unmarshal(raw, &msg); err != nil {
				msg = string(raw)
			}
			return nil, fmt.Errorf("%s: %s", k, msg)
		}
	}
	raw, ok := body[seriesKey]
	if !ok {
		return nil, fmt.Errorf("response has no %q", seriesKey)
	}

	// {
	//   "2020-01-02": {
	//     "1. open": "135.0000",
	//     "2. high": "135.9200",
	//     ...
	//   }
	// }
	var days map[string]map[string]string
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", seriesKey, err)
	}
	rows := make([]provider.RawRow, 0, len(days))
	for date, fields := range days {
		ts, err := series.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}
		rows = append(rows, provider.RawRow{Timestamp: ts, Fields: fields})
	}
	return rows, nil
}

// Schema maps the numbered daily fields onto the canonical columns.
var Schema = series.Schema{
	Rename: map[string]string{
		"1. open":  series.ColAdjOpen,
		"2. high":  series.ColAdjHigh,
		"3. low":   series.ColAdjLow,
		"4. close": series.ColAdjClose,
	},
	Drop: []string{"5. volume"},
}

// NewSource builds the adapter around f, keeping rows with start < date <= end.
func NewSource(f provider.Fetcher, logger *slog.Logger) provider.Source {
	return provider.Source{Fetcher: f, Schema: Schema, Window: provider.FilterExclusiveStart, Logger: logger}
}
