package quandl

import (
	"bytes"
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

const (
	baseURL = "https://data.nasdaq.com"
	// DefaultDatabase is the end-of-day US equities database.
	DefaultDatabase = "WIKI"
)

// Client is a client for the Quandl dataset API.
type Client struct {
	baseURL    string
	apiKey     string
	database   string
	httpClient provider.HTTPClient
}

// Option is a configuration option for the Quandl client.
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

// WithDatabase sets the database code datasets are read from.
func WithDatabase(code string) Option {
	return func(c *Client) {
		c.database = code
	}
}

// New creates a new Quandl client. An empty key uses the anonymous quota.
func New(apiKey string, options ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		database:   DefaultDatabase,
		httpClient: http.DefaultClient,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Name() string { return "Quandl" }

type datasetResponse struct {
	Dataset *struct {
		ColumnNames []string `json:"column_names"`
		Data        [][]any  `json:"data"`
	} `json:"dataset"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"quandl_error"`
}

const dateColumn = "Date"

// Fetch returns the dataset rows of symbol with start <= date <= end, as
// filtered by the provider.
func (c *Client) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]provider.RawRow, error) {
	query := url.Values{}
	if !start.IsZero() {
		query.Set("start_date", start.Format(series.DateLayout))
	}
	if !end.IsZero() {
		query.Set("end_date", end.Format(series.DateLayout))
	}
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}

	u := fmt.Sprintf("%s/api/v3/datasets/%s/%s.json?%s", c.baseURL, url.PathEscape(c.database), url.PathEscape(symbol), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	var body datasetResponse
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
		}
		return nil, fmt.Errorf("decoding dataset response: %w", err)
	}
	if body.Error != nil {
		return nil, fmt.Errorf("%s/%s: %s: %s", c.database, symbol, body.Error.Code, body.Error.Message)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}
	if body.Dataset == nil {
		return nil, fmt.Errorf("response has no dataset")
	}

	di := -1
	for i, name := range body.Dataset.ColumnNames {
		if name == dateColumn {
			di = i
			break
		}
	}
	if di < 0 {
		return nil, fmt.Errorf("dataset has no %s column", dateColumn)
	}

	rows := make([]provider.RawRow, 0, len(body.Dataset.Data))
	for _, item := range body.Dataset.Data {
		if di >= len(item) {
			continue
		}
		date, _ := item[di].(string)
		ts, err := series.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}
		fields := make(map[string]string, len(item))
		for i, name := range body.Dataset.ColumnNames {
			if i == di || i >= len(item) || item[i] == nil {
				continue
			}
			fields[name] = number(item[i])
		}
		rows = append(rows, provider.RawRow{Timestamp: ts, Fields: fields})
	}
	return rows, nil
}

func number(v any) string {
	switch x := v.(type) {
	case json.Number:
		return x.String()
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Schema keeps the split- and dividend-adjusted columns.
var Schema = series.Schema{
	Rename: map[string]string{
		"Adj. Open":  series.ColAdjOpen,
		"Adj. High":  series.ColAdjHigh,
		"Adj. Low":   series.ColAdjLow,
		"Adj. Close": series.ColAdjClose,
	},
	Drop: []string{"Ex-Dividend", "Split Ratio", "Open", "High", "Low", "Close", "Volume", "Adj. Volume"},
}

// NewSource builds the adapter around f. The date range is applied by the provider.
func NewSource(f provider.Fetcher, logger *slog.Logger) provider.Source {
	return provider.Source{Fetcher: f, Schema: Schema, Window: provider.ProviderRange, Logger: logger}
}
