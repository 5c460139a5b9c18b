package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pricehistory/internal/series"
)

// RawRow is the provider-native record returned by every Fetcher.
type RawRow = series.RawRow

// Fetcher requests the raw daily history of one symbol.
//
//go:generate mockgen -package=mocks -destination=mocks/mock_provider.go -source=provider.go
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, symbol string, start, end time.Time) ([]RawRow, error)
}

// HTTPClient describes an HTTP client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetchError reports a failed fetch for one symbol from one provider.
type FetchError struct {
	Provider string
	Symbol   string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("still cannot fetch %s from %s after %d attempts: %v", e.Symbol, e.Provider, e.Attempts, e.Err)
	}
	return fmt.Sprintf("cannot fetch %s from %s: %v", e.Symbol, e.Provider, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
