package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pricehistory/internal/series"
)

// WindowPolicy says where the run's date window is enforced.
type WindowPolicy int

const (
	// FilterExclusiveStart keeps rows with start < timestamp <= end after fetching.
	FilterExclusiveStart WindowPolicy = iota
	// ProviderRange trusts the range passed to the provider and filters nothing locally.
	ProviderRange
)

// Source is a provider adapter: a Fetcher plus the schema and window policy
// that turn its rows into a normalized table.
type Source struct {
	Fetcher Fetcher
	Schema  series.Schema
	Window  WindowPolicy
	Logger  *slog.Logger
}

func (s Source) Name() string { return s.Fetcher.Name() }

// Load fetches one symbol and returns its normalized, sorted table.
// Any fetch failure is returned as a *FetchError.
func (s Source) Load(ctx context.Context, symbol string, w series.Window) (*series.Table, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := s.Fetcher.Fetch(ctx, symbol, w.Start, w.End)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, &FetchError{Provider: s.Name(), Symbol: symbol, Attempts: 1, Err: err}
	}
	fetched := len(raw)
	if fetched == 0 {
		// An unknown symbol often comes back as an empty success.
		logger.Warn("provider returned no rows", "symbol", symbol, "provider", s.Name(), "window", w.String())
	}
	if s.Window == FilterExclusiveStart {
		raw = series.Filter(raw, w)
	}
	logger.Debug("raw data", "symbol", symbol, "provider", s.Name(), "rows", fetched, "in_window", len(raw))

	t, extra, err := s.Schema.Normalize(symbol, raw)
	if err != nil {
		return nil, fmt.Errorf("normalize %s from %s: %w", symbol, s.Name(), err)
	}
	if len(extra) > 0 {
		logger.Debug("ignored provider columns", "symbol", symbol, "provider", s.Name(), "columns", extra)
	}
	logger.Debug("normalized", "symbol", symbol, "rows", t.Len(), "columns", len(series.Columns))
	return t, nil
}
