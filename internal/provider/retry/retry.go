package retry

import (
	"context"
	"log/slog"
	"time"

	"pricehistory/internal/provider"
)

// DefaultMaxAttempts is the attempt budget of the quote-provider path.
const DefaultMaxAttempts = 10

// Fetcher wraps a provider and retries failed fetches up to MaxAttempts
// times. Delay is slept between attempts; zero retries immediately.
type Fetcher struct {
	P           provider.Fetcher
	MaxAttempts int
	Delay       time.Duration
	Logger      *slog.Logger
}

func (r *Fetcher) Name() string { return r.P.Name() }

// Fetch returns the first successful result. When every attempt fails it
// returns a *provider.FetchError carrying the attempt count and last error.
func (r *Fetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]provider.RawRow, error) {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		rows, err := r.P.Fetch(ctx, symbol, start, end)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, &provider.FetchError{Provider: r.Name(), Symbol: symbol, Attempts: i + 1, Err: ctx.Err()}
		}
		if i == attempts-1 {
			break
		}
		logger.Warn("retry", "symbol", symbol, "provider", r.Name(), "attempt", i+1, "error", err)
		if r.Delay > 0 {
			t := time.NewTimer(r.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, &provider.FetchError{Provider: r.Name(), Symbol: symbol, Attempts: i + 1, Err: ctx.Err()}
			case <-t.C:
			}
		}
	}
	return nil, &provider.FetchError{Provider: r.Name(), Symbol: symbol, Attempts: attempts, Err: lastErr}
}
