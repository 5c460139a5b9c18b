package ratelimit

import (
	"context"
	"sync"
	"time"

	"pricehistory/internal/provider"
)

// TokenBucket refills at rate tokens per second up to capacity (the burst).
// It starts full.
type TokenBucket struct {
	rate     float64
	capacity float64

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
	if tokensPerSecond <= 0 {
		tokensPerSecond = 1e-7
	}
	burst = max(burst, 1)
	return &TokenBucket{
		rate:     tokensPerSecond,
		capacity: float64(burst),
		tokens:   float64(burst),
		last:     time.Now(),
	}
}

// PerMinute builds a bucket from a requests-per-minute quota, the unit
// free API tiers publish.
func PerMinute(rpm, burst int) *TokenBucket {
	return NewTokenBucket(float64(rpm)/60.0, burst)
}

// take removes one token and returns zero, or returns how long until a
// token will be available.
func (tb *TokenBucket) take(now time.Time) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if elapsed := now.Sub(tb.last).Seconds(); elapsed > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.rate)
		tb.last = now
	}
	if tb.tokens >= 1 {
		tb.tokens--
		return 0
	}
	d := time.Duration((1 - tb.tokens) / tb.rate * float64(time.Second))
	return max(d, time.Millisecond)
}

// Wait blocks until one token is available or ctx is canceled.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		d := tb.take(time.Now())
		if d == 0 {
			return nil
		}
		if err := sleep(ctx, d); err != nil {
			return err
		}
	}
}

// TokenBucketFetcher wraps a Fetcher and gates calls using a token bucket.
type TokenBucketFetcher struct {
	P  provider.Fetcher
	TB *TokenBucket
}

func (t *TokenBucketFetcher) Name() string { return t.P.Name() }

func (t *TokenBucketFetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]provider.RawRow, error) {
	if t.TB != nil {
		if err := t.TB.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return t.P.Fetch(ctx, symbol, start, end)
}
