package ratelimit

import (
	"context"
	"sync"
	"time"

	"pricehistory/internal/provider"
)

// MinInterval wraps a fetcher and spaces the start of consecutive calls by
// at least Interval. A waiting call returns early if ctx is canceled.
type MinInterval struct {
	P        provider.Fetcher
	Interval time.Duration

	mu   sync.Mutex
	next time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

// reserve claims the next free slot and returns how long to wait for it.
func (m *MinInterval) reserve(now time.Time) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot := m.next
	if slot.Before(now) {
		slot = now
	}
	m.next = slot.Add(m.Interval)
	return slot.Sub(now)
}

func (m *MinInterval) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]provider.RawRow, error) {
	if m.Interval > 0 {
		if err := sleep(ctx, m.reserve(time.Now())); err != nil {
			return nil, err
		}
	}
	return m.P.Fetch(ctx, symbol, start, end)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
