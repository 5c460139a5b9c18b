package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pricehistory/internal/provider/mocks"
	"pricehistory/internal/provider/ratelimit"
)

func TestMinInterval_SpacesCalls(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	inner := mocks.NewMockFetcher(ctrl)
	inner.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)

	m := &ratelimit.MinInterval{P: inner, Interval: 50 * time.Millisecond}

	begin := time.Now()
	_, err := m.Fetch(t.Context(), "A", time.Time{}, time.Time{})
	require.NoError(t, err)
	_, err = m.Fetch(t.Context(), "B", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(begin), 50*time.Millisecond)
}

func TestMinInterval_CanceledWhileWaiting(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	inner := mocks.NewMockFetcher(ctrl)
	inner.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).Times(1)

	m := &ratelimit.MinInterval{P: inner, Interval: time.Hour}
	_, err := m.Fetch(t.Context(), "A", time.Time{}, time.Time{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = m.Fetch(ctx, "B", time.Time{}, time.Time{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestTokenBucketFetcher_BurstThenBlocks(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	inner := mocks.NewMockFetcher(ctrl)
	inner.EXPECT().Name().Return("AlphaVantage").AnyTimes()
	inner.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)

	f := &ratelimit.TokenBucketFetcher{P: inner, TB: ratelimit.PerMinute(1, 2)}
	require.Equal(t, "AlphaVantage", f.Name())

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(t.Context(), "IBM", time.Time{}, time.Time{})
		require.NoError(t, err)
	}

	// Third call has no token for ~60s and must give up with the context.
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Fetch(ctx, "IBM", time.Time{}, time.Time{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
