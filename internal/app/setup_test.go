package app_test

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pricehistory/internal/app"
	"pricehistory/internal/config"
	"pricehistory/internal/provider"
	"pricehistory/internal/provider/mocks"
	"pricehistory/internal/provider/ratelimit"
	"pricehistory/internal/provider/retry"
	"pricehistory/internal/slogx"
)

func baseConfig(t *testing.T, source string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Run.Source = source
	cfg.Run.Symbols = []string{"AAPL"}
	cfg.Run.StartDate = "2020-01-01"
	cfg.Run.EndDate = "2020-01-10"
	dir := t.TempDir()
	cfg.Run.RawDataDir = filepath.Join(dir, "raw")
	cfg.Run.OutputDir = filepath.Join(dir, "out")
	return cfg
}

func TestNewSource_Decorators(t *testing.T) {
	t.Parallel()

	logger := slogx.New(io.Discard, "error")

	// Alpha Vantage defaults to a token bucket.
	cfg := baseConfig(t, config.SourceAlphaVantage)
	cfg.AlphaVantage.APIKey = "k"
	src, err := app.NewSource(cfg, http.DefaultClient, logger)
	require.NoError(t, err)
	require.IsType(t, &ratelimit.TokenBucketFetcher{}, src.Fetcher)
	require.Equal(t, provider.FilterExclusiveStart, src.Window)

	// Yahoo wraps its client in the retry loop.
	cfg = baseConfig(t, config.SourceYahoo)
	src, err = app.NewSource(cfg, http.DefaultClient, logger)
	require.NoError(t, err)
	rf, ok := src.Fetcher.(*retry.Fetcher)
	require.True(t, ok)
	require.Equal(t, 10, rf.MaxAttempts)
	require.Equal(t, provider.ProviderRange, src.Window)

	// Quandl with a min interval and no RPM.
	cfg = baseConfig(t, config.SourceQuandl)
	cfg.Quandl.MinRequestIntervalSec = 2
	src, err = app.NewSource(cfg, http.DefaultClient, logger)
	require.NoError(t, err)
	require.IsType(t, &ratelimit.MinInterval{}, src.Fetcher)
	require.Equal(t, "Quandl", src.Name())
}

func TestNewSource_MissingCredentials(t *testing.T) {
	t.Parallel()

	for _, source := range []string{config.SourceTushare, config.SourceAlphaVantage} {
		_, err := app.NewSource(baseConfig(t, source), http.DefaultClient, nil)
		require.ErrorContains(t, err, "missing", source)
	}

	_, err := app.NewSource(baseConfig(t, "bloomberg"), http.DefaultClient, nil)
	require.ErrorContains(t, err, "unsupported source")
}

func TestNewRunner_EndToEnd(t *testing.T) {
	t.Parallel()

	// Arrange: a Yahoo source backed by a mock HTTP client and the SQLite store
	ctrl := gomock.NewController(t)
	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{"chart":{"result":[{
				"meta":{"symbol":"AAPL","gmtoffset":-18000},
				"timestamp":[1577975400],
				"indicators":{"quote":[{"open":[74.06],"high":[75.15],"low":[73.80],"close":[75.09],"volume":[135480400]}],
				"adjclose":[{"adjclose":[73.06]}]}}],"error":null}}`))}, nil
		}).
		Times(1)

	cfg := baseConfig(t, config.SourceYahoo)
	cfg.Store.Enabled = true
	cfg.Store.DSN = filepath.Join(t.TempDir(), "prices.db")
	logger := slogx.New(io.Discard, "debug")

	src, err := app.NewSource(cfg, httpClient, logger)
	require.NoError(t, err)
	runner, closeFn, err := app.NewRunner(cfg, logger)
	require.NoError(t, err)
	defer closeFn()

	// Act
	coll, err := runner.Run(t.Context(), src)

	// Assert
	require.NoError(t, err)
	require.Len(t, coll["AAPL"].Rows, 1)
	require.Equal(t, "73.06", coll["AAPL"].Rows[0].AdjClose.String())
}

func TestNewRunner_BadFormat(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t, config.SourceYahoo)
	cfg.Run.Format = "xlsx"

	_, _, err := app.NewRunner(cfg, slogx.New(io.Discard, "info"))
	require.Error(t, err)
}
