package app

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pricehistory/internal/config"
	"pricehistory/internal/pipeline"
	"pricehistory/internal/provider"
	"pricehistory/internal/provider/alphavantage"
	"pricehistory/internal/provider/quandl"
	"pricehistory/internal/provider/ratelimit"
	"pricehistory/internal/provider/retry"
	"pricehistory/internal/provider/tushare"
	"pricehistory/internal/provider/yahoo"
	"pricehistory/internal/saver"
	"pricehistory/internal/store"
)

// NewSource builds the adapter named by cfg.Run.Source with its rate
// limiter and, for Yahoo, the retry loop.
func NewSource(cfg config.Config, hc provider.HTTPClient, logger *slog.Logger) (provider.Source, error) {
	switch cfg.Run.Source {
	case config.SourceTushare:
		if cfg.Tushare.Token == "" {
			return provider.Source{}, errors.New("TUSHARE_TOKEN missing (set in config or env)")
		}
		c := tushare.New(cfg.Tushare.Token, tushare.WithBaseURL(cfg.Tushare.Endpoint), tushare.WithHTTPClient(hc))
		return tushare.NewSource(limit(c, cfg.Tushare.Limits), logger), nil

	case config.SourceAlphaVantage:
		if cfg.AlphaVantage.APIKey == "" {
			return provider.Source{}, errors.New("ALPHAVANTAGE_API_KEY missing (set in config or env)")
		}
		opts := []alphavantage.Option{alphavantage.WithBaseURL(cfg.AlphaVantage.Endpoint), alphavantage.WithHTTPClient(hc)}
		if cfg.AlphaVantage.OutputSize != "" {
			opts = append(opts, alphavantage.WithOutputSize(cfg.AlphaVantage.OutputSize))
		}
		c := alphavantage.New(cfg.AlphaVantage.APIKey, opts...)
		return alphavantage.NewSource(limit(c, cfg.AlphaVantage.Limits), logger), nil

	case config.SourceQuandl:
		opts := []quandl.Option{quandl.WithBaseURL(cfg.Quandl.Endpoint), quandl.WithHTTPClient(hc)}
		if cfg.Quandl.Database != "" {
			opts = append(opts, quandl.WithDatabase(cfg.Quandl.Database))
		}
		c := quandl.New(cfg.Quandl.APIKey, opts...)
		return quandl.NewSource(limit(c, cfg.Quandl.Limits), logger), nil

	case config.SourceYahoo:
		c := yahoo.New(yahoo.WithBaseURL(cfg.Yahoo.Endpoint), yahoo.WithHTTPClient(hc))
		// Each attempt passes through the limiter.
		f := &retry.Fetcher{
			P:           limit(c, cfg.Yahoo.Limits),
			MaxAttempts: cfg.Yahoo.MaxAttempts,
			Delay:       time.Duration(cfg.Yahoo.RetryDelayMs) * time.Millisecond,
			Logger:      logger,
		}
		return yahoo.NewSource(f, logger), nil

	default:
		return provider.Source{}, fmt.Errorf("unsupported source: %s. Options: %v", cfg.Run.Source, config.Sources)
	}
}

func limit(f provider.Fetcher, l config.Limits) provider.Fetcher {
	if l.MaxRequestsPerMinute > 0 {
		burst := l.Burst
		if burst <= 0 {
			burst = 1
		}
		return &ratelimit.TokenBucketFetcher{P: f, TB: ratelimit.PerMinute(l.MaxRequestsPerMinute, burst)}
	}
	if l.MinRequestIntervalSec > 0 {
		return &ratelimit.MinInterval{P: f, Interval: time.Duration(l.MinRequestIntervalSec) * time.Second}
	}
	return f
}

// NewRunner builds the pipeline for cfg. The returned close function
// releases the store connection when one was opened.
func NewRunner(cfg config.Config, logger *slog.Logger) (*pipeline.Runner, func() error, error) {
	w, err := cfg.Window()
	if err != nil {
		return nil, nil, err
	}
	s, err := saver.New(cfg.Run.Format)
	if err != nil {
		return nil, nil, err
	}
	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	closeFn := func() error { return nil }

	if cfg.Store.Enabled {
		db, err := store.Open(cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		closeFn = sqlDB.Close
		opts = append(opts, pipeline.WithSink(store.NewRepository(db)))
		logger.Info("wire", "store", "sqlite", "dsn", cfg.Store.DSN)
	}

	r := pipeline.New(pipeline.Config{
		Symbols:    cfg.Run.Symbols,
		Window:     w,
		RawDataDir: cfg.Run.RawDataDir,
		OutputDir:  cfg.Run.OutputDir,
	}, s, opts...)
	logger.Info("wire", "source", cfg.Run.Source, "format", s.Extension(), "out", cfg.Run.OutputDir, "raw", cfg.Run.RawDataDir)
	return r, closeFn, nil
}
