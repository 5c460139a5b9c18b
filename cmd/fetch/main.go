package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pricehistory/internal/app"
	"pricehistory/internal/config"
	"pricehistory/internal/httpx"
	"pricehistory/internal/slogx"
)

func main() {
	var (
		configPath string
		source     string
		symbolsCSV string
		start      string
		end        string
		rawDir     string
		outDir     string
		format     string
		logLevel   string
	)
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json or config.yaml (optional)")
	flag.StringVar(&source, "source", "", "data source: tushare, alphavantage, quandl, yahoo")
	flag.StringVar(&symbolsCSV, "symbols", "", "comma-separated symbols")
	flag.StringVar(&start, "start", "", "start date YYYY-MM-DD (exclusive for tushare and alphavantage)")
	flag.StringVar(&end, "end", "", "end date YYYY-MM-DD (inclusive)")
	flag.StringVar(&rawDir, "raw-dir", "", "directory for aligned tables")
	flag.StringVar(&outDir, "out-dir", "", "directory for per-symbol normalized tables")
	flag.StringVar(&format, "format", "", "output format: csv, parquet, json")
	flag.StringVar(&logLevel, "log-level", "", "debug, info, warn, error")
	flag.Parse()

	// Load config (optional) and merge with flags/env
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	if source != "" {
		cfg.Run.Source = strings.ToLower(source)
	}
	if symbolsCSV != "" {
		cfg.Run.Symbols = config.SplitCSV(symbolsCSV)
	}
	if start != "" {
		cfg.Run.StartDate = start
	}
	if end != "" {
		cfg.Run.EndDate = end
	}
	if rawDir != "" {
		cfg.Run.RawDataDir = rawDir
	}
	if outDir != "" {
		cfg.Run.OutputDir = outDir
	}
	if format != "" {
		cfg.Run.Format = format
	}
	if logLevel != "" {
		cfg.Run.LogLevel = logLevel
	}

	logger := slogx.NewDefault(cfg.Run.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	httpClient := httpx.New(time.Duration(cfg.Run.RequestTimeoutSec) * time.Second)
	src, err := app.NewSource(cfg, httpClient, logger)
	if err != nil {
		logger.Error("source", "error", err)
		os.Exit(1)
	}
	runner, closeStore, err := app.NewRunner(cfg, logger)
	if err != nil {
		logger.Error("runner", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coll, err := runner.Run(ctx, src)
	if err != nil {
		// deferred calls do not run past os.Exit
		stop()
		closeStore()
		os.Exit(1)
	}
	for _, s := range cfg.Run.Symbols {
		logger.Info("aligned", "symbol", s, "rows", coll[s].Len())
	}
}
