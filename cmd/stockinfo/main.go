package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pricehistory/internal/config"
	"pricehistory/internal/httpx"
	"pricehistory/internal/provider/tushare"
	"pricehistory/internal/saver"
	"pricehistory/internal/slogx"
)

const fileName = "chinese_stocks.csv"

func main() {
	var (
		cfgPath    string
		outDir     string
		timeoutSec int
		logLevel   string
	)
	flag.StringVar(&cfgPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json or config.yaml (optional)")
	flag.StringVar(&outDir, "out-dir", "", "output directory (default: run.output_dir)")
	flag.IntVar(&timeoutSec, "timeout", 60, "HTTP timeout seconds")
	flag.StringVar(&logLevel, "log-level", "info", "debug, info, warn, error")
	flag.Parse()

	logger := slogx.NewDefault(logLevel)
	slog.SetDefault(logger)

	// Load config/env
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	if cfg.Tushare.Token == "" {
		logger.Error("TUSHARE_TOKEN missing (set in config or env)")
		os.Exit(1)
	}
	if outDir == "" {
		outDir = cfg.Run.OutputDir
	}

	client := tushare.New(cfg.Tushare.Token,
		tushare.WithBaseURL(cfg.Tushare.Endpoint),
		tushare.WithHTTPClient(httpx.New(time.Duration(timeoutSec)*time.Second)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	frame, err := client.StockBasics(ctx)
	if err != nil {
		logger.Error("stock basics", "error", err)
		os.Exit(1)
	}
	if err := saver.EnsureDir(outDir); err != nil {
		logger.Error("output dir", "error", err)
		os.Exit(1)
	}
	path := filepath.Join(outDir, fileName)
	if err := saver.WriteRecords(path, frame.Records()); err != nil {
		logger.Error("write", "error", err)
		os.Exit(1)
	}
	logger.Info("done", "path", path, "stocks", len(frame.Items))
}
