package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"pricehistory/internal/align"
	"pricehistory/internal/saver"
	"pricehistory/internal/series"
)

// Loader fetches and normalizes one symbol. provider.Source implements it.
type Loader interface {
	Name() string
	Load(ctx context.Context, symbol string, w series.Window) (*series.Table, error)
}

// Sink receives aligned tables. store.Repository implements it.
type Sink interface {
	UpsertTable(ctx context.Context, t *series.Table) error
}

// Config is the run configuration shared by every step.
type Config struct {
	Symbols    []string
	Window     series.Window
	RawDataDir string
	OutputDir  string
}

// Runner fetches every symbol from one source, persists the normalized
// tables, aligns them and persists them again.
type Runner struct {
	cfg    Config
	saver  saver.TableSaver
	sink   Sink
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithSink stores aligned tables in s as well as on disk.
func WithSink(s Sink) Option {
	return func(r *Runner) { r.sink = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func New(cfg Config, s saver.TableSaver, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, saver: s, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.saver == nil {
		r.saver = saver.CSVSaver{}
	}
	return r
}

// FetchAll loads the configured symbols one after another, writes each
// normalized table to the output directory and returns the collection.
// The first failure aborts the run.
func (r *Runner) FetchAll(ctx context.Context, src Loader) (series.Collection, error) {
	coll := make(series.Collection, len(r.cfg.Symbols))
	for _, symbol := range r.cfg.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.logger.Info("fetch raw data", "symbol", symbol, "provider", src.Name(), "window", r.cfg.Window.String())

		t, err := src.Load(ctx, symbol, r.cfg.Window)
		if err != nil {
			return nil, err
		}
		if err := r.save(t, r.cfg.OutputDir); err != nil {
			return nil, err
		}
		coll[symbol] = t
	}
	return coll, nil
}

// Align trims coll to the timestamps shared by every configured symbol,
// then writes each table to the raw-data directory and the sink.
func (r *Runner) Align(ctx context.Context, coll series.Collection) error {
	if err := align.Align(r.cfg.Symbols, coll); err != nil {
		return err
	}
	rows := 0
	if len(r.cfg.Symbols) > 0 {
		rows = coll[r.cfg.Symbols[0]].Len()
	}
	r.logger.Info("align timestamps", "symbols", len(r.cfg.Symbols), "common", rows)
	if len(r.cfg.Symbols) > 0 && rows == 0 {
		r.logger.Warn("no common timestamps; aligned tables are empty")
	}

	for _, symbol := range r.cfg.Symbols {
		t := coll[symbol]
		if err := r.save(t, r.cfg.RawDataDir); err != nil {
			return err
		}
		if r.sink != nil {
			if err := r.sink.UpsertTable(ctx, t); err != nil {
				return fmt.Errorf("store %s: %w", symbol, err)
			}
		}
	}
	return nil
}

// Run is FetchAll followed by Align. Log records carry a run_id.
func (r *Runner) Run(ctx context.Context, src Loader) (series.Collection, error) {
	rr := *r
	rr.logger = r.logger.With("run_id", uuid.NewString())

	coll, err := rr.FetchAll(ctx, src)
	if err != nil {
		rr.logger.Error("fetch failed", "error", err)
		return nil, err
	}
	if err := rr.Align(ctx, coll); err != nil {
		rr.logger.Error("align failed", "error", err)
		return nil, err
	}
	rr.logger.Info("run complete", "symbols", len(coll))
	return coll, nil
}

func (r *Runner) save(t *series.Table, dir string) error {
	if err := saver.EnsureDir(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, t.Symbol+"."+r.saver.Extension())
	if err := r.saver.Save(t, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	r.logger.Debug("saved", "symbol", t.Symbol, "path", path, "rows", t.Len())
	return nil
}
