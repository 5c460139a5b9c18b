package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"pricehistory/internal/series"
)

// Source names accepted by Run.Source.
const (
	SourceTushare      = "tushare"
	SourceAlphaVantage = "alphavantage"
	SourceQuandl       = "quandl"
	SourceYahoo        = "yahoo"
)

// Sources lists every supported source.
var Sources = []string{SourceTushare, SourceAlphaVantage, SourceQuandl, SourceYahoo}

// Run describes one fetch-normalize-align run.
type Run struct {
	Source            string   `json:"source" yaml:"source"`
	Symbols           []string `json:"symbols" yaml:"symbols"`
	StartDate         string   `json:"start_date" yaml:"start_date"`
	EndDate           string   `json:"end_date" yaml:"end_date"`
	RawDataDir        string   `json:"raw_data_dir" yaml:"raw_data_dir"`
	OutputDir         string   `json:"output_dir" yaml:"output_dir"`
	Format            string   `json:"format" yaml:"format"`
	LogLevel          string   `json:"log_level" yaml:"log_level"`
	RequestTimeoutSec int      `json:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// Limits gates requests to a provider. MaxRequestsPerMinute wins over
// MinRequestIntervalSec when both are set.
type Limits struct {
	MaxRequestsPerMinute  int `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
	MinRequestIntervalSec int `json:"min_request_interval_sec" yaml:"min_request_interval_sec"`
	Burst                 int `json:"burst" yaml:"burst"`
}

type Tushare struct {
	Token    string `json:"token" yaml:"token"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Limits   `yaml:",inline"`
}

type AlphaVantage struct {
	APIKey     string `json:"api_key" yaml:"api_key"`
	Endpoint   string `json:"endpoint" yaml:"endpoint"`
	OutputSize string `json:"output_size" yaml:"output_size"`
	Limits     `yaml:",inline"`
}

type Quandl struct {
	APIKey   string `json:"api_key" yaml:"api_key"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Database string `json:"database" yaml:"database"`
	Limits   `yaml:",inline"`
}

type Yahoo struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// MaxAttempts bounds the retry loop around each symbol fetch.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`
	// RetryDelayMs pauses between attempts. Zero retries immediately.
	RetryDelayMs int `json:"retry_delay_ms" yaml:"retry_delay_ms"`
	Limits       `yaml:",inline"`
}

// Store configures the optional SQLite sink for aligned tables.
type Store struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

type Config struct {
	Run          Run          `json:"run" yaml:"run"`
	Tushare      Tushare      `json:"tushare" yaml:"tushare"`
	AlphaVantage AlphaVantage `json:"alphavantage" yaml:"alphavantage"`
	Quandl       Quandl       `json:"quandl" yaml:"quandl"`
	Yahoo        Yahoo        `json:"yahoo" yaml:"yahoo"`
	Store        Store        `json:"store" yaml:"store"`
}

func Default() Config {
	return Config{
		Run: Run{
			Source:            SourceYahoo,
			RawDataDir:        "raw_data",
			OutputDir:         "data",
			Format:            "csv",
			LogLevel:          "info",
			RequestTimeoutSec: 30,
		},
		Tushare: Tushare{
			Endpoint: "http://api.tushare.pro",
			Limits:   Limits{MaxRequestsPerMinute: 200, Burst: 10},
		},
		AlphaVantage: AlphaVantage{
			Endpoint:   "https://www.alphavantage.co",
			OutputSize: "full",
			Limits:     Limits{MaxRequestsPerMinute: 5, Burst: 5},
		},
		Quandl: Quandl{
			Endpoint: "https://data.nasdaq.com",
			Database: "WIKI",
		},
		Yahoo: Yahoo{
			Endpoint:    "https://query1.finance.yahoo.com",
			MaxAttempts: 10,
		},
		Store: Store{DSN: "pricehistory.db"},
	}
}

// Load reads config from path, as YAML when the extension is .yaml or .yml
// and JSON otherwise. If path is empty it tries config.json then
// config.yaml in the working directory; a missing file yields defaults.
// ${VAR} references in YAML are expanded, and environment variables
// override select fields so secrets stay out of files.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, p := range []string{"config.json", "config.yaml", "config.yml"} {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SOURCE"); v != "" {
		cfg.Run.Source = strings.ToLower(v)
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Run.Symbols = SplitCSV(v)
	}
	if v := os.Getenv("START_DATE"); v != "" {
		cfg.Run.StartDate = v
	}
	if v := os.Getenv("END_DATE"); v != "" {
		cfg.Run.EndDate = v
	}
	if v := os.Getenv("RAW_DATA_DIR"); v != "" {
		cfg.Run.RawDataDir = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Run.OutputDir = v
	}
	if v := os.Getenv("SAVE_FORMAT"); v != "" {
		cfg.Run.Format = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Run.LogLevel = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Run.RequestTimeoutSec = x
		}
	}

	if v := os.Getenv("TUSHARE_TOKEN"); v != "" {
		cfg.Tushare.Token = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_MAX_RPM"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.AlphaVantage.MaxRequestsPerMinute = x
		}
	}
	if v := os.Getenv("QUANDL_API_KEY"); v != "" {
		cfg.Quandl.APIKey = v
	}
	if v := os.Getenv("YAHOO_MAX_ATTEMPTS"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Yahoo.MaxAttempts = x
		}
	}
	if v := os.Getenv("YAHOO_RETRY_DELAY_MS"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Yahoo.RetryDelayMs = x
		}
	}

	if v := os.Getenv("STORE_ENABLED"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y":
			cfg.Store.Enabled = true
		case "0", "false", "no", "n":
			cfg.Store.Enabled = false
		}
	}
	if v := os.Getenv("STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
}

// Window parses the run's start and end dates.
func (c Config) Window() (series.Window, error) {
	return series.NewWindow(c.Run.StartDate, c.Run.EndDate)
}

// Validate checks the run settings before any request is made.
func (c Config) Validate() error {
	var errs []error
	if !isSource(c.Run.Source) {
		errs = append(errs, fmt.Errorf("unknown source %q (use: %s)", c.Run.Source, strings.Join(Sources, ", ")))
	}
	if len(c.Run.Symbols) == 0 {
		errs = append(errs, errors.New("no symbols configured"))
	}
	if c.Run.StartDate == "" || c.Run.EndDate == "" {
		errs = append(errs, errors.New("start_date and end_date are required"))
	} else if _, err := c.Window(); err != nil {
		errs = append(errs, err)
	}
	if c.Run.RawDataDir == "" || c.Run.OutputDir == "" {
		errs = append(errs, errors.New("raw_data_dir and output_dir are required"))
	}
	if c.Run.Source == SourceYahoo && c.Yahoo.MaxAttempts < 1 {
		errs = append(errs, errors.New("yahoo.max_attempts must be at least 1"))
	}
	if c.Store.Enabled && c.Store.DSN == "" {
		errs = append(errs, errors.New("store.dsn is required when the store is enabled"))
	}
	return errors.Join(errs...)
}

func isSource(s string) bool {
	for _, v := range Sources {
		if s == v {
			return true
		}
	}
	return false
}

// SplitCSV splits a comma-separated list, trimming blanks.
func SplitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
