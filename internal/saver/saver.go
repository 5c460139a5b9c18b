package saver

import (
	"fmt"
	"os"
	"strings"

	"pricehistory/internal/series"
)

// TableSaver persists one symbol table to a file.
type TableSaver interface {
	Save(t *series.Table, path string) error
	Extension() string
}

// New returns the saver for format (csv, parquet, json). Empty means csv.
func New(format string) (TableSaver, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return CSVSaver{}, nil
	case "parquet":
		return ParquetSaver{}, nil
	case "json":
		return JSONSaver{}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q (use: csv, parquet, json)", format)
	}
}

// EnsureDir creates path and any parents. Existing directories are fine.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}
