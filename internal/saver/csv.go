package saver

import (
	"encoding/csv"
	"fmt"
	"os"

	"pricehistory/internal/series"
)

// CSVSaver writes the canonical columns with a header line.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(t *series.Table, path string) error {
	records := make([][]string, 0, t.Len()+1)
	records = append(records, series.Columns)
	for _, r := range t.Rows {
		records = append(records, []string{
			r.Timestamp.Format(series.DateLayout),
			r.ID,
			r.AdjOpen.String(),
			r.AdjHigh.String(),
			r.AdjLow.String(),
			r.AdjClose.String(),
		})
	}
	return WriteRecords(path, records)
}

// WriteRecords writes records as CSV to path, replacing any existing file.
func WriteRecords(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadTable loads a table written by CSVSaver.
func ReadTable(symbol, path string) (*series.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: no header", path)
	}
	raw := make([]series.RawRow, 0, len(records)-1)
	header := records[0]
	for _, rec := range records[1:] {
		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(rec) {
				fields[name] = rec[i]
			}
		}
		ts, err := series.ParseDate(fields[series.ColTimestamp])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		raw = append(raw, series.RawRow{Timestamp: ts, Fields: fields})
	}
	t, _, err := series.Schema{}.Normalize(symbol, raw)
	return t, err
}
