package saver

import (
	"encoding/json"
	"os"

	"github.com/shopspring/decimal"

	"pricehistory/internal/series"
)

type jsonRow struct {
	Timestamp string          `json:"timestamp"`
	ID        string          `json:"id"`
	AdjOpen   decimal.Decimal `json:"adj_open"`
	AdjHigh   decimal.Decimal `json:"adj_high"`
	AdjLow    decimal.Decimal `json:"adj_low"`
	AdjClose  decimal.Decimal `json:"adj_close"`
}

// JSONSaver writes tables as an indented JSON array of records.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(t *series.Table, path string) error {
	rows := make([]jsonRow, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = jsonRow{
			Timestamp: r.Timestamp.Format(series.DateLayout),
			ID:        r.ID,
			AdjOpen:   r.AdjOpen,
			AdjHigh:   r.AdjHigh,
			AdjLow:    r.AdjLow,
			AdjClose:  r.AdjClose,
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
