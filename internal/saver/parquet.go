package saver

import (
	"github.com/parquet-go/parquet-go"

	"pricehistory/internal/series"
)

// parquetRow is the on-disk layout. Prices are stored as doubles.
type parquetRow struct {
	Timestamp string  `parquet:"timestamp"`
	ID        string  `parquet:"id"`
	AdjOpen   float64 `parquet:"adj_open"`
	AdjHigh   float64 `parquet:"adj_high"`
	AdjLow    float64 `parquet:"adj_low"`
	AdjClose  float64 `parquet:"adj_close"`
}

// ParquetSaver writes tables as Parquet.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(t *series.Table, path string) error {
	rows := make([]parquetRow, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = parquetRow{
			Timestamp: r.Timestamp.Format(series.DateLayout),
			ID:        r.ID,
			AdjOpen:   r.AdjOpen.InexactFloat64(),
			AdjHigh:   r.AdjHigh.InexactFloat64(),
			AdjLow:    r.AdjLow.InexactFloat64(),
			AdjClose:  r.AdjClose.InexactFloat64(),
		}
	}
	return parquet.WriteFile(path, rows)
}
