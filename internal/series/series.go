package series

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical column names shared by every provider after normalization.
const (
	ColTimestamp = "timestamp"
	ColID        = "id"
	ColAdjOpen   = "adj_open"
	ColAdjHigh   = "adj_high"
	ColAdjLow    = "adj_low"
	ColAdjClose  = "adj_close"
)

// Columns is the persisted column order.
var Columns = []string{ColTimestamp, ColID, ColAdjOpen, ColAdjHigh, ColAdjLow, ColAdjClose}

// PriceColumns are the value columns every provider must supply.
var PriceColumns = []string{ColAdjOpen, ColAdjHigh, ColAdjLow, ColAdjClose}

// DateLayout is the on-disk timestamp format.
const DateLayout = time.DateOnly

// Row is one normalized daily bar for a symbol.
type Row struct {
	Timestamp time.Time
	ID        string
	AdjOpen   decimal.Decimal
	AdjHigh   decimal.Decimal
	AdjLow    decimal.Decimal
	AdjClose  decimal.Decimal
}

// Table is the ordered series of rows for one symbol.
// Timestamps are unique and ascending once built by Normalize.
type Table struct {
	Symbol string
	Rows   []Row
}

// Collection maps a symbol to its table for the duration of one run.
type Collection map[string]*Table

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Sort orders rows ascending by timestamp.
func (t *Table) Sort() {
	sort.SliceStable(t.Rows, func(i, j int) bool { return t.Rows[i].Timestamp.Before(t.Rows[j].Timestamp) })
}

// Keys returns the set of timestamp keys in the table.
func (t *Table) Keys() map[int64]struct{} {
	keys := make(map[int64]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		keys[Key(r.Timestamp)] = struct{}{}
	}
	return keys
}

// Timestamps returns the row timestamps in table order.
func (t *Table) Timestamps() []time.Time {
	out := make([]time.Time, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Timestamp
	}
	return out
}

// Day truncates t to its calendar date at UTC midnight, dropping any
// monotonic reading and zone so equal dates compare equal.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Key is the map key used for timestamp set operations.
func Key(t time.Time) int64 { return Day(t).Unix() }

// ParseDate parses a YYYY-MM-DD string as a UTC day.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
