package series

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMissingColumn is returned when a raw row lacks a canonical price column
// after renaming.
var ErrMissingColumn = errors.New("missing column")

// RawRow is a provider-native record. Fields is keyed by the provider's own
// column names and holds values in the provider's textual form.
type RawRow struct {
	Timestamp time.Time
	Fields    map[string]string
}

// Schema maps one provider's columns onto the canonical ones.
type Schema struct {
	// Rename maps provider column -> canonical column.
	Rename map[string]string
	// Drop lists provider columns discarded before renaming.
	Drop []string
}

// Normalize turns raw rows into a sorted table for symbol. It returns the
// provider columns that were neither renamed nor dropped; those are ignored.
// When two rows share a day the later one wins.
func (s Schema) Normalize(symbol string, raw []RawRow) (*Table, []string, error) {
	drop := make(map[string]struct{}, len(s.Drop))
	for _, c := range s.Drop {
		drop[c] = struct{}{}
	}

	ignored := map[string]struct{}{}
	byDay := make(map[int64]int, len(raw))
	rows := make([]Row, 0, len(raw))

	for _, rr := range raw {
		cols := make(map[string]string, len(s.Rename))
		for name, v := range rr.Fields {
			if _, ok := drop[name]; ok {
				continue
			}
			if canon, ok := s.Rename[name]; ok {
				name = canon
			}
			if !isPriceColumn(name) {
				ignored[name] = struct{}{}
				continue
			}
			cols[name] = v
		}

		row, err := buildRow(symbol, rr.Timestamp, cols)
		if err != nil {
			return nil, nil, err
		}
		k := Key(row.Timestamp)
		if i, dup := byDay[k]; dup {
			rows[i] = row
			continue
		}
		byDay[k] = len(rows)
		rows = append(rows, row)
	}

	t := &Table{Symbol: symbol, Rows: rows}
	t.Sort()

	extra := make([]string, 0, len(ignored))
	for c := range ignored {
		if c == ColTimestamp || c == ColID {
			continue
		}
		extra = append(extra, c)
	}
	sort.Strings(extra)
	return t, extra, nil
}

func buildRow(symbol string, ts time.Time, cols map[string]string) (Row, error) {
	vals := make([]decimal.Decimal, len(PriceColumns))
	for i, c := range PriceColumns {
		v, ok := cols[c]
		if !ok {
			return Row{}, fmt.Errorf("%w %s for %s on %s", ErrMissingColumn, c, symbol, ts.Format(DateLayout))
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Row{}, fmt.Errorf("parse %s %q for %s on %s: %w", c, v, symbol, ts.Format(DateLayout), err)
		}
		vals[i] = d
	}
	return Row{
		Timestamp: Day(ts),
		ID:        symbol,
		AdjOpen:   vals[0],
		AdjHigh:   vals[1],
		AdjLow:    vals[2],
		AdjClose:  vals[3],
	}, nil
}

func isPriceColumn(c string) bool {
	for _, p := range PriceColumns {
		if c == p {
			return true
		}
	}
	return false
}

// Filter keeps only rows whose timestamp falls inside w.
func Filter(raw []RawRow, w Window) []RawRow {
	out := make([]RawRow, 0, len(raw))
	for _, r := range raw {
		if w.Contains(r.Timestamp) {
			out = append(out, r)
		}
	}
	return out
}
