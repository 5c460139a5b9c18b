package align

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"pricehistory/internal/series"
)

// ErrMissingSymbol means a configured symbol has no table in the collection,
// usually because alignment ran before the symbol was fetched.
var ErrMissingSymbol = errors.New("symbol missing from collection")

// Common returns the timestamps present in every listed symbol's table,
// sorted ascending.
// The first symbol seeds the candidate set; each further symbol narrows it.
func Common(symbols []string, c series.Collection) ([]time.Time, error) {
	keys, err := intersect(symbols, c)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(keys))
	for k := range keys {
		out = append(out, time.Unix(k, 0).UTC())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// Align trims every listed symbol's table to the common timestamps and
// sorts it ascending. The collection is modified in place. An empty
// intersection leaves every table empty and is not an error.
func Align(symbols []string, c series.Collection) error {
	keys, err := intersect(symbols, c)
	if err != nil {
		return err
	}
	for _, s := range symbols {
		t := c[s]
		kept := make([]series.Row, 0, len(keys))
		for _, r := range t.Rows {
			if _, ok := keys[series.Key(r.Timestamp)]; ok {
				kept = append(kept, r)
			}
		}
		t.Rows = kept
		t.Sort()
	}
	return nil
}

func intersect(symbols []string, c series.Collection) (map[int64]struct{}, error) {
	for _, s := range symbols {
		if t, ok := c[s]; !ok || t == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingSymbol, s)
		}
	}
	if len(symbols) == 0 {
		return map[int64]struct{}{}, nil
	}

	common := c[symbols[0]].Keys()
	for _, s := range symbols[1:] {
		other := c[s].Keys()
		for k := range common {
			if _, ok := other[k]; !ok {
				delete(common, k)
			}
		}
	}
	return common, nil
}
