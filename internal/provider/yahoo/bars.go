package yahoo

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"pricehistory/internal/provider"
)

// Raw and adjusted column names, matching the legacy CSV download.
const (
	colOpen        = "Open"
	colHigh        = "High"
	colLow         = "Low"
	colClose       = "Close"
	colVolume      = "Volume"
	colAdjOpen     = "Adj. Open"
	colAdjHigh     = "Adj. High"
	colAdjLow      = "Adj. Low"
	colAdjClose    = "Adj. Close"
	colAdjVolume   = "Adj. Volume"
	adjustedPlaces = 6
)

// bars converts a chart result into raw rows. The chart only carries an
// adjusted close, so open, high and low are scaled by adjclose/close and
// volume by the inverse. Bars with a missing price are skipped.
func bars(r chartResult) ([]provider.RawRow, error) {
	if len(r.Indicators.Quote) == 0 {
		return nil, nil
	}
	q := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}
	n := len(r.Timestamp)
	for _, s := range [][]*float64{q.Open, q.High, q.Low, q.Close} {
		if len(s) != n {
			return nil, fmt.Errorf("chart %s: %d timestamps but %d prices", r.Meta.Symbol, n, len(s))
		}
	}

	rows := make([]provider.RawRow, 0, n)
	for i, sec := range r.Timestamp {
		open, high, low, cl := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i)
		if open == nil || high == nil || low == nil || cl == nil || *cl == 0 {
			continue
		}
		closeD := decimal.NewFromFloat(*cl)
		adjClose := closeD
		if a := at(adj, i); a != nil {
			adjClose = decimal.NewFromFloat(*a)
		}
		factor := adjClose.DivRound(closeD, 16)
		scale := func(v float64) string {
			return decimal.NewFromFloat(v).Mul(factor).Round(adjustedPlaces).String()
		}

		fields := map[string]string{
			colOpen:     strconv.FormatFloat(*open, 'f', -1, 64),
			colHigh:     strconv.FormatFloat(*high, 'f', -1, 64),
			colLow:      strconv.FormatFloat(*low, 'f', -1, 64),
			colClose:    closeD.String(),
			colAdjOpen:  scale(*open),
			colAdjHigh:  scale(*high),
			colAdjLow:   scale(*low),
			colAdjClose: adjClose.String(),
		}
		if v := at(q.Volume, i); v != nil {
			fields[colVolume] = strconv.FormatFloat(*v, 'f', -1, 64)
			if !factor.IsZero() {
				fields[colAdjVolume] = decimal.NewFromFloat(*v).DivRound(factor, 0).String()
			}
		}

		// Daily bars are stamped at the exchange open; shift to exchange
		// local time before taking the date.
		ts := time.Unix(sec+r.Meta.GMTOffset, 0).UTC()
		rows = append(rows, provider.RawRow{Timestamp: ts, Fields: fields})
	}
	return rows, nil
}

func at(s []*float64, i int) *float64 {
	if i < len(s) {
		return s[i]
	}
	return nil
}
