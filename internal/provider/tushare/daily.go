package tushare

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pricehistory/internal/provider"
)

const tradeDateLayout = "20060102"

// TSCode qualifies a bare six-digit code with its exchange suffix.
// Codes that already carry a suffix are returned unchanged.
func TSCode(symbol string) string {
	if strings.Contains(symbol, ".") || len(symbol) != 6 {
		return symbol
	}
	switch {
	case strings.HasPrefix(symbol, "92"):
		return symbol + ".BJ"
	case symbol[0] == '5', symbol[0] == '6', symbol[0] == '9':
		return symbol + ".SH"
	case symbol[0] == '4', symbol[0] == '8':
		return symbol + ".BJ"
	default:
		return symbol + ".SZ"
	}
}

// Fetch returns the daily bars of symbol between start and end, both inclusive.
func (c *Client) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]provider.RawRow, error) {
	params := map[string]string{"ts_code": TSCode(symbol)}
	if !start.IsZero() {
		params["start_date"] = start.Format(tradeDateLayout)
	}
	if !end.IsZero() {
		params["end_date"] = end.Format(tradeDateLayout)
	}
	f, err := c.query(ctx, "daily", params)
	if err != nil {
		return nil, err
	}

	di := f.Column("trade_date")
	if di < 0 {
		if len(f.Items) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("daily response has no trade_date field")
	}
	rows := make([]provider.RawRow, 0, len(f.Items))
	for _, item := range f.Items {
		if di >= len(item) {
			continue
		}
		ts, err := time.Parse(tradeDateLayout, cell(item[di]))
		if err != nil {
			return nil, fmt.Errorf("parsing trade_date: %w", err)
		}
		fields := make(map[string]string, len(f.Fields))
		for i, name := range f.Fields {
			if i == di || i >= len(item) || item[i] == nil {
				continue
			}
			fields[name] = cell(item[i])
		}
		rows = append(rows, provider.RawRow{Timestamp: ts, Fields: fields})
	}
	return rows, nil
}

// StockBasics returns the listing of every domestic stock.
func (c *Client) StockBasics(ctx context.Context) (*Frame, error) {
	return c.query(ctx, "stock_basic", map[string]string{"list_status": "L"})
}
