package tushare

import (
	"log/slog"

	"pricehistory/internal/provider"
	"pricehistory/internal/series"
)

// Schema maps daily bars onto the canonical columns. The moving-average and
// change columns come from the legacy hist_data endpoint and are dropped too.
var Schema = series.Schema{
	Rename: map[string]string{
		"open":  series.ColAdjOpen,
		"high":  series.ColAdjHigh,
		"low":   series.ColAdjLow,
		"close": series.ColAdjClose,
	},
	Drop: []string{
		"volume", "price_change", "p_change",
		"ma5", "ma10", "ma20", "v_ma5", "v_ma10", "v_ma20", "turnover",
		"ts_code", "pre_close", "change", "pct_chg", "vol", "amount",
	},
}

// NewSource builds the adapter around f, which is usually a *Client,
// possibly wrapped in rate limiting.
func NewSource(f provider.Fetcher, logger *slog.Logger) provider.Source {
	return provider.Source{Fetcher: f, Schema: Schema, Window: provider.FilterExclusiveStart, Logger: logger}
}
