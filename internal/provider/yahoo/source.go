package yahoo

import (
	"log/slog"

	"pricehistory/internal/provider"
	"pricehistory/internal/series"
)

// Schema keeps the adjusted prices derived from the chart response.
var Schema = series.Schema{
	Rename: map[string]string{
		colAdjOpen:  series.ColAdjOpen,
		colAdjHigh:  series.ColAdjHigh,
		colAdjLow:   series.ColAdjLow,
		colAdjClose: series.ColAdjClose,
	},
	Drop: []string{colOpen, colHigh, colLow, colClose, colVolume, colAdjVolume},
}

// NewSource builds the quote-provider adapter. f is expected to already be
// wrapped in retry.Fetcher.
func NewSource(f provider.Fetcher, logger *slog.Logger) provider.Source {
	return provider.Source{Fetcher: f, Schema: Schema, Window: provider.ProviderRange, Logger: logger}
}
