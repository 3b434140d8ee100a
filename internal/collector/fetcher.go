package collector

import "CrossSentinel/internal/model"

// Fetcher defines the interface for fetching candle history.
// Bars are returned ascending by time, in the provider's local rendering
// of the configured timezone.
type Fetcher interface {
	FetchBars(symbol string, resolutionMin, count int) ([]model.OHLCV, error)
	Name() string
}
