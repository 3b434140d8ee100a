package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series holds the fetched bar history for one (symbol, timeframe) pair.
// Bars are strictly ascending by Time.
type Series struct {
	Symbol    string
	Timeframe int // minutes
	Bars      []OHLCV
	FetchedAt time.Time
}

// Closes extracts the closing prices in bar order.
func (s *Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}
