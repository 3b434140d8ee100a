package detector

import (
	"errors"
	"math"

	"CrossSentinel/internal/model"
)

// ErrInsufficientData signals that the series is too short to evaluate a
// crossover. Callers treat it as a warning, not a failure.
var ErrInsufficientData = errors.New("need at least 2 bars to evaluate a crossover")

// strictlyBetween reports whether v lies strictly between a and b, in either
// order. Equality never counts as crossed; NaN compares false on both sides.
func strictlyBetween(v, a, b float64) bool {
	return (a < v && v < b) || (b < v && v < a)
}

// Detect evaluates the last two bars of the series against the indicator
// value at the last bar and returns at most one CrossoverEvent.
//
// Three independent boundary tests; a crossing is confirmed if any holds:
//   - the prior bar's open/close straddled the indicator level
//   - the last bar's open/close straddled it
//   - it fell inside the gap between prev close and last open
//
// The dedup key is consulted before any evaluation: a key that already fired
// this run is skipped entirely. On detection the key is inserted before the
// event is returned, so at most one event per key per run.
func Detect(series *model.Series, indicator []float64, spec model.IndicatorSpec, cache *Cache) (*model.CrossoverEvent, error) {
	n := len(series.Bars)
	if n < 2 {
		return nil, ErrInsufficientData
	}

	key := Key(series.Symbol, series.Timeframe, spec)
	if cache.Contains(key) {
		return nil, nil
	}

	last := series.Bars[n-1]
	prev := series.Bars[n-2]
	value := indicator[n-1]
	if math.IsNaN(value) {
		// Still inside the warm-up window for this period.
		return nil, nil
	}

	crossedPrev := strictlyBetween(value, prev.Open, prev.Close)
	crossedLast := strictlyBetween(value, last.Open, last.Close)
	crossedGap := strictlyBetween(value, prev.Close, last.Open)

	if !crossedPrev && !crossedLast && !crossedGap {
		return nil, nil
	}

	direction := model.DirectionDown
	if last.Close > value {
		direction = model.DirectionUp
	}

	cache.Insert(key)
	return &model.CrossoverEvent{
		Symbol:     series.Symbol,
		Timeframe:  series.Timeframe,
		Spec:       spec,
		Direction:  direction,
		GapCrossed: crossedGap,
		BarTime:    last.Time,
		Close:      last.Close,
		Indicator:  value,
	}, nil
}
