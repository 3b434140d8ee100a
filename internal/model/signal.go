package model

import (
	"fmt"
	"strings"
	"time"
)

// IndicatorKind selects the moving-average variant.
type IndicatorKind string

const (
	IndicatorSMA IndicatorKind = "SMA"
	IndicatorEMA IndicatorKind = "EMA"
)

// ParseIndicatorKind maps a config value to an IndicatorKind.
// An empty string defaults to SMA.
func ParseIndicatorKind(s string) (IndicatorKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "SMA", "SIMPLE":
		return IndicatorSMA, nil
	case "EMA", "EXPONENTIAL":
		return IndicatorEMA, nil
	default:
		return "", fmt.Errorf("unknown indicator kind %q", s)
	}
}

// IndicatorSpec identifies one configured alert line's moving average.
type IndicatorSpec struct {
	Kind   IndicatorKind
	Period int
}

// Label renders the spec as it appears in alerts and dedup keys, e.g. "SMA20".
func (s IndicatorSpec) Label() string {
	return fmt.Sprintf("%s%d", s.Kind, s.Period)
}

// Direction classifies which side of the indicator the close ended on.
type Direction string

const (
	DirectionUp   Direction = "Bullish"
	DirectionDown Direction = "Bearish"
)

// CrossoverEvent is emitted when price crossed the indicator level within
// the last two bars. Immutable once created.
type CrossoverEvent struct {
	Symbol     string
	Timeframe  int // minutes
	Spec       IndicatorSpec
	Direction  Direction
	GapCrossed bool
	BarTime    time.Time // reference (last) bar, already in local time
	Close      float64   // close of the reference bar
	Indicator  float64   // indicator value at the reference bar
}
