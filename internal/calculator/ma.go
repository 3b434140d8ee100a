package calculator

import (
	"errors"
	"fmt"
	"math"

	"CrossSentinel/internal/model"
)

// Indicator values are aligned index-for-index with the input closes.
// math.NaN marks indices where the value is undefined (SMA warm-up).

// SMASeries computes the rolling simple moving average over the closes.
// The first period-1 indices are NaN: a plain rolling mean needs a full
// window before it is defined.
func SMASeries(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := make([]float64, len(closes))
	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i < period-1 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(period)
		}
	}
	return out, nil
}

// EMASeries computes the exponential moving average with smoothing factor
// alpha = 2/(period+1), seeded from the first close. Defined at every index.
func EMASeries(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := make([]float64, len(closes))
	if len(closes) == 0 {
		return out, nil
	}
	alpha := 2.0 / float64(period+1)
	out[0] = closes[0]
	for i := 1; i < len(closes); i++ {
		out[i] = alpha*closes[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}

// Compute dispatches to the series function for the spec's kind.
func Compute(closes []float64, spec model.IndicatorSpec) ([]float64, error) {
	switch spec.Kind {
	case model.IndicatorSMA:
		return SMASeries(closes, spec.Period)
	case model.IndicatorEMA:
		return EMASeries(closes, spec.Period)
	default:
		return nil, fmt.Errorf("unsupported indicator kind %q", spec.Kind)
	}
}
