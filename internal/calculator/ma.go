// Package calculator holds the pure numeric helpers shared by the compare
// and forecast engines.
package calculator

import (
	"errors"
	"math"

	"NavSentinel/internal/model"
)

// CalculateSMA computes the simple moving average of the last period values.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// CalculateStd computes the sample standard deviation (n-1 denominator) of
// the last period values.
func CalculateStd(values []float64, period int) (float64, error) {
	if period < 2 {
		return 0, errors.New("period must be at least 2")
	}
	mean, err := CalculateSMA(values, period)
	if err != nil {
		return 0, err
	}
	ss := 0.0
	for i := len(values) - period; i < len(values); i++ {
		dev := values[i] - mean
		ss += dev * dev
	}
	return math.Sqrt(ss / float64(period-1)), nil
}

// ExtractValues returns the present values of s in order, skipping missing
// points.
func ExtractValues(s model.Series) []float64 {
	out := make([]float64, 0, len(s))
	for _, p := range s {
		if v, ok := p.Float(); ok {
			out = append(out, v)
		}
	}
	return out
}
