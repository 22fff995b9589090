package forecast

import (
	"NavSentinel/internal/calculator"
)

// featureWindow is how many preceding values one feature row needs.
const featureWindow = 3

// featureRow is lag1, lag2, lag3, then the mean and sample std of those
// three preceding values.
func featureRow(window []float64) ([]float64, bool) {
	if len(window) < featureWindow {
		return nil, false
	}
	w := window[len(window)-featureWindow:]
	mean, err := calculator.CalculateSMA(w, featureWindow)
	if err != nil {
		return nil, false
	}
	std, err := calculator.CalculateStd(w, featureWindow)
	if err != nil {
		return nil, false
	}
	return []float64{w[2], w[1], w[0], mean, std}, true
}

// buildFeatures derives a feature row for every position of values that has
// a full window behind it. rows holds the matching positions.
func buildFeatures(values []float64) (x [][]float64, rows []int) {
	for i := featureWindow; i < len(values); i++ {
		f, ok := featureRow(values[i-featureWindow : i])
		if !ok {
			continue
		}
		x = append(x, f)
		rows = append(rows, i)
	}
	return x, rows
}
