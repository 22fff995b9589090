package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"NavSentinel/internal/model"
)

// Describe summarises a series: first and last date, the dates whose value
// is missing, and the mean and sample standard deviation of the present
// values. Fields that cannot be computed are nil.
func Describe(s model.Series) model.SeriesStats {
	stats := model.SeriesStats{NullDates: []model.Date{}}
	if first, last, ok := s.Bounds(); ok {
		stats.StartDate, stats.EndDate = &first, &last
	}
	for _, p := range s {
		if !p.Value.Valid {
			stats.NullDates = append(stats.NullDates, p.Date)
		}
	}

	values := ExtractValues(s)
	switch len(values) {
	case 0:
	case 1:
		stats.Average = &values[0]
	default:
		mean, std := stat.MeanStdDev(values, nil)
		stats.Average, stats.StdDev = &mean, &std
	}
	return stats
}

// Correlation returns the Pearson coefficient of x and y clamped to [-1, 1],
// or nil when it is undefined (fewer than two pairs or a constant column).
func Correlation(x, y []float64) *float64 {
	if len(x) != len(y) || len(x) < 2 {
		return nil
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return nil
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return nil
	}
	r = math.Max(-1, math.Min(1, r))
	return &r
}
