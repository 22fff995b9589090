package forecast

import (
	"NavSentinel/internal/model"
)

// daily is a gap-free series with one value per calendar day from start.
type daily struct {
	start  model.Date
	values []float64
}

func (d daily) last() model.Date { return d.start.AddDays(len(d.values) - 1) }

// clean sorts s, fills interior missing values by linear interpolation over
// position, drops leading and trailing missing values, then reindexes to
// calendar days carrying the last value forward over absent days.
func clean(s model.Series) daily {
	sorted := append(model.Series(nil), s...)
	sorted.SortByDate()

	vals := make([]float64, len(sorted))
	present := make([]bool, len(sorted))
	for i, p := range sorted {
		vals[i], present[i] = p.Float()
	}
	interpolate(vals, present)

	var dates []model.Date
	var kept []float64
	for i, p := range sorted {
		if !present[i] {
			continue
		}
		if len(dates) > 0 && p.Date.Equal(dates[len(dates)-1]) {
			kept[len(kept)-1] = vals[i]
			continue
		}
		dates = append(dates, p.Date)
		kept = append(kept, vals[i])
	}
	if len(dates) == 0 {
		return daily{}
	}

	out := daily{start: dates[0], values: make([]float64, 0, dates[0].DaysUntil(dates[len(dates)-1])+1)}
	for i, d := range dates {
		if i > 0 {
			gap := dates[i-1].DaysUntil(d)
			for k := 1; k < gap; k++ {
				out.values = append(out.values, kept[i-1])
			}
		}
		out.values = append(out.values, kept[i])
	}
	return out
}

// interpolate fills missing entries lying between two present ones and
// marks them present. Edge runs stay missing.
func interpolate(vals []float64, present []bool) {
	prev := -1
	for i := range vals {
		if !present[i] {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			step := (vals[i] - vals[prev]) / float64(i-prev)
			for k := prev + 1; k < i; k++ {
				vals[k] = vals[prev] + step*float64(k-prev)
				present[k] = true
			}
		}
		prev = i
	}
}
