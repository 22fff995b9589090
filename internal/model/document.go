package model

import "time"

// SeriesDocument is the persisted form of one cached series. Points are
// ascending and unique by date; CoveredFrom/CoveredTo is the contiguous
// window that has been fetched successfully.
type SeriesDocument struct {
	ID          string    `json:"id"`
	Points      Series    `json:"points"`
	CoveredFrom Date      `json:"covered_from"`
	CoveredTo   Date      `json:"covered_to"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Covers reports whether [from, to] lies inside the fetched window.
func (d *SeriesDocument) Covers(from, to Date) bool {
	if d == nil || d.CoveredFrom.IsZero() {
		return false
	}
	return !d.CoveredFrom.After(from) && !d.CoveredTo.Before(to)
}

// Merge appends the points whose date is not yet stored, re-sorts, and
// returns how many were added. Existing values are never overwritten.
func (d *SeriesDocument) Merge(incoming []Point) int {
	seen := make(map[string]struct{}, len(d.Points))
	for _, p := range d.Points {
		seen[p.Date.String()] = struct{}{}
	}
	added := 0
	for _, p := range incoming {
		key := p.Date.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		d.Points = append(d.Points, p)
		added++
	}
	d.Points.SortByDate()
	return added
}

// Widen extends the covered window to include [from, to].
func (d *SeriesDocument) Widen(from, to Date) {
	if d.CoveredFrom.IsZero() || from.Before(d.CoveredFrom) {
		d.CoveredFrom = from
	}
	if d.CoveredTo.IsZero() || to.After(d.CoveredTo) {
		d.CoveredTo = to
	}
}
