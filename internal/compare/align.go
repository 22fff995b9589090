// Package compare aligns a fund's NAV series with an index series.
package compare

import (
	"fmt"

	"NavSentinel/internal/apperr"
	"NavSentinel/internal/calculator"
	"NavSentinel/internal/model"
)

// Align inner-joins nav and index on date, rebases both columns to 100 at
// the first shared date and correlates the raw values. Rows missing a value
// on either side are skipped. corr is nil when it is undefined.
func Align(nav, index model.Series) (rows []model.AlignedPoint, corr *float64, err error) {
	byDate := index.Index()
	for _, p := range nav {
		nv, ok := p.Float()
		if !ok {
			continue
		}
		q, ok := byDate[p.Date.String()]
		if !ok {
			continue
		}
		iv, ok := q.Float()
		if !ok {
			continue
		}
		rows = append(rows, model.AlignedPoint{Date: p.Date, NAV: nv, Index: iv})
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%d nav and %d index points: %w", len(nav), len(index), apperr.ErrNoOverlap)
	}

	navBase, idxBase := rows[0].NAV, rows[0].Index
	navs := make([]float64, len(rows))
	idxs := make([]float64, len(rows))
	for i := range rows {
		rows[i].NAVNormalized = rebase(rows[i].NAV, navBase)
		rows[i].IndexNormalized = rebase(rows[i].Index, idxBase)
		navs[i], idxs[i] = rows[i].NAV, rows[i].Index
	}
	return rows, calculator.Correlation(navs, idxs), nil
}

// rebase expresses v relative to base = 100. A zero base leaves the column
// at zero rather than producing infinities.
func rebase(v, base float64) float64 {
	if base == 0 {
		return 0
	}
	return v / base * 100
}
