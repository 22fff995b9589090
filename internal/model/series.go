package model

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Point is one observation of a series. Value is invalid when the source
// reported something that is not a number.
type Point struct {
	Date  Date                `json:"date"`
	Value decimal.NullDecimal `json:"value"`
}

// NewPoint builds a point with a known value.
func NewPoint(d Date, v float64) Point {
	return Point{Date: d, Value: decimal.NewNullDecimal(decimal.NewFromFloat(v))}
}

// Float returns the value as float64 and whether it is present.
func (p Point) Float() (float64, bool) {
	if !p.Value.Valid {
		return 0, false
	}
	return p.Value.Decimal.InexactFloat64(), true
}

// ParseValue coerces raw source text into a decimal. Thousands separators are
// tolerated; anything else unparsable yields a missing value.
func ParseValue(raw string) decimal.NullDecimal {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Series is an ordered sequence of points with unique dates.
type Series []Point

// SortByDate orders the series ascending in place.
func (s Series) SortByDate() {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}

// Between returns the points with from <= date <= to. A misordered range
// yields an empty slice.
func (s Series) Between(from, to Date) Series {
	out := make(Series, 0, len(s))
	for _, p := range s {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Bounds returns the first and last dates of an ascending series.
func (s Series) Bounds() (first, last Date, ok bool) {
	if len(s) == 0 {
		return Date{}, Date{}, false
	}
	return s[0].Date, s[len(s)-1].Date, true
}

// Index maps the date string to the point.
func (s Series) Index() map[string]Point {
	m := make(map[string]Point, len(s))
	for _, p := range s {
		m[p.Date.String()] = p
	}
	return m
}
