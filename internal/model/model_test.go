package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("13-Apr-2024")
	require.NoError(t, err)
	assert.Equal(t, "13-Apr-2024", d.String())

	_, err = ParseDate("2024-04-13")
	assert.Error(t, err)
	_, err = ParseDate("31-Feb-2024")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	p := NewPoint(MustParseDate("02-Jan-2024"), 10.5)
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"02-Jan-2024","value":"10.5"}`, string(b))

	var back Point
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Date.Equal(p.Date))
	v, ok := back.Float()
	assert.True(t, ok)
	assert.InDelta(t, 10.5, v, 1e-12)

	require.NoError(t, json.Unmarshal([]byte(`{"date":"03-Jan-2024","value":null}`), &back))
	_, ok = back.Float()
	assert.False(t, ok)
}

func TestParseValue(t *testing.T) {
	assert.True(t, ParseValue("1,234.5678").Valid)
	assert.Equal(t, "1234.5678", ParseValue("1,234.5678").Decimal.String())
	assert.False(t, ParseValue("N.A.").Valid)
	assert.False(t, ParseValue("  ").Valid)
}

func TestDocumentMerge(t *testing.T) {
	d1, d2, d3, d4 := MustParseDate("01-Jan-2024"), MustParseDate("02-Jan-2024"), MustParseDate("03-Jan-2024"), MustParseDate("04-Jan-2024")
	doc := &SeriesDocument{Points: Series{NewPoint(d2, 2), NewPoint(d3, 3), NewPoint(d4, 4)}}

	added := doc.Merge([]Point{NewPoint(d3, 99), NewPoint(d1, 1), NewPoint(d2, 99)})

	assert.Equal(t, 1, added)
	require.Len(t, doc.Points, 4)
	for i, want := range []Date{d1, d2, d3, d4} {
		assert.True(t, doc.Points[i].Date.Equal(want), "index %d", i)
	}
	v, _ := doc.Points[2].Float()
	assert.Equal(t, 3.0, v, "stored value must not be overwritten")
}

func TestDocumentCovers(t *testing.T) {
	doc := &SeriesDocument{}
	assert.False(t, doc.Covers(MustParseDate("01-Jan-2024"), MustParseDate("02-Jan-2024")))

	doc.Widen(MustParseDate("05-Jan-2024"), MustParseDate("10-Jan-2024"))
	doc.Widen(MustParseDate("01-Jan-2024"), MustParseDate("05-Jan-2024"))
	assert.True(t, doc.Covers(MustParseDate("01-Jan-2024"), MustParseDate("10-Jan-2024")))
	assert.False(t, doc.Covers(MustParseDate("01-Jan-2024"), MustParseDate("11-Jan-2024")))
}

func TestSeriesBetween(t *testing.T) {
	s := Series{
		NewPoint(MustParseDate("01-Jan-2024"), 1),
		NewPoint(MustParseDate("02-Jan-2024"), 2),
		NewPoint(MustParseDate("03-Jan-2024"), 3),
	}
	assert.Len(t, s.Between(MustParseDate("02-Jan-2024"), MustParseDate("03-Jan-2024")), 2)
	assert.Empty(t, s.Between(MustParseDate("03-Jan-2024"), MustParseDate("01-Jan-2024")))
}
