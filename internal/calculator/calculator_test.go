package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NavSentinel/internal/model"
)

func TestCalculateSMA(t *testing.T) {
	v, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v, 1e-12)

	_, err = CalculateSMA([]float64{1}, 3)
	assert.Error(t, err)
	_, err = CalculateSMA([]float64{1}, 0)
	assert.Error(t, err)
}

func TestCalculateStd(t *testing.T) {
	v, err := CalculateStd([]float64{100, 2, 4, 6}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v, 1e-12)

	_, err = CalculateStd([]float64{1, 2}, 1)
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	s := model.Series{
		model.NewPoint(model.MustParseDate("01-Apr-2024"), 10),
		{Date: model.MustParseDate("02-Apr-2024")},
		model.NewPoint(model.MustParseDate("03-Apr-2024"), 12),
		model.NewPoint(model.MustParseDate("04-Apr-2024"), 14),
	}
	st := Describe(s)
	require.NotNil(t, st.StartDate)
	assert.Equal(t, "01-Apr-2024", st.StartDate.String())
	assert.Equal(t, "04-Apr-2024", st.EndDate.String())
	require.Len(t, st.NullDates, 1)
	assert.Equal(t, "02-Apr-2024", st.NullDates[0].String())
	assert.InDelta(t, 12.0, *st.Average, 1e-12)
	assert.InDelta(t, 2.0, *st.StdDev, 1e-12)
}

func TestDescribe_Empty(t *testing.T) {
	st := Describe(nil)
	assert.Nil(t, st.StartDate)
	assert.Nil(t, st.EndDate)
	assert.Nil(t, st.Average)
	assert.Nil(t, st.StdDev)
	assert.Empty(t, st.NullDates)
}

func TestCorrelation(t *testing.T) {
	r := Correlation([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	require.NotNil(t, r)
	assert.InDelta(t, 1.0, *r, 1e-12)
	assert.LessOrEqual(t, *r, 1.0)

	r = Correlation([]float64{1, 2, 3}, []float64{3, 2, 1})
	require.NotNil(t, r)
	assert.InDelta(t, -1.0, *r, 1e-12)

	assert.Nil(t, Correlation([]float64{1, 1, 1}, []float64{1, 2, 3}))
	assert.Nil(t, Correlation([]float64{1}, []float64{2}))
	assert.Nil(t, Correlation([]float64{1, 2}, []float64{1}))
}

func TestCorrelation_IsFinite(t *testing.T) {
	x := []float64{100, 100.0000001, 100.0000002}
	y := []float64{5, 5.5, 5.25}
	r := Correlation(x, y)
	require.NotNil(t, r)
	assert.False(t, math.IsNaN(*r))
}
