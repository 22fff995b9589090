package cache

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NavSentinel/internal/apperr"
	"NavSentinel/internal/collector"
	"NavSentinel/internal/metrics"
	"NavSentinel/internal/model"
	"NavSentinel/internal/store"
)

var navKey = collector.Key{FundID: "53", SchemeID: "130771"}

const navID = "53@130771"

// tradingDays builds a weekday-only series starting at start.
func tradingDays(start model.Date, days int) model.Series {
	var s model.Series
	for i := 0; i < days; i++ {
		d := start.AddDays(i)
		if wd := d.Time().Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		s = append(s, model.NewPoint(d, 10+float64(i)/100))
	}
	return s
}

func newFixture(t *testing.T) (*Cache, *collector.MockSource, store.Store, *metrics.Metrics) {
	t.Helper()
	src := collector.NewMockSource()
	src.Set(navKey, tradingDays(model.MustParseDate("01-Jan-2024"), 200))
	st := store.NewMemoryStore()
	m := metrics.New()
	return New(st, m, zerolog.Nop()), src, st, m
}

func d(s string) model.Date { return model.MustParseDate(s) }

func assertAscendingUnique(t *testing.T, s model.Series) {
	t.Helper()
	for i := 1; i < len(s); i++ {
		assert.True(t, s[i-1].Date.Before(s[i].Date), "points %d and %d out of order", i-1, i)
	}
}

func TestGet_SecondCallIsPureHit(t *testing.T) {
	c, src, _, m := newFixture(t)
	ctx := context.Background()

	// 06-Apr-2024 is a Saturday, so the window's edge has no point.
	first, err := c.Get(ctx, navID, src, navKey, d("01-Mar-2024"), d("06-Apr-2024"))
	require.NoError(t, err)
	require.Len(t, src.Calls(), 1)

	src.Reset()
	second, err := c.Get(ctx, navID, src, navKey, d("01-Mar-2024"), d("06-Apr-2024"))
	require.NoError(t, err)
	assert.Empty(t, src.Calls())
	assert.Equal(t, first, second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues(navID, metrics.OutcomeHit)))

	src.Reset()
	_, err = c.Get(ctx, navID, src, navKey, d("10-Mar-2024"), d("20-Mar-2024"))
	require.NoError(t, err)
	assert.Empty(t, src.Calls(), "sub-window must be served from cache")
}

func TestGet_FetchesOnlyMissingEdges(t *testing.T) {
	c, src, st, _ := newFixture(t)
	ctx := context.Background()

	_, err := c.Get(ctx, navID, src, navKey, d("01-Mar-2024"), d("31-Mar-2024"))
	require.NoError(t, err)
	src.Reset()

	got, err := c.Get(ctx, navID, src, navKey, d("15-Feb-2024"), d("15-Apr-2024"))
	require.NoError(t, err)

	calls := src.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "15-Feb-2024", calls[0].From.String())
	assert.Equal(t, "01-Mar-2024", calls[0].To.String())
	assert.Equal(t, "31-Mar-2024", calls[1].From.String())
	assert.Equal(t, "15-Apr-2024", calls[1].To.String())

	assertAscendingUnique(t, got)
	first, last, _ := got.Bounds()
	assert.Equal(t, "15-Feb-2024", first.String())
	assert.Equal(t, "15-Apr-2024", last.String())

	doc, err := st.GetDocument(ctx, navID)
	require.NoError(t, err)
	assert.Equal(t, "15-Feb-2024", doc.CoveredFrom.String())
	assert.Equal(t, "15-Apr-2024", doc.CoveredTo.String())
	assert.Equal(t, int64(3), doc.Version)
}

func TestGet_CardinalityNeverDecreases(t *testing.T) {
	c, src, st, _ := newFixture(t)
	ctx := context.Background()

	windows := [][2]string{
		{"01-Mar-2024", "31-Mar-2024"},
		{"10-Mar-2024", "12-Mar-2024"},
		{"01-Feb-2024", "05-Feb-2024"},
		{"01-Jan-2024", "30-Jun-2024"},
	}
	prev := 0
	for _, w := range windows {
		_, err := c.Get(ctx, navID, src, navKey, d(w[0]), d(w[1]))
		require.NoError(t, err)
		doc, err := st.GetDocument(ctx, navID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(doc.Points), prev)
		assertAscendingUnique(t, doc.Points)
		prev = len(doc.Points)
	}
}

func TestGet_EmptyCacheNoData(t *testing.T) {
	c, src, st, _ := newFixture(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "70@149029", src, collector.Key{FundID: "70", SchemeID: "149029"}, d("01-Mar-2024"), d("31-Mar-2024"))
	assert.ErrorIs(t, err, apperr.ErrSourceUnavailable)

	_, err = st.GetDocument(ctx, "70@149029")
	assert.ErrorIs(t, err, store.ErrDocumentNotFound)
}

func TestGet_EmptyEdgeIsTolerated(t *testing.T) {
	c, src, _, m := newFixture(t)
	ctx := context.Background()

	_, err := c.Get(ctx, navID, src, navKey, d("01-Mar-2024"), d("31-Mar-2024"))
	require.NoError(t, err)

	src.Series = map[string]model.Series{}
	got, err := c.Get(ctx, navID, src, navKey, d("01-Feb-2024"), d("31-Mar-2024"))
	require.NoError(t, err)
	first, _, ok := got.Bounds()
	require.True(t, ok)
	assert.Equal(t, "01-Mar-2024", first.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GapsUnfilled.WithLabelValues(navID)))
}

func TestGet_IndexDayIsStoredOnlyOnceClosed(t *testing.T) {
	bar := func(day int) int64 { return time.Date(2025, time.April, day, 9, 15, 0, 0, model.IST).Unix() }
	var mu sync.Mutex
	body := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprint(w, body)
	}))
	defer srv.Close()
	setBars := func(closes string, days ...int) {
		mu.Lock()
		defer mu.Unlock()
		ts := ""
		for i, day := range days {
			if i > 0 {
				ts += ","
			}
			ts += fmt.Sprint(bar(day))
		}
		body = fmt.Sprintf(`{"chart":{"result":[{"timestamp":[%s],"indicators":{"quote":[{"close":[%s]}]}}]}}`, ts, closes)
	}

	now := time.Date(2025, time.April, 14, 12, 0, 0, 0, model.IST)
	src := collector.NewYahooSource(srv.URL, "", time.Second)
	src.Now = func() time.Time { return now }
	c := New(store.NewMemoryStore(), nil, zerolog.Nop())
	key := collector.Key{Symbol: "NIFTY50"}
	ctx := context.Background()

	// 14-Apr is still trading at 100.
	setBars("90,100", 11, 14)
	got, err := c.Get(ctx, "NIFTY50", src, key, d("10-Apr-2025"), d("14-Apr-2025"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "11-Apr-2025", got[0].Date.String())

	// Next day 14-Apr has closed at 105 and 15-Apr is live.
	now = now.AddDate(0, 0, 1)
	setBars("90,105,106", 11, 14, 15)
	got, err = c.Get(ctx, "NIFTY50", src, key, d("10-Apr-2025"), d("15-Apr-2025"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "14-Apr-2025", got[1].Date.String())
	v, _ := got[1].Float()
	assert.Equal(t, 105.0, v)
}

func TestGet_ConcurrentCallersDoNotLoseMerges(t *testing.T) {
	c, src, st, _ := newFixture(t)
	ctx := context.Background()

	windows := [][2]string{
		{"01-Jan-2024", "31-Jan-2024"},
		{"15-Jan-2024", "29-Feb-2024"},
		{"01-Mar-2024", "31-Mar-2024"},
		{"10-Feb-2024", "20-Apr-2024"},
		{"01-Jan-2024", "30-Apr-2024"},
		{"05-Jan-2024", "06-Jan-2024"},
	}
	var wg sync.WaitGroup
	for _, w := range windows {
		wg.Add(1)
		go func(from, to string) {
			defer wg.Done()
			_, err := c.Get(ctx, navID, src, navKey, d(from), d(to))
			assert.NoError(t, err)
		}(w[0], w[1])
	}
	wg.Wait()

	doc, err := st.GetDocument(ctx, navID)
	require.NoError(t, err)
	assertAscendingUnique(t, doc.Points)
	want := tradingDays(d("01-Jan-2024"), 200).Between(d("01-Jan-2024"), d("30-Apr-2024"))
	assert.Len(t, doc.Points, len(want))
}

// racingStore simulates a second process writing between our read and our
// replace, once.
type racingStore struct {
	store.Store
	once sync.Once
	race func()
}

func (r *racingStore) ReplaceDocument(ctx context.Context, doc *model.SeriesDocument, expected int64) error {
	r.once.Do(r.race)
	return r.Store.ReplaceDocument(ctx, doc, expected)
}

func TestGet_RetriesOnVersionConflict(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	foreign := model.NewPoint(d("01-Jan-2020"), 1)
	rs := &racingStore{Store: mem, race: func() {
		other := &model.SeriesDocument{ID: navID, Points: model.Series{foreign}}
		other.Widen(d("01-Jan-2020"), d("01-Jan-2020"))
		require.NoError(t, mem.ReplaceDocument(ctx, other, 0))
	}}
	src := collector.NewMockSource()
	src.Set(navKey, tradingDays(d("01-Mar-2024"), 31))

	c := New(rs, nil, zerolog.Nop())
	got, err := c.Get(ctx, navID, src, navKey, d("01-Mar-2024"), d("31-Mar-2024"))
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	doc, err := mem.GetDocument(ctx, navID)
	require.NoError(t, err)
	assert.Equal(t, "01-Jan-2020", doc.Points[0].Date.String(), "foreign write must survive")
	assert.Equal(t, int64(2), doc.Version)
	assert.Equal(t, "01-Jan-2020", doc.CoveredTo.String(), "disjoint window must not be claimed")
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("a")
	unlock()
	assert.Empty(t, k.locks)
}
