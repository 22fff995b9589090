// Package cache serves series windows from the persisted store, fetching
// only the edges that have not been covered yet.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"NavSentinel/internal/apperr"
	"NavSentinel/internal/collector"
	"NavSentinel/internal/metrics"
	"NavSentinel/internal/model"
	"NavSentinel/internal/store"
)

const maxMergeAttempts = 5

// Cache is the gap-filling front of a Store.
type Cache struct {
	store   store.Store
	metrics *metrics.Metrics
	log     zerolog.Logger
	locks   *keyedMutex
}

// New creates a Cache. m may be nil.
func New(s store.Store, m *metrics.Metrics, log zerolog.Logger) *Cache {
	return &Cache{store: s, metrics: m, log: log, locks: newKeyedMutex()}
}

// Get returns the cached points of id inside [from, to], fetching missing
// edges from src first. A second call with the same window performs no fetch.
func (c *Cache) Get(ctx context.Context, id string, src collector.Source, key collector.Key, from, to model.Date) (model.Series, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	doc, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc.Covers(from, to) {
		c.metrics.CacheOutcome(id, metrics.OutcomeHit)
		return doc.Points.Between(from, to), nil
	}

	if doc.CoveredFrom.IsZero() {
		c.metrics.CacheOutcome(id, metrics.OutcomeMiss)
		points := c.fetch(ctx, src, key, from, to)
		if len(points) == 0 {
			return nil, fmt.Errorf("%s %s..%s: %w", id, from, to, apperr.ErrSourceUnavailable)
		}
		if doc, err = c.merge(ctx, doc, points, from, to); err != nil {
			return nil, err
		}
		return doc.Points.Between(from, to), nil
	}

	c.metrics.CacheOutcome(id, metrics.OutcomePartial)
	if from.Before(doc.CoveredFrom) {
		if doc, err = c.fillEdge(ctx, doc, src, key, from, doc.CoveredFrom); err != nil {
			return nil, err
		}
	}
	if to.After(doc.CoveredTo) {
		if doc, err = c.fillEdge(ctx, doc, src, key, doc.CoveredTo, to); err != nil {
			return nil, err
		}
	}
	return doc.Points.Between(from, to), nil
}

// fillEdge fetches one uncovered edge. An empty result leaves the gap open
// and is only logged.
func (c *Cache) fillEdge(ctx context.Context, doc *model.SeriesDocument, src collector.Source, key collector.Key, from, to model.Date) (*model.SeriesDocument, error) {
	points := c.fetch(ctx, src, key, from, to)
	if len(points) == 0 {
		c.metrics.GapUnfilled(doc.ID)
		c.log.Warn().Str("series", doc.ID).Stringer("from", from).Stringer("to", to).
			Msg("edge fetch returned no data, gap left unfilled")
		return doc, nil
	}
	return c.merge(ctx, doc, points, from, to)
}

func (c *Cache) fetch(ctx context.Context, src collector.Source, key collector.Key, from, to model.Date) []model.Point {
	points, err := src.Fetch(ctx, key, from, to)
	if err != nil {
		c.log.Warn().Err(err).Str("source", src.Name()).Stringer("key", key).
			Stringer("from", from).Stringer("to", to).Msg("fetch failed")
		points = nil
	}
	c.metrics.Fetch(src.Name(), len(points) > 0)
	return points
}

// merge appends points to doc and replaces the stored document. A version
// conflict means another writer got there first: re-read and merge again.
func (c *Cache) merge(ctx context.Context, doc *model.SeriesDocument, points []model.Point, from, to model.Date) (*model.SeriesDocument, error) {
	for attempt := 1; ; attempt++ {
		expected := doc.Version
		added := doc.Merge(points)
		// Coverage must stay contiguous. A concurrent writer may have left
		// a disjoint window, in which case the points are kept but the
		// window is not claimed.
		if doc.CoveredFrom.IsZero() || (!from.After(doc.CoveredTo) && !to.Before(doc.CoveredFrom)) {
			doc.Widen(from, to)
		}
		err := c.store.ReplaceDocument(ctx, doc, expected)
		if err == nil {
			c.metrics.Merged(doc.ID, added)
			c.log.Debug().Str("series", doc.ID).Int("added", added).Int64("version", doc.Version).Msg("series merged")
			return doc, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) || attempt >= maxMergeAttempts {
			return nil, fmt.Errorf("merge %s: %w", doc.ID, err)
		}
		c.log.Debug().Str("series", doc.ID).Int("attempt", attempt).Msg("version conflict, re-reading")
		if doc, err = c.load(ctx, doc.ID); err != nil {
			return nil, err
		}
	}
}

func (c *Cache) load(ctx context.Context, id string) (*model.SeriesDocument, error) {
	doc, err := c.store.GetDocument(ctx, id)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return &model.SeriesDocument{ID: id}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return doc, nil
}

// keyedMutex hands out one mutex per identifier and forgets it once no
// goroutine holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
