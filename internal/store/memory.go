package store

import (
	"context"
	"sync"

	"NavSentinel/internal/model"
)

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*model.SeriesDocument
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*model.SeriesDocument)}
}

func (s *MemoryStore) GetDocument(_ context.Context, id string) (*model.SeriesDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return clone(doc), nil
}

func (s *MemoryStore) ReplaceDocument(_ context.Context, doc *model.SeriesDocument, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var current int64
	if cur, ok := s.docs[doc.ID]; ok {
		current = cur.Version
	}
	if current != expectedVersion {
		return ErrVersionConflict
	}
	stamp(doc, expectedVersion)
	s.docs[doc.ID] = clone(doc)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
