// Package store persists cached series as whole documents keyed by series
// identifier. Every backend supports optimistic concurrency through the
// document version.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"NavSentinel/internal/model"
)

var (
	ErrDocumentNotFound = errors.New("series document not found")
	ErrVersionConflict  = errors.New("series document was modified concurrently")
)

// Store is a keyed document store with point lookups and full-document
// replace.
type Store interface {
	// GetDocument returns ErrDocumentNotFound when id has never been stored.
	GetDocument(ctx context.Context, id string) (*model.SeriesDocument, error)
	// ReplaceDocument writes doc if the stored version still equals
	// expectedVersion (0 for a new document) and bumps doc.Version.
	ReplaceDocument(ctx context.Context, doc *model.SeriesDocument, expectedVersion int64) error
	Close() error
}

// stamp prepares doc for a write at expectedVersion.
func stamp(doc *model.SeriesDocument, expectedVersion int64) {
	doc.Version = expectedVersion + 1
	doc.UpdatedAt = time.Now().UTC()
}

func encodeDocument(doc *model.SeriesDocument) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", doc.ID, err)
	}
	return b, nil
}

func decodeDocument(b []byte) (*model.SeriesDocument, error) {
	var doc model.SeriesDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

func clone(doc *model.SeriesDocument) *model.SeriesDocument {
	c := *doc
	c.Points = append(model.Series(nil), doc.Points...)
	return &c
}

// parseOptionalDate reads a covered-window bound, empty meaning unset.
func parseOptionalDate(s string) (model.Date, error) {
	if s == "" {
		return model.Date{}, nil
	}
	return model.ParseDate(s)
}
