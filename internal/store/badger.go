package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"NavSentinel/internal/model"
)

// BadgerStore keeps documents in an embedded Badger key-value database.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens the database at path; an empty path runs in memory.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) GetDocument(_ context.Context, id string) (*model.SeriesDocument, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(redisKeyPrefix + id))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %s: %w", id, err)
	}
	return decodeDocument(raw)
}

// ReplaceDocument relies on Badger's serializable transactions: a
// concurrent commit on the same key fails with ErrConflict.
func (s *BadgerStore) ReplaceDocument(_ context.Context, doc *model.SeriesDocument, expectedVersion int64) error {
	key := []byte(redisKeyPrefix + doc.ID)
	next := *doc
	stamp(&next, expectedVersion)
	payload, err := encodeDocument(&next)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		var current int64
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			cur, err := decodeDocument(raw)
			if err != nil {
				return err
			}
			current = cur.Version
		}
		if current != expectedVersion {
			return ErrVersionConflict
		}
		return txn.Set(key, payload)
	})
	if errors.Is(err, badger.ErrConflict) || errors.Is(err, ErrVersionConflict) {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("badger replace %s: %w", doc.ID, err)
	}
	doc.Version, doc.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
