package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"NavSentinel/internal/model"
)

// SQLiteStore persists documents in a single SQLite table.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers don't block the merge writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS series_documents (
			id           TEXT PRIMARY KEY,
			version      INTEGER NOT NULL,
			covered_from TEXT,
			covered_to   TEXT,
			points       TEXT NOT NULL,
			updated_at   INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*model.SeriesDocument, error) {
	var (
		version          int64
		from, to, points string
		updated          int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, covered_from, covered_to, points, updated_at FROM series_documents WHERE id = ?`, id).
		Scan(&version, &from, &to, &points, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", id, err)
	}

	doc := &model.SeriesDocument{ID: id, Version: version, UpdatedAt: time.Unix(updated, 0).UTC()}
	if doc.CoveredFrom, err = parseOptionalDate(from); err != nil {
		return nil, err
	}
	if doc.CoveredTo, err = parseOptionalDate(to); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(points), &doc.Points); err != nil {
		return nil, fmt.Errorf("decode points %s: %w", id, err)
	}
	return doc, nil
}

func (s *SQLiteStore) ReplaceDocument(ctx context.Context, doc *model.SeriesDocument, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	points, err := json.Marshal(doc.Points)
	if err != nil {
		return fmt.Errorf("encode points %s: %w", doc.ID, err)
	}
	next := *doc
	stamp(&next, expectedVersion)

	var res sql.Result
	if expectedVersion == 0 {
		res, err = s.db.ExecContext(ctx, `INSERT INTO series_documents
			(id, version, covered_from, covered_to, points, updated_at)
			VALUES (?,?,?,?,?,?)
			ON CONFLICT(id) DO NOTHING`,
			doc.ID, next.Version, doc.CoveredFrom.String(), doc.CoveredTo.String(), string(points), next.UpdatedAt.Unix())
	} else {
		res, err = s.db.ExecContext(ctx, `UPDATE series_documents
			SET version = ?, covered_from = ?, covered_to = ?, points = ?, updated_at = ?
			WHERE id = ? AND version = ?`,
			next.Version, doc.CoveredFrom.String(), doc.CoveredTo.String(), string(points), next.UpdatedAt.Unix(),
			doc.ID, expectedVersion)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", doc.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write %s: %w", doc.ID, err)
	}
	if n == 0 {
		return ErrVersionConflict
	}
	doc.Version, doc.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

func (s *SQLiteStore) Close() error {
	s.log.Info().Msg("closing sqlite store")
	return s.db.Close()
}
