package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"NavSentinel/internal/model"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS series_documents (
	id           TEXT PRIMARY KEY,
	version      BIGINT NOT NULL,
	covered_from TEXT NOT NULL DEFAULT '',
	covered_to   TEXT NOT NULL DEFAULT '',
	points       JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
)`

type documentRow struct {
	ID          string    `db:"id"`
	Version     int64     `db:"version"`
	CoveredFrom string    `db:"covered_from"`
	CoveredTo   string    `db:"covered_to"`
	Points      []byte    `db:"points"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// PostgresStore persists documents in PostgreSQL with a JSONB points column.
type PostgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

// OpenPostgresStore connects with dsn and creates the table if needed.
func OpenPostgresStore(ctx context.Context, dsn string, timeout time.Duration) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := NewPostgresStore(db, timeout)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing connection.
func NewPostgresStore(db *sqlx.DB, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresStore{db: db, timeout: timeout}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*model.SeriesDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row documentRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, version, covered_from, covered_to, points, updated_at FROM series_documents WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}

	doc := &model.SeriesDocument{ID: row.ID, Version: row.Version, UpdatedAt: row.UpdatedAt}
	if doc.CoveredFrom, err = parseOptionalDate(row.CoveredFrom); err != nil {
		return nil, err
	}
	if doc.CoveredTo, err = parseOptionalDate(row.CoveredTo); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(row.Points, &doc.Points); err != nil {
		return nil, fmt.Errorf("decode points %s: %w", id, err)
	}
	return doc, nil
}

func (s *PostgresStore) ReplaceDocument(ctx context.Context, doc *model.SeriesDocument, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	points, err := json.Marshal(doc.Points)
	if err != nil {
		return fmt.Errorf("encode points %s: %w", doc.ID, err)
	}
	next := *doc
	stamp(&next, expectedVersion)

	var res sql.Result
	if expectedVersion == 0 {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO series_documents (id, version, covered_from, covered_to, points, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`,
			doc.ID, next.Version, doc.CoveredFrom.String(), doc.CoveredTo.String(), points, next.UpdatedAt)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE series_documents
			SET version = $1, covered_from = $2, covered_to = $3, points = $4, updated_at = $5
			WHERE id = $6 AND version = $7`,
			next.Version, doc.CoveredFrom.String(), doc.CoveredTo.String(), points, next.UpdatedAt,
			doc.ID, expectedVersion)
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "40001" {
			return ErrVersionConflict
		}
		return fmt.Errorf("failed to write document %s: %w", doc.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to write document %s: %w", doc.ID, err)
	}
	if n == 0 {
		return ErrVersionConflict
	}
	doc.Version, doc.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }
