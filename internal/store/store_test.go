package store

import (
	"bytes"
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NavSentinel/internal/config"
	"NavSentinel/internal/model"
)

func sampleDoc() *model.SeriesDocument {
	return &model.SeriesDocument{
		ID: "53@130771",
		Points: model.Series{
			model.NewPoint(model.MustParseDate("02-Apr-2024"), 10.5),
			model.NewPoint(model.MustParseDate("03-Apr-2024"), 10.6),
			{Date: model.MustParseDate("04-Apr-2024")},
		},
		CoveredFrom: model.MustParseDate("01-Apr-2024"),
		CoveredTo:   model.MustParseDate("05-Apr-2024"),
	}
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.GetDocument(ctx, "53@130771")
	require.ErrorIs(t, err, ErrDocumentNotFound)

	doc := sampleDoc()
	require.NoError(t, s.ReplaceDocument(ctx, doc, 0))
	assert.Equal(t, int64(1), doc.Version)

	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, "01-Apr-2024", got.CoveredFrom.String())
	assert.Equal(t, "05-Apr-2024", got.CoveredTo.String())
	require.Len(t, got.Points, 3)
	v, ok := got.Points[0].Float()
	assert.True(t, ok)
	assert.InDelta(t, 10.5, v, 1e-9)
	assert.False(t, got.Points[2].Value.Valid)

	// A second create of the same id loses.
	assert.ErrorIs(t, s.ReplaceDocument(ctx, sampleDoc(), 0), ErrVersionConflict)

	got.Merge([]model.Point{model.NewPoint(model.MustParseDate("05-Apr-2024"), 10.7)})
	require.NoError(t, s.ReplaceDocument(ctx, got, 1))
	assert.Equal(t, int64(2), got.Version)

	// Stale writer still holding version 1.
	stale := sampleDoc()
	assert.ErrorIs(t, s.ReplaceDocument(ctx, stale, 1), ErrVersionConflict)

	final, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), final.Version)
	assert.Len(t, final.Points, 4)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	doc := sampleDoc()
	require.NoError(t, s.ReplaceDocument(ctx, doc, 0))

	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	got.Points = got.Points[:1]

	again, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, again.Points, 3)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nav.db"), zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestBadgerStore(t *testing.T) {
	s, err := OpenBadgerStore("")
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestPostgresStore_GetDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := NewPostgresStore(sqlx.NewDb(db, "postgres"), time.Second)
	defer s.Close()

	query := regexp.QuoteMeta(`SELECT id, version, covered_from, covered_to, points, updated_at FROM series_documents WHERE id = $1`)
	rows := sqlmock.NewRows([]string{"id", "version", "covered_from", "covered_to", "points", "updated_at"}).
		AddRow("53@130771", int64(2), "01-Apr-2024", "05-Apr-2024",
			[]byte(`[{"date":"02-Apr-2024","value":"10.5"},{"date":"03-Apr-2024","value":null}]`), time.Now())
	mock.ExpectQuery(query).WithArgs("53@130771").WillReturnRows(rows)
	mock.ExpectQuery(query).WithArgs("missing").WillReturnRows(
		sqlmock.NewRows([]string{"id", "version", "covered_from", "covered_to", "points", "updated_at"}))

	doc, err := s.GetDocument(context.Background(), "53@130771")
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Version)
	require.Len(t, doc.Points, 2)
	assert.False(t, doc.Points[1].Value.Valid)

	_, err = s.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := NewPostgresStore(sqlx.NewDb(db, "postgres"), time.Second)
	defer s.Close()

	any7 := []driver.Value{sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO series_documents")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE series_documents")).WithArgs(any7...).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE series_documents")).WithArgs(any7...).WillReturnResult(sqlmock.NewResult(0, 0))

	doc := sampleDoc()
	require.NoError(t, s.ReplaceDocument(context.Background(), doc, 0))
	assert.Equal(t, int64(1), doc.Version)
	require.NoError(t, s.ReplaceDocument(context.Background(), doc, 1))
	assert.Equal(t, int64(2), doc.Version)
	assert.ErrorIs(t, s.ReplaceDocument(context.Background(), doc, 1), ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_GetDocument(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStoreWithClient(client)

	payload, err := encodeDocument(sampleDoc())
	require.NoError(t, err)
	mock.ExpectGet(redisKeyPrefix + "53@130771").SetVal(string(payload))
	mock.ExpectGet(redisKeyPrefix + "missing").RedisNil()
	mock.ExpectGet(redisKeyPrefix + "broken").SetErr(errors.New("connection refused"))

	doc, err := s.GetDocument(context.Background(), "53@130771")
	require.NoError(t, err)
	assert.Len(t, doc.Points, 3)

	_, err = s.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	_, err = s.GetDocument(context.Background(), "broken")
	assert.ErrorContains(t, err, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// payloadVersion matches a SET whose JSON payload carries the given version.
func payloadVersion(version int64) redismock.CustomMatch {
	return func(expected, actual []interface{}) error {
		if expected[1] != actual[1] {
			return fmt.Errorf("key %v, want %v", actual[1], expected[1])
		}
		b, _ := actual[2].([]byte)
		if !bytes.Contains(b, []byte(fmt.Sprintf(`"version":%d,`, version))) {
			return fmt.Errorf("payload %s lacks version %d", b, version)
		}
		return nil
	}
}

func TestRedisStore_ReplaceDocument(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStoreWithClient(client)
	key := redisKeyPrefix + "53@130771"
	ctx := context.Background()

	stored := sampleDoc()
	stored.Version = 2
	current, err := encodeDocument(stored)
	require.NoError(t, err)

	// first write
	mock.ExpectWatch(key)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectTxPipeline()
	mock.CustomMatch(payloadVersion(1)).ExpectSet(key, "", 0).SetVal("OK")
	mock.ExpectTxPipelineExec()
	// stale expected version
	mock.ExpectWatch(key)
	mock.ExpectGet(key).SetVal(string(current))
	// key modified between WATCH and EXEC
	mock.ExpectWatch(key)
	mock.ExpectGet(key).SetVal(string(current))
	mock.ExpectTxPipeline()
	mock.CustomMatch(payloadVersion(3)).ExpectSet(key, "", 0).SetVal("OK")
	mock.ExpectTxPipelineExec().SetErr(redis.TxFailedErr)

	doc := sampleDoc()
	require.NoError(t, s.ReplaceDocument(ctx, doc, 0))
	assert.Equal(t, int64(1), doc.Version)

	assert.ErrorIs(t, s.ReplaceDocument(ctx, doc, 1), ErrVersionConflict)
	assert.Equal(t, int64(1), doc.Version)

	assert.ErrorIs(t, s.ReplaceDocument(ctx, doc, 2), ErrVersionConflict)
	assert.Equal(t, int64(1), doc.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Driver = "mongo"
	_, err := Open(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)

	cfg.Storage.Driver = "memory"
	s, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
}
