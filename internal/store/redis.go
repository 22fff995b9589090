package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"NavSentinel/internal/model"
)

const redisKeyPrefix = "navsentinel:series:"

// RedisStore keeps each document as one JSON string value.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to addr.
func NewRedisStore(addr string, db int) *RedisStore {
	return &RedisStore{client: redis.NewClient(&redis.Options{Addr: addr, DB: db})}
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(id string) string { return redisKeyPrefix + id }

func (s *RedisStore) GetDocument(ctx context.Context, id string) (*model.SeriesDocument, error) {
	b, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}
	return decodeDocument(b)
}

// ReplaceDocument uses WATCH/MULTI so a concurrent writer aborts the
// transaction instead of being overwritten.
func (s *RedisStore) ReplaceDocument(ctx context.Context, doc *model.SeriesDocument, expectedVersion int64) error {
	key := s.key(doc.ID)
	next := *doc
	stamp(&next, expectedVersion)
	payload, err := encodeDocument(&next)
	if err != nil {
		return err
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		var current int64
		b, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
		case err != nil:
			return err
		default:
			cur, err := decodeDocument(b)
			if err != nil {
				return err
			}
			current = cur.Version
		}
		if current != expectedVersion {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) || errors.Is(err, ErrVersionConflict) {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("redis replace %s: %w", doc.ID, err)
	}
	doc.Version, doc.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
