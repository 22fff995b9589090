package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"NavSentinel/internal/config"
)

// Open builds the backend selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Store, error) {
	log = log.With().Str("driver", cfg.Storage.Driver).Logger()
	switch cfg.Storage.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(cfg.Storage.SQLitePath, log)
	case "postgres":
		return OpenPostgresStore(ctx, cfg.Storage.PostgresDSN, cfg.Sources.RequestTimeout)
	case "redis":
		s := NewRedisStore(cfg.Storage.RedisAddr, cfg.Storage.RedisDB)
		if err := s.client.Ping(ctx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return s, nil
	case "badger":
		return OpenBadgerStore(cfg.Storage.BadgerPath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
