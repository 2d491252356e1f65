package session

import (
	"context"
	"fmt"
	"io"
	"strings"

	"docsflow/internal/config"
	"docsflow/internal/database"
	"docsflow/internal/database/migration"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the store selected by cfg.Session.Backend. The returned closer
// releases any network resources held by the store.
func Open(ctx context.Context, cfg *config.AppConfig) (Store, io.Closer, error) {
	switch strings.ToLower(cfg.Session.Backend) {
	case "", "memory":
		return NewMemoryStore(), nopCloser{}, nil
	case "file":
		path := cfg.Session.FilePath
		if path == "" {
			p, err := DefaultFilePath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		fs, err := NewFileStore(path)
		if err != nil {
			return nil, nil, err
		}
		return fs, nopCloser{}, nil
	case "redis":
		rs, err := DialRedis(ctx, cfg.Redis, cfg.Session)
		if err != nil {
			return nil, nil, err
		}
		return rs, rs, nil
	case "postgres":
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return NewPostgresStore(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}
