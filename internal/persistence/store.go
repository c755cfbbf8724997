package persistence

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/flight-agent/internal/config"
	"github.com/spec-kit/flight-agent/internal/repository"
)

// Store bundles the user repository with the connection backing it.
type Store struct {
	Driver   string
	Users    repository.UserRepository
	postgres *Postgres
	sqlite   *SQLite
}

// OpenStore connects the backend selected by STORE_DRIVER, applies migrations
// when enabled and returns the matching user repository.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Store, error) {
	store := &Store{Driver: cfg.Store.Driver}

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store.postgres = pg
		if cfg.Store.RunMigrations {
			db := pg.SQLDB()
			err := RunMigrations(ctx, db, goose.DialectPostgres, logger)
			_ = db.Close()
			if err != nil {
				pg.Close()
				return nil, err
			}
		}
		store.Users = repository.NewUserRepository(pg.PoolHandle())

	case config.StoreDriverSQLite:
		lite, err := NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, err
		}
		store.sqlite = lite
		if cfg.Store.RunMigrations {
			if err := RunMigrations(ctx, lite.DB, goose.DialectSQLite3, logger); err != nil {
				lite.Close()
				return nil, err
			}
		}
		store.Users = repository.NewSQLiteUserRepository(lite.DB)

	case config.StoreDriverMemory:
		logger.Warn("using in-memory user store; data is lost on restart")
		store.Users = repository.NewMemoryUserRepository()

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	return store, nil
}

// Ping checks the backing store.
func (s *Store) Ping(ctx context.Context) error {
	return s.Users.Ping(ctx)
}

// Close releases the underlying connections.
func (s *Store) Close() {
	if s == nil {
		return
	}
	s.postgres.Close()
	s.sqlite.Close()
}
