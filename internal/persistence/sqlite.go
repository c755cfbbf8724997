package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spec-kit/flight-agent/internal/config"
)

// SQLite wraps a database/sql handle opened with the modernc driver.
type SQLite struct {
	DB *sql.DB
}

// NewSQLite opens the database. SQLite allows a single writer, so the pool is
// limited to one connection, which also keeps ":memory:" databases shared.
func NewSQLite(ctx context.Context, cfg config.SQLiteConfig, logger *zap.Logger) (*SQLite, error) {
	if cfg.DSN == "" {
		return nil, errors.New("sqlite dsn not configured")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	logger.Info("opened sqlite database")
	return &SQLite{DB: db}, nil
}

// Close closes the database handle.
func (s *SQLite) Close() {
	if s != nil && s.DB != nil {
		_ = s.DB.Close()
	}
}
