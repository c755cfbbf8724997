package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// RunMigrations applies the embedded SQL migrations for the given dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect goose.Dialect, logger *zap.Logger) error {
	if db == nil {
		logger.Warn("no database handle available; skipping migrations")
		return nil
	}

	dir, err := migrationsDir(dialect)
	if err != nil {
		return err
	}
	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("open migrations %s: %w", dir, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, res := range results {
		logger.Info("applied migration",
			zap.String("file", res.Source.Path),
			zap.Duration("duration", res.Duration))
	}

	logger.Info("migrations applied", zap.Int("count", len(results)))
	return nil
}

func migrationsDir(dialect goose.Dialect) (string, error) {
	switch dialect {
	case goose.DialectPostgres:
		return "migrations/postgres", nil
	case goose.DialectSQLite3:
		return "migrations/sqlite", nil
	default:
		return "", fmt.Errorf("no migrations for dialect %q", dialect)
	}
}
