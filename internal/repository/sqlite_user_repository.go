package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/spec-kit/flight-agent/internal/domain"
)

type sqliteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository returns a SQLite-backed implementation.
func NewSQLiteUserRepository(db *sql.DB) UserRepository {
	return &sqliteUserRepository{db: db}
}

func (r *sqliteUserRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, identifier, name, photo_url, password_hash, facebook_id, google_id, role, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Identifier,
		user.Name,
		user.PhotoURL,
		user.PasswordHash,
		nullString(user.FacebookID),
		nullString(user.GoogleID),
		string(user.Role),
		user.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return newDuplicateError(fieldForSQLiteMessage(err.Error()))
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *sqliteUserRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	const query = `
        SELECT id, identifier, name, photo_url, password_hash, facebook_id, google_id, role, created_at
        FROM users WHERE identifier = ?`

	var (
		user       domain.User
		facebookID sql.NullString
		googleID   sql.NullString
		role       string
		createdAt  string
	)
	if err := r.db.QueryRowContext(ctx, query, identifier).Scan(
		&user.ID,
		&user.Identifier,
		&user.Name,
		&user.PhotoURL,
		&user.PasswordHash,
		&facebookID,
		&googleID,
		&role,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	user.CreatedAt = ts
	user.Role = domain.Role(role)
	user.FacebookID = stringPtr(facebookID)
	user.GoogleID = stringPtr(googleID)
	return &user, nil
}

func (r *sqliteUserRepository) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE identifier = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, identifier).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}

func (r *sqliteUserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// Without extended result codes only the message tells them apart.
		return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

func fieldForSQLiteMessage(msg string) string {
	switch {
	case strings.Contains(msg, "users.identifier"):
		return "identifier"
	case strings.Contains(msg, "users.facebook_id"):
		return "facebook_id"
	case strings.Contains(msg, "users.google_id"):
		return "google_id"
	default:
		return "id"
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
