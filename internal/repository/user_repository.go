package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/flight-agent/internal/domain"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a unique field is already taken. The
	// wrapping error names the field.
	ErrUserExists = errors.New("user already exists")
)

// UserRepository defines persistence access for users. Implementations
// enforce uniqueness of identifier, facebook id and google id atomically.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	ExistsByIdentifier(ctx context.Context, identifier string) (bool, error)
	Ping(ctx context.Context) error
}

// DuplicateField returns the field a uniqueness violation was reported for.
func DuplicateField(err error) string {
	var dup *duplicateError
	if errors.As(err, &dup) {
		return dup.field
	}
	return ""
}

type duplicateError struct {
	field string
}

func (e *duplicateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUserExists, e.field)
}

func (e *duplicateError) Unwrap() error {
	return ErrUserExists
}

func newDuplicateError(field string) error {
	return &duplicateError{field: field}
}

const pgUniqueViolation = "23505"

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, identifier, name, photo_url, password_hash, facebook_id, google_id, role, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Identifier,
		user.Name,
		user.PhotoURL,
		user.PasswordHash,
		user.FacebookID,
		user.GoogleID,
		string(user.Role),
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return newDuplicateError(fieldForConstraint(pgErr.ConstraintName))
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	const query = `
        SELECT id, identifier, name, photo_url, password_hash, facebook_id, google_id, role, created_at
        FROM users WHERE identifier=$1`

	var (
		user domain.User
		role string
	)
	if err := r.pool.QueryRow(ctx, query, identifier).Scan(
		&user.ID,
		&user.Identifier,
		&user.Name,
		&user.PhotoURL,
		&user.PasswordHash,
		&user.FacebookID,
		&user.GoogleID,
		&role,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	user.Role = domain.Role(role)
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (r *userRepository) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE identifier=$1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, identifier).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}

func (r *userRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// fieldForConstraint maps the unique constraints declared in the migrations
// back to the user field they guard.
func fieldForConstraint(constraint string) string {
	switch constraint {
	case "users_facebook_id_key":
		return "facebook_id"
	case "users_google_id_key":
		return "google_id"
	default:
		return "identifier"
	}
}
