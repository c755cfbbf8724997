package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/flight-agent/internal/auth"
	"github.com/spec-kit/flight-agent/internal/domain"
	"github.com/spec-kit/flight-agent/internal/repository"
	apperrors "github.com/spec-kit/flight-agent/pkg/util/errorutil"
)

// DefaultStoreTimeout bounds every repository call when no timeout is configured.
const DefaultStoreTimeout = 5 * time.Second

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// errInvalidCredentials is shared by every credential failure so callers
// cannot tell an unknown identifier from a wrong password.
var errInvalidCredentials = apperrors.NewUnauthorized("invalid credentials")

// CreateUserInput carries the fields accepted when creating an account.
type CreateUserInput struct {
	Identifier string
	Name       string
	PhotoURL   string
	Password   string
	FacebookID *string
	GoogleID   *string
	Role       domain.Role
}

// UserStore applies normalization, validation, hashing and timeouts on top of
// a swappable repository.
type UserStore struct {
	repo       repository.UserRepository
	timeout    time.Duration
	bcryptCost int
	now        func() time.Time
	compare    func(hash, plain string) error

	dummyOnce sync.Once
	dummyHash string
}

// NewUserStore builds the store facade.
func NewUserStore(repo repository.UserRepository, timeout time.Duration, bcryptCost int) *UserStore {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &UserStore{
		repo:       repo,
		timeout:    timeout,
		bcryptCost: bcryptCost,
		now:        time.Now,
		compare:    auth.ComparePassword,
	}
}

// Create validates and persists a new account.
func (s *UserStore) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	user := &domain.User{
		ID:         uuid.NewString(),
		Identifier: domain.NormalizeIdentifier(in.Identifier),
		Name:       strings.TrimSpace(in.Name),
		PhotoURL:   strings.TrimSpace(in.PhotoURL),
		FacebookID: domain.NormalizeProviderID(in.FacebookID),
		GoogleID:   domain.NormalizeProviderID(in.GoogleID),
		Role:       in.Role,
		CreatedAt:  s.now().UTC(),
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if err := validateUser(user, in.Password); err != nil {
		return nil, err
	}

	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password, s.bcryptCost)
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.NewValidationError("invalid user", map[string]any{"password": passwordTooLong})
		}
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			field := repository.DuplicateField(err)
			return nil, apperrors.NewConflict("user already exists", map[string]any{"field": field})
		}
		return nil, storeError(ctx, err)
	}
	return user, nil
}

// FindByCredentials loads the account for identifier and verifies password
// against the stored hash. Accounts without a password never match. Unknown
// and password-less accounts still pay for one bcrypt comparison.
func (s *UserStore) FindByCredentials(ctx context.Context, identifier, password string) (*domain.User, error) {
	identifier = domain.NormalizeIdentifier(identifier)
	if identifier == "" || password == "" {
		return nil, errInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.repo.GetByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrUserNotFound) {
		_ = s.compare(s.dummy(), password)
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, storeError(ctx, err)
	}
	if !user.HasPassword() {
		_ = s.compare(s.dummy(), password)
		return nil, errInvalidCredentials
	}
	if err := s.compare(user.PasswordHash, password); err != nil {
		return nil, errInvalidCredentials
	}
	return user, nil
}

// Exists reports whether an account uses identifier.
func (s *UserStore) Exists(ctx context.Context, identifier string) (bool, error) {
	identifier = domain.NormalizeIdentifier(identifier)
	if identifier == "" {
		return false, apperrors.NewValidationError("identifier required", map[string]any{"identifier": "required"})
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ok, err := s.repo.ExistsByIdentifier(ctx, identifier)
	if err != nil {
		return false, storeError(ctx, err)
	}
	return ok, nil
}

// Get returns the account for identifier.
func (s *UserStore) Get(ctx context.Context, identifier string) (*domain.User, error) {
	identifier = domain.NormalizeIdentifier(identifier)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.repo.GetByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperrors.NewNotFound("user", nil)
	}
	if err != nil {
		return nil, storeError(ctx, err)
	}
	return user, nil
}

// Ping checks the underlying repository.
func (s *UserStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.Ping(ctx)
}

// dummy returns a hash with the configured cost that no password matches.
func (s *UserStore) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword(uuid.NewString(), s.bcryptCost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func storeError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewStoreTimeout(err)
	}
	return apperrors.NewInternalError(err)
}

const passwordTooLong = "must be at most 72 bytes"

func validateUser(user *domain.User, password string) error {
	details := map[string]any{}
	if user.Identifier == "" {
		details["identifier"] = "required"
	}
	if user.Name == "" {
		details["name"] = "required"
	}
	if user.PhotoURL != "" && !isHTTPURL(user.PhotoURL) {
		details["photo_url"] = "must be an absolute http(s) URL"
	}
	if len(password) > MaxPasswordBytes {
		details["password"] = passwordTooLong
	}
	if !user.Role.Valid() {
		details["role"] = "unknown role"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid user", details)
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
