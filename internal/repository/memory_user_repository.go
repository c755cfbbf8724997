package repository

import (
	"context"
	"sync"

	"github.com/spec-kit/flight-agent/internal/domain"
)

type memoryUserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byIdent    map[string]string
	byFacebook map[string]string
	byGoogle   map[string]string
}

// NewMemoryUserRepository returns a process-local implementation, used for
// STORE_DRIVER=memory and in tests.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:       make(map[string]*domain.User),
		byIdent:    make(map[string]string),
		byFacebook: make(map[string]string),
		byGoogle:   make(map[string]string),
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byID[user.ID]; taken {
		return newDuplicateError("id")
	}
	if _, taken := r.byIdent[user.Identifier]; taken {
		return newDuplicateError("identifier")
	}
	if user.FacebookID != nil {
		if _, taken := r.byFacebook[*user.FacebookID]; taken {
			return newDuplicateError("facebook_id")
		}
	}
	if user.GoogleID != nil {
		if _, taken := r.byGoogle[*user.GoogleID]; taken {
			return newDuplicateError("google_id")
		}
	}

	stored := cloneUser(user)
	r.byID[stored.ID] = stored
	r.byIdent[stored.Identifier] = stored.ID
	if stored.FacebookID != nil {
		r.byFacebook[*stored.FacebookID] = stored.ID
	}
	if stored.GoogleID != nil {
		r.byGoogle[*stored.GoogleID] = stored.ID
	}
	return nil
}

func (r *memoryUserRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byIdent[identifier]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *memoryUserRepository) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byIdent[identifier]
	return ok, nil
}

func (r *memoryUserRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.FacebookID != nil {
		fb := *u.FacebookID
		c.FacebookID = &fb
	}
	if u.GoogleID != nil {
		g := *u.GoogleID
		c.GoogleID = &g
	}
	return &c
}
