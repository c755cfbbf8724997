package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/flight-agent/internal/config"
	"github.com/spec-kit/flight-agent/internal/domain"
	"github.com/spec-kit/flight-agent/internal/service"
	apperrors "github.com/spec-kit/flight-agent/pkg/util/errorutil"
)

// SampleName is the display name given to every demo account.
const SampleName = "Sample User"

// Result lists which demo accounts were created and which already existed.
type Result struct {
	Created []string
	Skipped []string
}

// Seeder creates the fixed demo accounts.
type Seeder struct {
	users  *service.UserStore
	logger *zap.Logger
}

// NewSeeder builds a seeder on top of the user store.
func NewSeeder(users *service.UserStore, logger *zap.Logger) *Seeder {
	return &Seeder{users: users, logger: logger}
}

// Run creates one admin and one regular account. Accounts that already exist
// are left untouched, so Run may be repeated.
func (s *Seeder) Run(ctx context.Context, cfg config.SeedConfig) (Result, error) {
	accounts := []struct {
		identifier string
		role       domain.Role
	}{
		{identifier: cfg.AdminEmail, role: domain.RoleAdmin},
		{identifier: cfg.UserEmail, role: domain.RoleUser},
	}

	var res Result
	for _, acc := range accounts {
		s.logger.Info("creating demo account", zap.String("identifier", acc.identifier), zap.String("role", string(acc.role)))
		_, err := s.users.Create(ctx, service.CreateUserInput{
			Identifier: acc.identifier,
			Name:       SampleName,
			Password:   cfg.Password,
			Role:       acc.role,
		})
		switch {
		case err == nil:
			res.Created = append(res.Created, domain.NormalizeIdentifier(acc.identifier))
		case apperrors.CodeOf(err) == apperrors.CodeConflict:
			s.logger.Info("demo account exists, skipping", zap.String("identifier", acc.identifier))
			res.Skipped = append(res.Skipped, domain.NormalizeIdentifier(acc.identifier))
		default:
			return res, fmt.Errorf("seed %s: %w", acc.identifier, err)
		}
	}
	return res, nil
}
