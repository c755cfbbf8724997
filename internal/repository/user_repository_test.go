package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/flight-agent/internal/config"
	"github.com/spec-kit/flight-agent/internal/domain"
	"github.com/spec-kit/flight-agent/internal/persistence"
	"github.com/spec-kit/flight-agent/internal/repository"
)

func newSQLiteRepo(t *testing.T) repository.UserRepository {
	t.Helper()
	ctx := context.Background()
	lite, err := persistence.NewSQLite(ctx, config.SQLiteConfig{DSN: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(lite.Close)
	require.NoError(t, persistence.RunMigrations(ctx, lite.DB, goose.DialectSQLite3, zap.NewNop()))
	return repository.NewSQLiteUserRepository(lite.DB)
}

func implementations(t *testing.T) map[string]func(t *testing.T) repository.UserRepository {
	t.Helper()
	return map[string]func(t *testing.T) repository.UserRepository{
		"memory": func(*testing.T) repository.UserRepository { return repository.NewMemoryUserRepository() },
		"sqlite": newSQLiteRepo,
	}
}

func ptr(s string) *string { return &s }

func sampleUser(id, identifier string) *domain.User {
	return &domain.User{
		ID:           id,
		Identifier:   identifier,
		Name:         "Sample User",
		PhotoURL:     "https://cdn.test/p.png",
		PasswordHash: "$2a$04$abcdefghijklmnopqrstuv",
		Role:         domain.RoleUser,
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 6000, time.UTC),
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	for name, open := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			in := sampleUser("id-1", "me@gmail.com")
			in.FacebookID = ptr("fb-1")
			require.NoError(t, repo.Create(ctx, in))

			got, err := repo.GetByIdentifier(ctx, "me@gmail.com")
			require.NoError(t, err)
			assert.Equal(t, in.ID, got.ID)
			assert.Equal(t, in.Name, got.Name)
			assert.Equal(t, in.PhotoURL, got.PhotoURL)
			assert.Equal(t, in.PasswordHash, got.PasswordHash)
			assert.Equal(t, domain.RoleUser, got.Role)
			require.NotNil(t, got.FacebookID)
			assert.Equal(t, "fb-1", *got.FacebookID)
			assert.Nil(t, got.GoogleID)
			assert.True(t, in.CreatedAt.Equal(got.CreatedAt))
		})
	}
}

func TestUserRepository_NotFoundAndExists(t *testing.T) {
	for name, open := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			_, err := repo.GetByIdentifier(ctx, "ghost@test.com")
			assert.ErrorIs(t, err, repository.ErrUserNotFound)

			exists, err := repo.ExistsByIdentifier(ctx, "ghost@test.com")
			require.NoError(t, err)
			assert.False(t, exists)

			require.NoError(t, repo.Create(ctx, sampleUser("id-2", "ghost@test.com")))
			exists, err = repo.ExistsByIdentifier(ctx, "ghost@test.com")
			require.NoError(t, err)
			assert.True(t, exists)

			require.NoError(t, repo.Ping(ctx))
		})
	}
}

func TestUserRepository_UniqueFields(t *testing.T) {
	for name, open := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			first := sampleUser("id-1", "a@test.com")
			first.FacebookID = ptr("fb-1")
			first.GoogleID = ptr("g-1")
			require.NoError(t, repo.Create(ctx, first))

			dupIdent := sampleUser("id-2", "a@test.com")
			err := repo.Create(ctx, dupIdent)
			assert.ErrorIs(t, err, repository.ErrUserExists)
			assert.Equal(t, "identifier", repository.DuplicateField(err))

			dupFacebook := sampleUser("id-3", "b@test.com")
			dupFacebook.FacebookID = ptr("fb-1")
			err = repo.Create(ctx, dupFacebook)
			assert.ErrorIs(t, err, repository.ErrUserExists)
			assert.Equal(t, "facebook_id", repository.DuplicateField(err))

			dupGoogle := sampleUser("id-4", "c@test.com")
			dupGoogle.GoogleID = ptr("g-1")
			err = repo.Create(ctx, dupGoogle)
			assert.ErrorIs(t, err, repository.ErrUserExists)
			assert.Equal(t, "google_id", repository.DuplicateField(err))

			// Absent provider ids never collide with each other.
			require.NoError(t, repo.Create(ctx, sampleUser("id-5", "d@test.com")))
			require.NoError(t, repo.Create(ctx, sampleUser("id-6", "e@test.com")))
		})
	}
}

func TestUserRepository_ConcurrentCreateSameIdentifier(t *testing.T) {
	for name, open := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			const writers = 16
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				successes int
			)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					err := repo.Create(ctx, sampleUser(fmt.Sprintf("id-%d", i), "race@test.com"))
					if err == nil {
						mu.Lock()
						successes++
						mu.Unlock()
					}
				}(i)
			}
			wg.Wait()
			assert.Equal(t, 1, successes)
		})
	}
}

func TestUserRepository_MemoryHonorsContext(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, repo.Create(ctx, sampleUser("id-1", "a@test.com")), context.Canceled)
	_, err := repo.GetByIdentifier(ctx, "a@test.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUserRepository_MemoryReturnsCopies(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	ctx := context.Background()

	in := sampleUser("id-1", "a@test.com")
	in.GoogleID = ptr("g-1")
	require.NoError(t, repo.Create(ctx, in))
	in.Name = "mutated"
	*in.GoogleID = "mutated"

	got, err := repo.GetByIdentifier(ctx, "a@test.com")
	require.NoError(t, err)
	assert.Equal(t, "Sample User", got.Name)
	assert.Equal(t, "g-1", *got.GoogleID)
}
