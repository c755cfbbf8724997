package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "flight-agent", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, DevJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "https://kiwicom-prod.apigee.net/v2/search", cfg.Search.FlightsURL)
	assert.Equal(t, "http://autocomplete.travelpayouts.com/places2", cfg.Search.PlacesURL)
	assert.Equal(t, 10*time.Second, cfg.Search.Timeout)
	assert.Empty(t, cfg.Search.FlightsAPIKey)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "admin@test.com", cfg.Seed.AdminEmail)
	assert.Equal(t, "user@test.com", cfg.Seed.UserEmail)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", " SQLite ")
	t.Setenv("SQLITE_DSN", ":memory:")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL", "90s")
	t.Setenv("SEARCH_FLIGHTS_API_KEY", "k-123")
	t.Setenv("SEARCH_CACHE_TTL", "1m")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("LOG_FORMAT", "Console")
	t.Setenv("POSTGRES_MAX_CONNS", "20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, ":memory:", cfg.SQLite.DSN)
	assert.Equal(t, 90*time.Second, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "k-123", cfg.Search.FlightsAPIKey)
	assert.Equal(t, time.Minute, cfg.Search.CacheTTL)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, int32(20), cfg.Postgres.MaxConns)
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("POSTGRES_DSN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_DSN")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("STORE_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate_ProductionRejectsDevSecret(t *testing.T) {
	cfg := validConfig()
	cfg.App.Env = "production"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")

	cfg.Auth.JWTSecret = "a-real-secret"
	require.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "mongo"
	cfg.Auth.AccessTokenTTL = 0
	cfg.Logger.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
	assert.Contains(t, err.Error(), "AUTH_ACCESS_TOKEN_TTL")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func validConfig() Config {
	return Config{
		App:    AppConfig{Env: "development"},
		Store:  StoreConfig{Driver: StoreDriverMemory, Timeout: time.Second},
		Logger: LoggerConfig{Level: "info", Format: "json"},
		Auth:   AuthConfig{JWTSecret: DevJWTSecret, AccessTokenTTL: 5 * time.Minute, BcryptCost: 4},
		Search: SearchConfig{Timeout: time.Second},
	}
}
