package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DevJWTSecret is the signing secret used when AUTH_JWT_SECRET is unset.
// It is rejected outside development.
const DevJWTSecret = "dev-secret"

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Store    StoreConfig
	Postgres PostgresConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Search   SearchConfig
	Seed     SeedConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name           string        `env:"APP_NAME" envDefault:"flight-agent"`
	Env            string        `env:"APP_ENV" envDefault:"development"`
	Host           string        `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port           string        `env:"APP_PORT" envDefault:"8080"`
	Version        string        `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
}

// StoreConfig selects the user store backend.
type StoreConfig struct {
	Driver        string        `env:"STORE_DRIVER" envDefault:"postgres"`
	Timeout       time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	RunMigrations bool          `env:"STORE_RUN_MIGRATIONS" envDefault:"true"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string        `env:"POSTGRES_DSN"`
	MaxConns        int32         `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns        int32         `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	ConnMaxIdleTime time.Duration `env:"POSTGRES_CONN_MAX_IDLE" envDefault:"30s"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFE" envDefault:"5m"`
}

// SQLiteConfig holds the SQLite database location.
type SQLiteConfig struct {
	DSN string `env:"SQLITE_DSN" envDefault:"file:flight-agent.db?_pragma=busy_timeout(5000)"`
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret      string        `env:"AUTH_JWT_SECRET" envDefault:"dev-secret"`
	AccessTokenTTL time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" envDefault:"5m"`
	BcryptCost     int           `env:"AUTH_BCRYPT_COST" envDefault:"12"`
}

// SearchConfig configures the outbound search upstreams.
type SearchConfig struct {
	FlightsURL    string        `env:"SEARCH_FLIGHTS_URL" envDefault:"https://kiwicom-prod.apigee.net/v2/search"`
	FlightsAPIKey string        `env:"SEARCH_FLIGHTS_API_KEY"`
	PlacesURL     string        `env:"SEARCH_PLACES_URL" envDefault:"http://autocomplete.travelpayouts.com/places2"`
	Timeout       time.Duration `env:"SEARCH_TIMEOUT" envDefault:"10s"`
	CacheTTL      time.Duration `env:"SEARCH_CACHE_TTL" envDefault:"0s"`
}

// SeedConfig configures the demo account seeder.
type SeedConfig struct {
	Password   string `env:"SEED_PASSWORD" envDefault:"12345678"`
	AdminEmail string `env:"SEED_ADMIN_EMAIL" envDefault:"admin@test.com"`
	UserEmail  string `env:"SEED_USER_EMAIL" envDefault:"user@test.com"`
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	cfg.Logger.Format = strings.ToLower(strings.TrimSpace(cfg.Logger.Format))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when STORE_DRIVER=postgres"))
		}
	case StoreDriverSQLite:
		if c.SQLite.DSN == "" {
			errs = append(errs, errors.New("SQLITE_DSN is required when STORE_DRIVER=sqlite"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	}
	if c.App.IsProduction() && c.Auth.JWTSecret == DevJWTSecret {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be set in production"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_ACCESS_TOKEN_TTL must be positive"))
	}
	if c.Store.Timeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if c.Search.Timeout <= 0 {
		errs = append(errs, errors.New("SEARCH_TIMEOUT must be positive"))
	}
	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.Logger.Format))
	}

	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs in production.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production") || strings.EqualFold(a.Env, "prod")
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}
