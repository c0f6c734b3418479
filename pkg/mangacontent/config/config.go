package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		LogLevel:           "info",
		RequestTimeout:     60 * time.Second,
		DatabaseURL:        "memory",
		DBSchema:           "manga",
		StorageURL:         "memory://",
		LockURL:            "memory",
		TokenTTL:           24 * time.Hour,
		EnableEventLogging: true,
	}
}

// ServerConfig represents server configuration for the manga service
type ServerConfig struct {
	Port           string        `env:"PORT" env-default:"8080"`
	Environment    string        `env:"ENVIRONMENT" env-default:"development"` // development, production, testing
	LogLevel       string        `env:"LOG_LEVEL" env-default:"info"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" env-default:"60s"`

	// Entity store: "memory" or a postgres:// URL
	DatabaseURL   string `env:"DATABASE_URL" env-default:"memory"`
	DBSchema      string `env:"DB_SCHEMA" env-default:"manga"`
	RunMigrations bool   `env:"RUN_MIGRATIONS"`

	// Blob store: memory://, file:///path, s3://bucket?..., mongodb://host/db?bucket=...
	StorageURL        string `env:"STORAGE_URL" env-default:"memory://"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	// Per-manga lock: "memory" or a redis:// URL
	LockURL string `env:"LOCK_URL" env-default:"memory"`

	// Token auth
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" env-default:"24h"`

	// Bootstrap account for the in-memory directory
	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD"`

	EnableEventLogging bool `env:"ENABLE_EVENT_LOGGING" env-default:"true"`
}

// IsDevelopment reports whether the server runs with development conveniences
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "testing"
}

// UsesPostgres reports whether the entity store is PostgreSQL
func (c *ServerConfig) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// SlogLevel returns the configured log level
func (c *ServerConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.Environment {
	case "development", "production", "testing":
	default:
		return fmt.Errorf("environment must be development, production or testing, got %q", c.Environment)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}

	if c.DatabaseURL != "memory" && !c.UsesPostgres() {
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", c.DatabaseURL)
	}
	if c.RunMigrations && !c.UsesPostgres() {
		return errors.New("RUN_MIGRATIONS requires a postgres DATABASE_URL")
	}

	if _, err := parseStorageURL(c.StorageURL); err != nil {
		return err
	}

	if c.LockURL != "memory" && !strings.HasPrefix(c.LockURL, "redis://") && !strings.HasPrefix(c.LockURL, "rediss://") {
		return fmt.Errorf("unsupported LOCK_URL format: %s (use 'memory' or 'redis://...')", c.LockURL)
	}

	if c.JWTSecret == "" && !c.IsDevelopment() {
		return errors.New("JWT_SECRET is required outside development")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if (c.SeedAdminEmail == "") != (c.SeedAdminPassword == "") {
		return errors.New("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set together")
	}

	return nil
}

// WithPort sets the listen port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the runtime environment
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		c.Environment = env
		return nil
	}
}

// WithDatabase sets the entity store URL and schema
func WithDatabase(databaseURL, schema string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseURL = databaseURL
		if schema != "" {
			c.DBSchema = schema
		}
		return nil
	}
}

// WithStorageURL sets the blob store URL
func WithStorageURL(storageURL string) Option {
	return func(c *ServerConfig) error {
		c.StorageURL = storageURL
		return nil
	}
}

// WithLockURL sets the per-manga lock backend
func WithLockURL(lockURL string) Option {
	return func(c *ServerConfig) error {
		c.LockURL = lockURL
		return nil
	}
}

// WithJWTSecret sets the token signing secret
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithSeedAdmin registers an admin account in the in-memory directory
func WithSeedAdmin(email, password string) Option {
	return func(c *ServerConfig) error {
		c.SeedAdminEmail = email
		c.SeedAdminPassword = password
		return nil
	}
}
