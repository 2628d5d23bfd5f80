// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Log        LogConfig
	GitHub     GitHubConfig
	Encryption EncryptionConfig
	Sync       SyncConfig
	Ops        OpsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name string
	Env  string
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// GitHubConfig holds the external API endpoints and client settings.
type GitHubConfig struct {
	BaseURL        string
	GraphQLURL     string
	RequestTimeout time.Duration
	PerPage        int
	// RequestsPerSecond throttles the REST/GraphQL client; zero disables
	// throttling.
	RequestsPerSecond float64
}

// EncryptionConfig holds the key for integration secret material.
type EncryptionConfig struct {
	// Key is hex- or base64-encoded, 32 bytes once decoded. Empty means
	// secrets are stored in plaintext (development only).
	Key string
}

// IsConfigured returns true if an encryption key is set.
func (c *EncryptionConfig) IsConfigured() bool {
	return c.Key != ""
}

// SyncConfig holds scheduler configuration.
type SyncConfig struct {
	// Schedule is a cron expression for the full sync pass.
	Schedule string
	// Workers bounds the number of integrations synced concurrently.
	Workers int
}

// OpsConfig holds the health/metrics listener configuration.
type OpsConfig struct {
	Host string
	Port int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "ghsync"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "ghsync"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "ghsync"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		GitHub: GitHubConfig{
			BaseURL:           getEnv("GITHUB_BASE_URL", "https://api.github.com"),
			GraphQLURL:        getEnv("GITHUB_GRAPHQL_URL", "https://api.github.com/graphql"),
			RequestTimeout:    getEnvDuration("GITHUB_REQUEST_TIMEOUT", 60*time.Second),
			PerPage:           getEnvInt("GITHUB_PER_PAGE", 100),
			RequestsPerSecond: getEnvFloat("GITHUB_REQUESTS_PER_SECOND", 10),
		},
		Encryption: EncryptionConfig{
			Key: getEnv("ENCRYPTION_KEY", ""),
		},
		Sync: SyncConfig{
			Schedule: getEnv("SYNC_SCHEDULE", "0 */6 * * *"),
			Workers:  getEnvInt("SYNC_WORKERS", 4),
		},
		Ops: OpsConfig{
			Host: getEnv("OPS_HOST", "0.0.0.0"),
			Port: getEnvInt("OPS_PORT", 9090),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.GitHub.PerPage < 1 || c.GitHub.PerPage > 100 {
		return fmt.Errorf("GITHUB_PER_PAGE must be between 1 and 100, got %d", c.GitHub.PerPage)
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("SYNC_WORKERS must be at least 1, got %d", c.Sync.Workers)
	}
	if c.IsProduction() && !c.Encryption.IsConfigured() {
		return fmt.Errorf("ENCRYPTION_KEY is required in production")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Addr returns the ops listener address.
func (c *OpsConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction returns true when running in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

// Environment helpers

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
