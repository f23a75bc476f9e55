package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the studio backend
type Config struct {
	// HTTP Configuration
	HTTP HTTPConfig

	// Database Configuration
	Database DatabaseConfig

	// Auth Configuration
	Auth AuthConfig

	// Logging Configuration
	Logging LoggingConfig
}

// HTTPConfig holds listener configuration
type HTTPConfig struct {
	Port        string
	CORSOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds token and admin gate configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration

	// AdminPassword is exchanged for an admin grant on /admin/verify.
	AdminPassword string
	// AdminAccessCode is required on /admin/login in addition to the
	// account's own credentials.
	AdminAccessCode string
	// AdminGrantTTL bounds how long a grant stays valid.
	AdminGrantTTL time.Duration
	// GrantSweepSchedule is the cron expression for purging expired grants.
	GrantSweepSchedule string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	tokenTTL, err := durationEnv("TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	grantTTL, err := durationEnv("ADMIN_GRANT_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "studio.sqlite"),
		},
		Auth: AuthConfig{
			JWTSecret:          os.Getenv("JWT_SECRET"),
			TokenTTL:           tokenTTL,
			AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
			AdminAccessCode:    os.Getenv("ADMIN_ACCESS_CODE"),
			AdminGrantTTL:      grantTTL,
			GrantSweepSchedule: getEnv("ADMIN_GRANT_SWEEP_SCHEDULE", "*/5 * * * *"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the admin gate cannot run with.
func (c *Config) Validate() error {
	if c.Auth.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD must be set")
	}
	if c.Auth.AdminAccessCode == "" {
		return fmt.Errorf("ADMIN_ACCESS_CODE must be set")
	}
	if c.Auth.TokenTTL <= 0 || c.Auth.AdminGrantTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL and ADMIN_GRANT_TTL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
