package app

import (
	"os"
	"strconv"
	"time"

	"github.com/samimwebdev/jsninja/internal/devidentity/service"
	"github.com/samimwebdev/jsninja/pkg/jwtx"
)

type Config struct {
	Issuer               string        // Issuer claim for tokens (default: jsninja-devidentity)
	SigningSecret        string        // Optional: HS256 secret, at least 32 bytes. Random per process when empty.
	DatabaseFile         string        // Path to SQLite database file (default: ./devidentity.db)
	PepperFile           string        // Path to file containing pepper for password hashing (default: ./pepper)
	AccessTTL            time.Duration // Access token lifetime (default: 15m)
	RefreshTTL           time.Duration // Refresh token lifetime (default: 7 days)
	TicketTTL            time.Duration // Login ticket and pending token lifetime (default: 5m)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	// Seed is created at start-up unless its username exists. Skipped when
	// DEVID_SEED_USERNAME is empty.
	Seed service.SeedUser
}

func LoadConfig() Config {
	return Config{
		Issuer:               getEnvOrDefault("DEVID_ISSUER", "jsninja-devidentity"),
		SigningSecret:        os.Getenv("DEVID_SIGNING_SECRET"),
		DatabaseFile:         getEnvOrDefault("DEVID_DATABASE_FILE", "devidentity.db"),
		PepperFile:           getEnvOrDefault("DEVID_PEPPER_FILE", "pepper"),
		AccessTTL:            getEnvDurationOrDefault("DEVID_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:           getEnvDurationOrDefault("DEVID_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		TicketTTL:            getEnvDurationOrDefault("DEVID_TICKET_TTL", 5*time.Minute),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("DEVID_PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("DEVID_HOUSEKEEPING_INTERVAL", 1*time.Hour),
		Seed: service.SeedUser{
			Username:   os.Getenv("DEVID_SEED_USERNAME"),
			Email:      os.Getenv("DEVID_SEED_EMAIL"),
			Password:   os.Getenv("DEVID_SEED_PASSWORD"),
			TOTPSecret: os.Getenv("DEVID_SEED_TOTP_SECRET"),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
