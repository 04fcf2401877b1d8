package app

import (
	"os"
	"strconv"
	"time"

	"github.com/samimwebdev/jsninja/internal/session"
)

// Session backends.
const (
	SessionBackendCookie = "cookie"
	SessionBackendRedis  = "redis"
)

type Config struct {
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 3000)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	BackendURL     string        // Base URL of the identity/content service (default: http://localhost:8080)
	BackendTimeout time.Duration // Per-call timeout towards the backend (default: 10s)
	LoginPath      string        // Where expired sessions are sent (default: /login)

	SessionBackend string        // Session storage: cookie or redis (default: cookie)
	RedisAddr      string        // Redis address when SessionBackend is redis (default: localhost:6379)
	RedisPassword  string        // Optional Redis password
	RedisDB        int           // Redis database number (default: 0)
	SessionTTL     time.Duration // Lifetime of the finished session values (default: 7 days)
}

func LoadConfig() Config {
	return Config{
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 3000),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		BackendURL:     getEnvOrDefault("BACKEND_URL", "http://localhost:8080"),
		BackendTimeout: getEnvDurationOrDefault("BACKEND_TIMEOUT", 10*time.Second),
		LoginPath:      getEnvOrDefault("LOGIN_PATH", "/login"),

		SessionBackend: getEnvOrDefault("SESSION_BACKEND", SessionBackendCookie),
		RedisAddr:      getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvIntOrDefault("REDIS_DB", 0),
		SessionTTL:     getEnvDurationOrDefault("SESSION_TTL", session.SessionTTL),
	}
}

// SecureCookies reports whether cookies carry the Secure attribute.
func (c Config) SecureCookies() bool {
	return c.Env != "dev"
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

	// Plain integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
