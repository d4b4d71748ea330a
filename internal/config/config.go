package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DatabaseURL   string
	DatabaseType  string // "postgres" or "sqlite"
	SlowThreshold time.Duration

	// Logging
	LogLevel string
	LogJSON  bool

	// Superuser seeded by the migrate command
	SuperuserName  string
	SuperuserEmail string
}

// Load reads the environment, after merging in a .env file if there is one.
// The returned error only reports a missing or unreadable .env file; the
// config is always usable.
func Load() (*Config, error) {
	err := godotenv.Load()

	return &Config{
		// Database
		DatabaseURL:   getEnv("DATABASE_URL", "teams.db"),
		DatabaseType:  getEnv("DATABASE_TYPE", "sqlite"),
		SlowThreshold: getEnvDuration("DB_SLOW_THRESHOLD", 200*time.Millisecond),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvBool("LOG_JSON", false),

		// Superuser
		SuperuserName:  getEnv("SUPERUSER_NAME", "admin"),
		SuperuserEmail: getEnv("SUPERUSER_EMAIL", "admin@localhost"),
	}, err
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
