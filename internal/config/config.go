package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort      int
	DatabasePath    string
	JWTSecret       string // symmetric signing secret, fixed for the process lifetime
	StrictOwnership bool   // opt-in ownership checks on the user edit/delete routes
	LogLevel        string
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	strict, err := strconv.ParseBool(getEnv("STRICT_OWNERSHIP", "false"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:      port,
		DatabasePath:    getEnv("DATABASE_PATH", "./minipost.db"),
		JWTSecret:       getEnv("JWT_SECRET", "secretkey"),
		StrictOwnership: strict,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
