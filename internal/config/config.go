package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	ServerPort int
	Host       string

	// Database
	DatabasePath string
	SeedPath     string

	// Client
	APIBaseURL     string
	SearchDebounce time.Duration

	// API Keys
	TMDBAPIKey string

	// Debug
	Debug bool
}

// Load returns the configuration with hardcoded defaults overridden by
// environment variables (a .env file is loaded by main before this).
func Load() *Config {
	return &Config{
		// Server defaults
		ServerPort: getEnvInt("PORT", 5000),
		Host:       getEnv("HOST", "0.0.0.0"),

		// Database
		DatabasePath: getEnv("DATABASE_PATH", "data/movieai.db"),
		SeedPath:     getEnv("SEED_PATH", "data/seed.json"),

		// Client defaults
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:5000"),
		SearchDebounce: time.Duration(getEnvInt("SEARCH_DEBOUNCE_MS", 350)) * time.Millisecond,

		// API Keys - empty disables poster enrichment
		TMDBAPIKey: getEnv("TMDB_API_KEY", ""),

		// Debug - disabled by default
		Debug: getEnv("DEBUG", "") == "true",
	}
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or a default value
func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
