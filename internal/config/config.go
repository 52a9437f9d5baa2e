// Package config loads the service configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full service configuration surface.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// DatabaseURL is the PostgreSQL connection string. Empty means the
	// service runs on the in-memory store.
	DatabaseURL string

	// RedisURL enables the read-through cache when set. Only honored
	// together with DatabaseURL.
	RedisURL string

	// CacheTTL is the Redis entry lifetime.
	CacheTTL time.Duration
}

// Load reads environment variables (optionally from the provided file)
// and materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes
		// from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Port:        getenvWithDefault("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		CacheTTL:    30 * time.Second,
	}

	if ttl := os.Getenv("CACHE_TTL_SECONDS"); ttl != "" {
		secs, err := strconv.Atoi(ttl)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("CACHE_TTL_SECONDS must be a positive integer, got %q", ttl)
		}
		cfg.CacheTTL = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
