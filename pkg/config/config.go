// Package config reads service configuration from environment variables,
// falling back to development defaults when a key is unset or unparseable.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// GetString retrieves an environment variable or returns a fallback when unset.
func GetString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetInt retrieves an environment variable as integer or returns fallback.
func GetInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		warnInvalid(key, err)
		return fallback
	}
	return parsed
}

// GetBool retrieves an environment variable as bool or returns fallback.
func GetBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		warnInvalid(key, err)
		return fallback
	}
	return parsed
}

// GetDuration retrieves an environment variable in time.ParseDuration form
// ("60m", "336h") or returns fallback.
func GetDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		warnInvalid(key, err)
		return fallback
	}
	return parsed
}

func warnInvalid(key string, err error) {
	slog.Warn("invalid environment value, using fallback", "key", key, "error", err)
}
