// Package config reads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds everything the service reads at startup.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// DatabaseURL is the postgres connection string. Empty selects the
	// in-memory store, which does not survive process restarts.
	DatabaseURL string

	// MaxVersionsPerSubject caps each subject's version history.
	// Zero means unlimited.
	MaxVersionsPerSubject int

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string
}

// Load reads configuration from the environment, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:        os.Getenv("REGISTRY_PORT"),
		DatabaseURL: os.Getenv("REGISTRY_DB_URL"),
		LogLevel:    os.Getenv("REGISTRY_LOG_LEVEL"),
	}
	if cfg.Port == "" {
		cfg.Port = "8081"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if raw := os.Getenv("REGISTRY_MAX_VERSIONS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid REGISTRY_MAX_VERSIONS %q", raw)
		}
		cfg.MaxVersionsPerSubject = n
	}

	return cfg, nil
}
