// Package config provides configuration for the triage core.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the process configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Archive database
	DatabaseURL string

	// Event bus
	EventHistoryLimit     int
	ConnectionIdleTimeout time.Duration
	SweepInterval         time.Duration

	// Detection
	GlossaryPriority []string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:              getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:           getEnv("DATABASE_URL", "file:sema.db?cache=shared&mode=rwc"),
		EventHistoryLimit:     getEnvInt("EVENT_HISTORY_LIMIT", 1000),
		ConnectionIdleTimeout: time.Duration(getEnvInt("CONNECTION_IDLE_TIMEOUT_MS", 1800000)) * time.Millisecond,
		SweepInterval:         time.Duration(getEnvInt("SWEEP_INTERVAL_MS", 300000)) * time.Millisecond,
		GlossaryPriority:      getEnvList("GLOSSARY_PRIORITY", []string{"lg", "sw"}),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
