// Package config holds host configuration: infrastructure settings from
// environment variables and optional engine tuning from a YAML file.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all host configuration loaded from environment variables.
type Config struct {
	// Listeners
	ListenAddr  string
	MetricsAddr string

	// Drawing persistence backend: "memory", "sqlite" or "redis".
	RepoBackend string
	SQLitePath  string

	RedisAddr     string
	RedisPassword string

	// ChartID scopes persisted drawings.
	ChartID string

	// TOTPSecret enables the gateway's TOTP handshake when non-empty.
	TOTPSecret string

	// TuningPath is an optional YAML file with engine tuning knobs.
	TuningPath string

	// JanitorSpec is the cron expression for repository maintenance.
	JanitorSpec string
}

// Load reads configuration from environment variables with sensible
// defaults.
func Load() *Config {
	return &Config{
		ListenAddr:  getEnv("CHART_LISTEN_ADDR", ":8780"),
		MetricsAddr: getEnv("CHART_METRICS_ADDR", ":9790"),

		RepoBackend: getEnv("CHART_REPO_BACKEND", "sqlite"),
		SQLitePath:  getEnv("CHART_SQLITE_PATH", "data/drawings.db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		ChartID: getEnv("CHART_ID", "default"),

		TOTPSecret: getEnv("CHART_TOTP_SECRET", ""),
		TuningPath: getEnv("CHART_TUNING_PATH", ""),

		// Default: compact the drawing store daily at 04:15.
		JanitorSpec: getEnv("CHART_JANITOR_SPEC", "15 4 * * *"),
	}
}

// GetEnvInt reads an integer env var with a fallback.
func GetEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid integer for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
