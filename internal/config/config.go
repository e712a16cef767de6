package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Rotessa
	RotessaAPIKey  string
	RotessaBaseURL string // empty means production, or sandbox when RotessaSandbox is set
	RotessaSandbox bool
	RotessaTimeout time.Duration

	// Resilience
	MaxConcurrency int
	BreakerEnabled bool

	// Observability
	OTLPEndpoint   string
	TracingEnabled bool
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RotessaAPIKey:  getEnv("ROTESSA_API_KEY", ""),
		RotessaBaseURL: getEnv("ROTESSA_BASE_URL", ""),
		RotessaSandbox: getEnvBool("ROTESSA_SANDBOX", false),
		RotessaTimeout: getEnvMillis("ROTESSA_TIMEOUT_MS", 15*time.Second),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 8),
		BreakerEnabled: getEnvBool("CIRCUIT_BREAKER_ENABLED", true),

		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvMillis reads a whole number of milliseconds. Non-positive values fall back.
func getEnvMillis(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return fallback
}
