// Package config provides environment-driven configuration for sheetsight.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL     Secret
	Port            string
	ListenHost      string
	CORSOrigins     []string
	LLMURL          string
	LLMModel        string
	LLMAllowRemote  bool
	LLMTimeout      time.Duration
	AnalysisTimeout time.Duration
	PurgeInterval   time.Duration
	AnomalyStdDevs  float64
	LogLevel        string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    Secret(envOrDefault("DATABASE_URL", "")),
		Port:           envOrDefault("PORT", "8080"),
		ListenHost:     envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LLMURL:         envOrDefault("LLM_URL", "http://localhost:11434"),
		LLMModel:       envOrDefault("LLM_MODEL", "mistral:7b-instruct"),
		LLMAllowRemote: envOrDefault("LLM_ALLOW_REMOTE", "false") == "true",
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
	}

	var err error

	cfg.LLMTimeout, err = envDuration("LLM_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.AnalysisTimeout, err = envDuration("ANALYSIS_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.PurgeInterval, err = envDuration("PURGE_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}

	stddevs := envOrDefault("ANOMALY_STDDEVS", "3")

	cfg.AnomalyStdDevs, err = strconv.ParseFloat(stddevs, 64)
	if err != nil || cfg.AnomalyStdDevs <= 0 {
		return nil, fmt.Errorf("ANOMALY_STDDEVS must be a positive number, got %q", stddevs)
	}

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3000")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration (e.g. 30s), got %q", key, raw)
	}

	return d, nil
}
