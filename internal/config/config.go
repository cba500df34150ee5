// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultHTTPAddr        = ":8080"
	DefaultMappingCacheTTL = time.Hour
	DefaultMaxEmails       = 10
)

// Config holds all configuration for the application.
type Config struct {
	DatabaseURL     string
	HTTPAddr        string
	LogLevel        string
	GeminiAPIKey    string
	MappingCacheTTL time.Duration
	MaxEmails       int
	OTLPEndpoint    string
	OTLPProtocol    string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		HTTPAddr:     os.Getenv("HTTP_ADDR"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPProtocol: os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"),
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = DefaultHTTPAddr
	}

	cfg.MappingCacheTTL = DefaultMappingCacheTTL
	if ttlStr := os.Getenv("MAPPING_CACHE_TTL"); ttlStr != "" {
		if ttl, err := time.ParseDuration(ttlStr); err == nil && ttl > 0 {
			cfg.MappingCacheTTL = ttl
		}
	}

	cfg.MaxEmails = DefaultMaxEmails
	if maxStr := os.Getenv("MAX_EMAILS"); maxStr != "" {
		if n, err := strconv.Atoi(maxStr); err == nil && n > 0 {
			cfg.MaxEmails = n
		}
	}

	// Validate required configuration.
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.OTLPProtocol != "" && c.OTLPProtocol != "http" && c.OTLPProtocol != "grpc" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_PROTOCOL must be http or grpc")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// MLResolverEnabled reports whether the Gemini-backed resolver tier should
// be constructed. Without a key the tier stays a no-op.
func (c *Config) MLResolverEnabled() bool {
	return c.GeminiAPIKey != ""
}
