// Package config loads daemon configuration from environment variables,
// optionally overlaid by a YAML file. The gate's window constants are
// compile-time and deliberately not configurable here.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds daemon configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`

	// Owner is the fixed principal allowed to mutate the gate.
	Owner string `yaml:"owner"`
	// AuthKey signs and verifies the HS256 bearer tokens of the HTTP
	// surface. Empty means the surface rejects all authenticated routes.
	AuthKey string `yaml:"auth_key"`

	// RegistryBackend selects the queue registry store:
	// "memory" | "sqlite" | "postgres" | "redis".
	RegistryBackend string `yaml:"registry_backend"`
	SQLitePath      string `yaml:"sqlite_path"`
	DatabaseURL     string `yaml:"database_url"`
	RedisAddr       string `yaml:"redis_addr"`
	RedisPassword   string `yaml:"redis_password"`
	RedisDB         int    `yaml:"redis_db"`

	// AuditPath is the notification log sink; empty means stdout.
	AuditPath string `yaml:"audit_path"`

	OTLPEndpoint     string `yaml:"otlp_endpoint"`
	TelemetryEnabled bool   `yaml:"telemetry_enabled"`

	// RateRPS/RateBurst bound the HTTP surface's global rate limiter.
	RateRPS   float64 `yaml:"rate_rps"`
	RateBurst int     `yaml:"rate_burst"`
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		ListenAddr:      envOr("LISTEN_ADDR", ":8080"),
		LogLevel:        envOr("LOG_LEVEL", "INFO"),
		Owner:           envOr("TIMELOCK_OWNER", "owner"),
		AuthKey:         os.Getenv("TIMELOCK_AUTH_KEY"),
		RegistryBackend: envOr("REGISTRY_BACKEND", "memory"),
		SQLitePath:      envOr("SQLITE_PATH", "timelock.db"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisAddr:       envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		AuditPath:       os.Getenv("AUDIT_PATH"),
		OTLPEndpoint:    envOr("OTLP_ENDPOINT", "localhost:4317"),
		RateRPS:         10,
		RateBurst:       20,
	}

	cfg.TelemetryEnabled = os.Getenv("TELEMETRY_ENABLED") == "true"
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = db
		}
	}
	if v := os.Getenv("RATE_RPS"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateRPS = rps
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if burst, err := strconv.Atoi(v); err == nil {
			cfg.RateBurst = burst
		}
	}

	return cfg
}

// LoadFile loads environment defaults and overlays them with the YAML file
// at path. YAML values win where set.
func LoadFile(path string) (*Config, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks backend selection consistency.
func (c *Config) Validate() error {
	switch c.RegistryBackend {
	case "memory", "sqlite", "redis":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("registry_backend postgres requires database_url")
		}
	default:
		return fmt.Errorf("unknown registry backend %q", c.RegistryBackend)
	}
	if c.Owner == "" {
		return fmt.Errorf("owner must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
