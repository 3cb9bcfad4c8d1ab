// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// Event drivers.
const (
	EventsNone = "none"
	EventsNATS = "nats"
)

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Events  EventsConfig  `yaml:"events"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	OpenAPI OpenAPIConfig `yaml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects and configures the form store.
type StorageConfig struct {
	Driver string       `yaml:"driver"` // "memory", "sqlite" or "redis"
	SQLite SQLiteConfig `yaml:"sqlite"`
	Redis  RedisConfig  `yaml:"redis"`
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig configures the Redis store. Empty fields fall back to the
// FORMGATE_REDIS_* variables.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// EventsConfig selects the change event publisher.
type EventsConfig struct {
	Driver string     `yaml:"driver"` // "none" or "nats"
	NATS   NATSConfig `yaml:"nats"`
}

// NATSConfig configures the NATS publisher.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// AuthConfig configures admin authentication. An empty APIKeyHash leaves
// the API open.
type AuthConfig struct {
	APIKeyHash string `yaml:"api_key_hash,omitempty"` // bcrypt hash
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// OpenAPIConfig configures the OpenAPI document and Swagger UI.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies environment overrides and
// defaults, and validates the result.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Config{
		Metrics: MetricsConfig{Enabled: true},
		OpenAPI: OpenAPIConfig{Enabled: true},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	FORMGATE_SERVER_HOST         - Server host (default: 0.0.0.0)
//	FORMGATE_SERVER_PORT         - Server port (default: 8080)
//	FORMGATE_STORAGE_DRIVER      - memory, sqlite or redis (default: memory)
//	FORMGATE_SQLITE_DSN          - SQLite path (default: formgate.db)
//	FORMGATE_REDIS_ADDR          - Redis address
//	FORMGATE_EVENTS_DRIVER       - none or nats (default: none)
//	FORMGATE_NATS_URL            - NATS server URL
//	FORMGATE_AUTH_API_KEY_HASH   - bcrypt hash of the admin API key
//	FORMGATE_LOG_LEVEL           - debug, info, warn, error (default: info)
//	FORMGATE_LOG_FORMAT          - json or console (default: json)
//	FORMGATE_METRICS_ENABLED     - Enable /metrics (default: true)
//	FORMGATE_OPENAPI_ENABLED     - Enable /openapi.json and /swagger (default: true)
func LoadFromEnv() (*Config, error) {
	return Parse(nil)
}

// LoadWithFallback loads path when it exists and falls back to the
// environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// HasEnvConfig reports whether any FORMGATE_ variable is set.
func HasEnvConfig() bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "FORMGATE_") {
			return true
		}
	}
	return false
}

// applyEnvOverrides applies FORMGATE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FORMGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FORMGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FORMGATE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("FORMGATE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := os.Getenv("FORMGATE_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("FORMGATE_SQLITE_DSN"); v != "" {
		cfg.Storage.SQLite.DSN = v
	}
	if v := os.Getenv("FORMGATE_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}

	if v := os.Getenv("FORMGATE_EVENTS_DRIVER"); v != "" {
		cfg.Events.Driver = v
	}
	if v := os.Getenv("FORMGATE_NATS_URL"); v != "" {
		cfg.Events.NATS.URL = v
	}
	if v := os.Getenv("FORMGATE_NATS_SUBJECT_PREFIX"); v != "" {
		cfg.Events.NATS.SubjectPrefix = v
	}

	if v := os.Getenv("FORMGATE_AUTH_API_KEY_HASH"); v != "" {
		cfg.Auth.APIKeyHash = v
	}

	if v := os.Getenv("FORMGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FORMGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("FORMGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("FORMGATE_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
	if v := os.Getenv("FORMGATE_OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageMemory
	}
	if cfg.Storage.SQLite.DSN == "" {
		cfg.Storage.SQLite.DSN = "formgate.db"
	}

	if cfg.Events.Driver == "" {
		cfg.Events.Driver = EventsNone
	}
	if cfg.Events.NATS.SubjectPrefix == "" {
		cfg.Events.NATS.SubjectPrefix = "formgate"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", cfg.Server.Port)
	}

	switch cfg.Storage.Driver {
	case StorageMemory, StorageSQLite, StorageRedis:
	default:
		return fmt.Errorf("storage.driver must be 'memory', 'sqlite' or 'redis', got %q", cfg.Storage.Driver)
	}

	switch cfg.Events.Driver {
	case EventsNone:
	case EventsNATS:
		if cfg.Events.NATS.URL == "" {
			return fmt.Errorf("events.nats.url is required when events.driver is 'nats'")
		}
	default:
		return fmt.Errorf("events.driver must be 'none' or 'nats', got %q", cfg.Events.Driver)
	}

	if cfg.Auth.APIKeyHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.Auth.APIKeyHash)); err != nil {
			return fmt.Errorf("auth.api_key_hash is not a bcrypt hash: %w", err)
		}
	}

	if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}
	return nil
}
