package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/artpar/formgate/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  request_timeout: 15s

storage:
  driver: redis
  redis:
    addr: "redis:6379"
    db: 2
    prefix: "forms:"

events:
  driver: nats
  nats:
    url: "nats://localhost:4222"

logging:
  level: debug
  format: console

metrics:
  enabled: false
`
	cfg := writeAndLoad(t, content)

	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr = %s, want 127.0.0.1:9090", cfg.Server.Addr())
	}
	if cfg.Server.RequestTimeout != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want 15s", cfg.Server.RequestTimeout)
	}
	if cfg.Storage.Driver != config.StorageRedis {
		t.Errorf("Storage.Driver = %s, want redis", cfg.Storage.Driver)
	}
	if cfg.Storage.Redis.Addr != "redis:6379" || cfg.Storage.Redis.DB != 2 || cfg.Storage.Redis.Prefix != "forms:" {
		t.Errorf("Storage.Redis = %+v", cfg.Storage.Redis)
	}
	if cfg.Events.Driver != config.EventsNATS || cfg.Events.NATS.URL != "nats://localhost:4222" {
		t.Errorf("Events = %+v", cfg.Events)
	}
	if cfg.Events.NATS.SubjectPrefix != "formgate" {
		t.Errorf("SubjectPrefix = %s, want formgate", cfg.Events.NATS.SubjectPrefix)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %s, want console", cfg.Logging.Format)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if !cfg.OpenAPI.Enabled {
		t.Error("OpenAPI.Enabled = false, want true by default")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "{}\n")

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 {
		t.Errorf("Server = %s, want 0.0.0.0:8080", cfg.Server.Addr())
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("WriteTimeout = %v, want 60s", cfg.Server.WriteTimeout)
	}
	if cfg.Storage.Driver != config.StorageMemory {
		t.Errorf("Storage.Driver = %s, want memory", cfg.Storage.Driver)
	}
	if cfg.Storage.SQLite.DSN != "formgate.db" {
		t.Errorf("SQLite.DSN = %s, want formgate.db", cfg.Storage.SQLite.DSN)
	}
	if cfg.Events.Driver != config.EventsNone {
		t.Errorf("Events.Driver = %s, want none", cfg.Events.Driver)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_SQLITE_PATH", "/var/lib/formgate/forms.db")

	cfg := writeAndLoad(t, `
storage:
  driver: sqlite
  sqlite:
    dsn: "${TEST_SQLITE_PATH}"
`)
	if cfg.Storage.SQLite.DSN != "/var/lib/formgate/forms.db" {
		t.Errorf("SQLite.DSN = %s", cfg.Storage.SQLite.DSN)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FORMGATE_SERVER_PORT", "7000")
	t.Setenv("FORMGATE_STORAGE_DRIVER", "sqlite")
	t.Setenv("FORMGATE_SQLITE_DSN", "override.db")
	t.Setenv("FORMGATE_LOG_LEVEL", "warn")
	t.Setenv("FORMGATE_METRICS_ENABLED", "no")
	t.Setenv("FORMGATE_OPENAPI_ENABLED", "off")

	cfg := writeAndLoad(t, `
server:
  port: 9000
storage:
  driver: memory
`)
	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Storage.Driver != config.StorageSQLite || cfg.Storage.SQLite.DSN != "override.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %s, want warn", cfg.Logging.Level)
	}
	if cfg.Metrics.Enabled || cfg.OpenAPI.Enabled {
		t.Errorf("Metrics.Enabled = %v, OpenAPI.Enabled = %v, want both false", cfg.Metrics.Enabled, cfg.OpenAPI.Enabled)
	}
}

func TestLoad_APIKeyHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	cfg := writeAndLoad(t, "auth:\n  api_key_hash: '"+string(hash)+"'\n")
	if cfg.Auth.APIKeyHash != string(hash) {
		t.Errorf("APIKeyHash = %q, want %q", cfg.Auth.APIKeyHash, hash)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown storage", "storage:\n  driver: mongo\n", "storage.driver"},
		{"unknown events", "events:\n  driver: kafka\n", "events.driver"},
		{"nats without url", "events:\n  driver: nats\n", "events.nats.url"},
		{"plaintext api key", "auth:\n  api_key_hash: hunter2\n", "auth.api_key_hash"},
		{"bad level", "logging:\n  level: verbose\n", "logging.level"},
		{"bad format", "logging:\n  format: xml\n", "logging.format"},
		{"bad metrics path", "metrics:\n  path: metrics\n", "metrics.path"},
		{"bad port", "server:\n  port: 70000\n", "server.port"},
		{"bad yaml", "server: [\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, err := config.Load(path)
			if err == nil {
				t.Fatal("Load should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load should fail for a missing file")
	}
}

func TestLoadWithFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  driver: sqlite\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Storage.Driver != config.StorageSQLite {
		t.Errorf("Storage.Driver = %s, want sqlite from file", cfg.Storage.Driver)
	}

	t.Setenv("FORMGATE_STORAGE_DRIVER", "redis")
	cfg, err = config.LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Storage.Driver != config.StorageRedis {
		t.Errorf("Storage.Driver = %s, want redis from env", cfg.Storage.Driver)
	}
	if !config.HasEnvConfig() {
		t.Error("HasEnvConfig = false with FORMGATE_STORAGE_DRIVER set")
	}
}

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}
