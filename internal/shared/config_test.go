package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Storage.Driver != "json" {
			t.Errorf("expected storage driver json, got %s", config.Storage.Driver)
		}

		if config.Storage.Path != "./data/db.json" {
			t.Errorf("expected storage path ./data/db.json, got %s", config.Storage.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Catalog.Root != "./database" {
			t.Errorf("expected catalog root ./database, got %s", config.Catalog.Root)
		}

		if config.Auth.TTL() != 24*time.Hour {
			t.Errorf("expected token ttl 24h, got %v", config.Auth.TTL())
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Storage.Path != defaultConfig.Storage.Path {
			t.Errorf("created config storage path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[storage]
driver = "sqlite"
path = "/custom/nexus.db"
max_open_conns = 4
max_idle_conns = 2

[server]
host = "0.0.0.0"
port = 8080
allowed_origins = ["http://localhost:5000"]
read_timeout = "5s"

[auth]
jwt_secret = "test-secret"
token_ttl = "1h"

[catalog]
root = "/srv/courses"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Storage.Driver != "sqlite" {
			t.Errorf("expected driver sqlite, got %s", config.Storage.Driver)
		}
		if config.Storage.MaxOpenConns != 4 {
			t.Errorf("expected max_open_conns 4, got %d", config.Storage.MaxOpenConns)
		}
		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}
		if len(config.Server.AllowedOrigins) != 1 || config.Server.AllowedOrigins[0] != "http://localhost:5000" {
			t.Errorf("unexpected allowed origins: %v", config.Server.AllowedOrigins)
		}
		read, write, _, _ := config.Server.Timeouts(15 * time.Second)
		if read != 5*time.Second {
			t.Errorf("expected read timeout 5s, got %v", read)
		}
		if write != 15*time.Second {
			t.Errorf("expected write timeout to keep default 15s, got %v", write)
		}
		if config.Auth.TTL() != time.Hour {
			t.Errorf("expected ttl 1h, got %v", config.Auth.TTL())
		}
		if config.Log.Level != "info" {
			t.Errorf("expected unset log level to keep default, got %q", config.Log.Level)
		}
		if config.Catalog.Root != "/srv/courses" {
			t.Errorf("expected catalog root /srv/courses, got %s", config.Catalog.Root)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("NEXUS_STORAGE_DRIVER", "sqlite")
		t.Setenv("NEXUS_JWT_SECRET", "from-env")
		t.Setenv("NEXUS_ALLOWED_ORIGINS", "http://a.test,http://b.test")
		t.Setenv("PORT", "9090")

		config := DefaultConfig()
		ApplyEnv(config)

		if config.Storage.Driver != "sqlite" {
			t.Errorf("expected driver override, got %s", config.Storage.Driver)
		}
		if config.Auth.JWTSecret != "from-env" {
			t.Errorf("expected secret override, got %s", config.Auth.JWTSecret)
		}
		if len(config.Server.AllowedOrigins) != 2 {
			t.Errorf("expected two origins, got %v", config.Server.AllowedOrigins)
		}
		if config.Server.Port != 9090 {
			t.Errorf("expected port 9090, got %d", config.Server.Port)
		}
	})

	t.Run("ResolveConfig without file uses defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())

		config, err := ResolveConfig("config.toml")
		if err != nil {
			t.Fatalf("failed to resolve config: %v", err)
		}
		if config.Server.Port != DefaultConfig().Server.Port && os.Getenv("PORT") == "" {
			t.Errorf("expected default port, got %d", config.Server.Port)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		config.Storage.Driver = "mongo"
		if err := config.Validate(); !errors.Is(err, ErrUnsupportedDriver) {
			t.Errorf("expected ErrUnsupportedDriver, got %v", err)
		}

		config = DefaultConfig()
		config.Auth.JWTSecret = ""
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("UsesTemplateSecret", func(t *testing.T) {
		config := DefaultConfig()
		if !config.Auth.UsesTemplateSecret() {
			t.Errorf("expected example config to carry the template secret, got %q", config.Auth.JWTSecret)
		}

		t.Setenv("NEXUS_JWT_SECRET", "rotated")
		ApplyEnv(config)
		if config.Auth.UsesTemplateSecret() {
			t.Error("expected NEXUS_JWT_SECRET to replace the template secret")
		}
	})
}
