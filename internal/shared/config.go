package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// TemplateJWTSecret is the placeholder signing secret shipped in the example config.
const TemplateJWTSecret = "change-me-in-production"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
	Auth    AuthConfig    `toml:"auth"`
	Catalog CatalogConfig `toml:"catalog"`
	Log     LogConfig     `toml:"log"`
}

// StorageConfig selects and configures the user table backend.
type StorageConfig struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	AllowedOrigins  []string `toml:"allowed_origins"`
	ReadTimeout     string   `toml:"read_timeout"`
	WriteTimeout    string   `toml:"write_timeout"`
	IdleTimeout     string   `toml:"idle_timeout"`
	ShutdownTimeout string   `toml:"shutdown_timeout"`
}

// AuthConfig contains token signing and login throttling settings.
type AuthConfig struct {
	JWTSecret     string `toml:"jwt_secret"`
	TokenTTL      string `toml:"token_ttl"`
	RatePerMinute int    `toml:"rate_per_minute"`
	Burst         int    `toml:"burst"`
}

// CatalogConfig points at the directory whose subdirectories are courses.
type CatalogConfig struct {
	Root string `toml:"root"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeouts parses the read, write, idle and shutdown timeouts, falling back to the given default for empty values.
func (s ServerConfig) Timeouts(fallback time.Duration) (read, write, idle, shutdown time.Duration) {
	return parseDuration(s.ReadTimeout, fallback),
		parseDuration(s.WriteTimeout, fallback),
		parseDuration(s.IdleTimeout, fallback*4),
		parseDuration(s.ShutdownTimeout, fallback)
}

// TTL returns the token lifetime, defaulting to 24 hours.
func (a AuthConfig) TTL() time.Duration {
	return parseDuration(a.TokenTTL, 24*time.Hour)
}

// UsesTemplateSecret reports whether the signing secret is still the example config placeholder.
func (a AuthConfig) UsesTemplateSecret() bool {
	return a.JWTSecret == TemplateJWTSecret
}

// Validate reports configuration values the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrUnsupportedDriver, c.Storage.Driver)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("%w: storage.path is required", ErrInvalidConfig)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth.jwt_secret is required", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ResolveConfig loads the config at path when it exists, otherwise returns defaults.
// Variables from a .env file in the working directory are loaded first and
// NEXUS_* environment variables override file values.
func ResolveConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	ApplyEnv(config)
	return config, nil
}

// ApplyEnv overrides config values from NEXUS_* environment variables (and PORT).
func ApplyEnv(c *Config) {
	if v := os.Getenv("NEXUS_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("NEXUS_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("NEXUS_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("NEXUS_CATALOG_ROOT"); v != "" {
		c.Catalog.Root = v
	}
	if v := os.Getenv("NEXUS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("NEXUS_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	port := os.Getenv("NEXUS_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if p, err := strconv.Atoi(port); err == nil {
		c.Server.Port = p
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
