package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values for the service configuration.
const (
	DefaultHTTPPort     = 8080
	DefaultDriver       = "memory"
	DefaultDataset      = "data/historical_runs.json"
	DefaultSQLitePath   = "welltegra.db"
	DefaultDefaultLimit = 50
	DefaultMaxLimit     = 1000
	DefaultLogLevel     = "info"
)

// Config is the root of the parsed configuration file.
type Config struct {
	Server Server `yaml:"server"`
	Store  Store  `yaml:"store"`
	Log    Log    `yaml:"log"`
}

// Server holds the HTTP-facing settings.
type Server struct {
	// HTTPPort is the port the REST API and /metrics listen on.
	HTTPPort int `yaml:"http_port"`

	// CORSOrigins lists allowed cross-origin callers. Entries may contain a
	// single "*" wildcard, e.g. "https://*.welltegra.network". Empty means
	// no CORS headers are emitted.
	CORSOrigins []string `yaml:"cors_origins"`

	// DefaultLimit is applied when a listing request gives no limit.
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit bounds any caller-supplied limit. Requests above it are
	// rejected, never clamped.
	MaxLimit int `yaml:"max_limit"`
}

// Store selects and configures the record store backend.
type Store struct {
	// Driver is one of: memory | sqlite | postgres.
	Driver string `yaml:"driver"`

	// Dataset is the JSON dataset file seeding the memory driver.
	Dataset string `yaml:"dataset"`

	// Watch enables hot reload of the dataset file (memory driver only).
	Watch bool `yaml:"watch"`

	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `yaml:"sqlite_path"`

	// PostgresDSN is the connection string for the postgres driver.
	// Prefer PostgresDSNEnv so the DSN stays out of the config file.
	PostgresDSN string `yaml:"postgres_dsn"`

	// PostgresDSNEnv is the name of the environment variable holding the
	// Postgres DSN. It takes precedence over PostgresDSN when set.
	PostgresDSNEnv string `yaml:"postgres_dsn_env"`
}

// DSN returns the Postgres connection string, resolved from the
// environment when PostgresDSNEnv is set.
func (s Store) DSN() string {
	if s.PostgresDSNEnv != "" {
		if v := os.Getenv(s.PostgresDSNEnv); v != "" {
			return v
		}
	}
	return s.PostgresDSN
}

// Log holds the logging settings.
type Log struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// SlogLevel maps the configured level to a slog.Level.
func (l Log) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config { return defaults() }

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: Server{
			HTTPPort:     DefaultHTTPPort,
			DefaultLimit: DefaultDefaultLimit,
			MaxLimit:     DefaultMaxLimit,
		},
		Store: Store{
			Driver:     DefaultDriver,
			Dataset:    DefaultDataset,
			SQLitePath: DefaultSQLitePath,
		},
		Log: Log{Level: DefaultLogLevel},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.DefaultLimit <= 0 {
		return fmt.Errorf("server.default_limit must be positive")
	}
	if cfg.Server.MaxLimit < cfg.Server.DefaultLimit {
		return fmt.Errorf("server.max_limit %d must be >= server.default_limit %d",
			cfg.Server.MaxLimit, cfg.Server.DefaultLimit)
	}
	switch cfg.Store.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver %q unknown: want memory|sqlite|postgres", cfg.Store.Driver)
	}
	if cfg.Store.Driver == "memory" && cfg.Store.Dataset == "" {
		return fmt.Errorf("store.dataset must be set for the memory driver")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	return nil
}
