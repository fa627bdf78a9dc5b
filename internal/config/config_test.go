package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, `server: {}
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Server.DefaultLimit != DefaultDefaultLimit {
		t.Errorf("default_limit: got %d, want %d", cfg.Server.DefaultLimit, DefaultDefaultLimit)
	}
	if cfg.Server.MaxLimit != DefaultMaxLimit {
		t.Errorf("max_limit: got %d, want %d", cfg.Server.MaxLimit, DefaultMaxLimit)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("driver: got %q, want memory", cfg.Store.Driver)
	}
	if cfg.Store.Dataset != DefaultDataset {
		t.Errorf("dataset: got %q, want %q", cfg.Store.Dataset, DefaultDataset)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log.level: got %q, want info", cfg.Log.Level)
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9090
  cors_origins:
    - "https://welltegra.network"
  default_limit: 25
  max_limit: 500
store:
  driver: sqlite
  sqlite_path: /tmp/test.db
log:
  level: debug
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("http_port: got %d, want 9090", cfg.Server.HTTPPort)
	}
	if len(cfg.Server.CORSOrigins) != 1 {
		t.Errorf("cors_origins: got %v", cfg.Server.CORSOrigins)
	}
	if cfg.Server.DefaultLimit != 25 || cfg.Server.MaxLimit != 500 {
		t.Errorf("limits: got %d/%d, want 25/500", cfg.Server.DefaultLimit, cfg.Server.MaxLimit)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.SQLitePath != "/tmp/test.db" {
		t.Errorf("store: got %+v", cfg.Store)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("slog level: got %v, want debug", cfg.Log.SlogLevel())
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad port", "server:\n  http_port: 70000\n"},
		{"bad driver", "store:\n  driver: bigquery\n"},
		{"bad log level", "log:\n  level: verbose\n"},
		{"max below default", "server:\n  default_limit: 100\n  max_limit: 10\n"},
		{"zero default limit", "server:\n  default_limit: -1\n"},
		{"memory without dataset", "store:\n  driver: memory\n  dataset: \"\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.yaml)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestStore_DSNResolution(t *testing.T) {
	s := Store{PostgresDSN: "postgres://literal", PostgresDSNEnv: "WELLTEGRA_TEST_DSN_VAR"}

	if got := s.DSN(); got != "postgres://literal" {
		t.Errorf("unset env: got %q, want literal fallback", got)
	}

	t.Setenv("WELLTEGRA_TEST_DSN_VAR", "postgres://from-env")
	if got := s.DSN(); got != "postgres://from-env" {
		t.Errorf("set env: got %q, want env value", got)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := validate(cfg); err != nil {
		t.Errorf("Default() must validate: %v", err)
	}
}
