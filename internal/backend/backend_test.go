package backend

import (
	"path/filepath"
	"testing"

	"spendlite/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataBackend:   "json",
		JSONStorePath: "./data/spendlite.json",
		SQLiteDBPath:  "./data/spendlite.db",
	}

	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if got.Type != JSONBackend {
		t.Errorf("type = %q, want %q", got.Type, JSONBackend)
	}
	if got.JSONPath != cfg.JSONStorePath {
		t.Errorf("json path = %q, want %q", got.JSONPath, cfg.JSONStorePath)
	}
}

func TestFromAppConfigInvalid(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Errorf("nil config must be rejected")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Errorf("unknown backend must be rejected")
	}
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"memory", Config{Type: MemoryBackend}},
		{"json", Config{Type: JSONBackend, JSONPath: filepath.Join(dir, "ledger.json")}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "ledger.db")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Open(tt.cfg, nil)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if result.Persistence == nil {
				t.Fatalf("persistence must not be nil")
			}
			if result.Cleanup != nil {
				if err := result.Cleanup(); err != nil {
					t.Errorf("cleanup: %v", err)
				}
			}
		})
	}
}

func TestOpenMissingPaths(t *testing.T) {
	if _, err := Open(Config{Type: JSONBackend}, nil); err == nil {
		t.Errorf("json backend without a path must be rejected")
	}
	if _, err := Open(Config{Type: SQLiteBackend}, nil); err == nil {
		t.Errorf("sqlite backend without a path must be rejected")
	}
}
