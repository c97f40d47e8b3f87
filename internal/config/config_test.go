package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Prober.TestURL != "https://icanhazip.com" {
		t.Fatalf("test_url = %q", cfg.Prober.TestURL)
	}
	if cfg.Prober.TimeoutMs != 8000 {
		t.Fatalf("timeout_ms = %d, want 8000", cfg.Prober.TimeoutMs)
	}
	if cfg.Prober.PoolSize != 20 {
		t.Fatalf("pool_size = %d, want 20", cfg.Prober.PoolSize)
	}
	if cfg.Scheduler.IntervalSeconds != 60 {
		t.Fatalf("interval_seconds = %d, want 60", cfg.Scheduler.IntervalSeconds)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.Path != "proxies.db" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.API.Addr != "127.0.0.1:3000" {
		t.Fatalf("addr = %q", cfg.API.Addr)
	}
}

func TestLoad_OverridesAndDefaultsMix(t *testing.T) {
	path := writeConfig(t, `{
		"prober": {"pool_size": 50},
		"storage": {"type": "redis", "path": "localhost:6379"},
		"logging": {"level": "debug", "format": "json"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prober.PoolSize != 50 {
		t.Fatalf("pool_size = %d, want 50", cfg.Prober.PoolSize)
	}
	if cfg.Prober.TimeoutMs != 8000 {
		t.Fatalf("timeout_ms default not applied: %d", cfg.Prober.TimeoutMs)
	}
	if cfg.Storage.Type != "redis" || cfg.Storage.Path != "localhost:6379" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
}

func TestLoad_RejectsMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"prober":`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown storage type", `{"storage": {"type": "cassandra", "path": "x"}}`},
		{"timeout too small", `{"prober": {"timeout_ms": 10}}`},
		{"pool size too large", `{"prober": {"pool_size": 100000}}`},
		{"bad test url", `{"prober": {"test_url": "not a url"}}`},
		{"redis without addr", `{"storage": {"type": "redis"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			if _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
