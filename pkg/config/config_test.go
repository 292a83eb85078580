package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/gridcraft/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Grid.XCells != 50 || cfg.Grid.YCells != 20 {
		t.Errorf("default grid = %dx%d, want 50x20", cfg.Grid.XCells, cfg.Grid.YCells)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[grid]
x_cells = 12
y_cells = 8

[store]
backend = "redis"
redis_addr = "cache:6379"
ttl = "720h"

[prompts]
text = "Hi"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Grid.XCells != 12 || cfg.Grid.YCells != 8 {
		t.Errorf("grid = %dx%d, want 12x8", cfg.Grid.XCells, cfg.Grid.YCells)
	}
	if cfg.Store.Backend != BackendRedis || cfg.Store.RedisAddr != "cache:6379" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.TTL.Duration != 720*time.Hour {
		t.Errorf("ttl = %v, want 720h", cfg.Store.TTL)
	}
	// untouched values keep their defaults
	if cfg.Prompts.Font != Default().Prompts.Font || cfg.Prompts.Text != "Hi" {
		t.Errorf("prompts = %+v", cfg.Prompts)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		code    errors.Code
	}{
		{"bad toml", "[grid\nx_cells = ", errors.ErrCodeInvalidInput},
		{"zero grid", "[grid]\nx_cells = 0", errors.ErrCodeInvalidGrid},
		{"unknown backend", "[store]\nbackend = \"s3\"", errors.ErrCodeUnsupported},
		{"bad duration", "[store]\nttl = \"soon\"", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("an explicit missing file should be an error")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Grid.XCells = 33
	cfg.Cache.Backend = CacheNone

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip mismatch\n got %+v\nwant %+v", got, cfg)
	}
}
