package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Analyzer.ColumnLimit != 80 {
		t.Errorf("expected default column limit 80, got %d", cfg.Analyzer.ColumnLimit)
	}
	if len(cfg.Analyzer.Extensions) != 1 || cfg.Analyzer.Extensions[0] != ".rune" {
		t.Errorf("expected default extensions [.rune], got %v", cfg.Analyzer.Extensions)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("expected default debounce 500ms, got %s", cfg.Watch.Debounce)
	}
	if cfg.Server.Addr == "" {
		t.Error("expected a default server address")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "negative column limit",
			modify:  func(c *Config) { c.Analyzer.ColumnLimit = -1 },
			wantErr: true,
		},
		{
			name:    "no extensions",
			modify:  func(c *Config) { c.Analyzer.Extensions = nil },
			wantErr: true,
		},
		{
			name:    "zero debounce",
			modify:  func(c *Config) { c.Watch.Debounce = 0 },
			wantErr: true,
		},
		{
			name:    "zero blank line budget",
			modify:  func(c *Config) { c.Format.MaxBlankLines = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rune.yaml")

	content := `analyzer:
  column_limit: 100
  include:
    - "specs/**/*.rune"
server:
  addr: ":9000"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Analyzer.ColumnLimit != 100 {
		t.Errorf("expected column limit 100, got %d", cfg.Analyzer.ColumnLimit)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected addr :9000, got %s", cfg.Server.Addr)
	}
	// Unset fields keep their defaults
	if len(cfg.Analyzer.Extensions) != 1 || cfg.Analyzer.Extensions[0] != ".rune" {
		t.Errorf("expected default extensions to survive, got %v", cfg.Analyzer.Extensions)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		Analyzer: AnalyzerConfig{ColumnLimit: 120},
		Server:   ServerConfig{Addr: ":7000"},
	})

	if base.Analyzer.ColumnLimit != 120 {
		t.Errorf("expected merged column limit 120, got %d", base.Analyzer.ColumnLimit)
	}
	if base.Server.Addr != ":7000" {
		t.Errorf("expected merged addr :7000, got %s", base.Server.Addr)
	}
	if base.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("merge must not clobber unset fields, got %s", base.Watch.Debounce)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rune.yaml")

	cfg := DefaultConfig()
	cfg.Analyzer.ColumnLimit = 96
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.Analyzer.ColumnLimit != 96 {
		t.Errorf("expected column limit 96 after reload, got %d", loaded.Analyzer.ColumnLimit)
	}
}
