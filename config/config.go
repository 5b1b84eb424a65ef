// Package config provides configuration loading and management for rune.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete rune configuration
type Config struct {
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Watch    WatchConfig    `yaml:"watch"`
	Server   ServerConfig   `yaml:"server"`
	Format   FormatConfig   `yaml:"format"`
}

// AnalyzerConfig configures document analysis
type AnalyzerConfig struct {
	// ColumnLimit is the soft line-length limit (violations warn)
	ColumnLimit int `yaml:"column_limit"`
	// Extensions lists the file extensions treated as rune documents
	Extensions []string `yaml:"extensions"`
	// Include is the set of glob patterns used for document discovery
	Include []string `yaml:"include"`
}

// WatchConfig configures the filesystem watcher
type WatchConfig struct {
	// Debounce is how long to wait after the last write before
	// re-analyzing a document
	Debounce time.Duration `yaml:"debounce"`
}

// ServerConfig configures the HTTP query server
type ServerConfig struct {
	// Addr is the listen address
	Addr string `yaml:"addr"`
}

// FormatConfig configures the formatter
type FormatConfig struct {
	// MaxBlankLines is the largest run of blank lines the formatter keeps
	MaxBlankLines int `yaml:"max_blank_lines"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			ColumnLimit: 80,
			Extensions:  []string{".rune"},
			Include:     []string{"**/*.rune"},
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr: ":8732",
		},
		Format: FormatConfig{
			MaxBlankLines: 2,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Analyzer.ColumnLimit < 0 {
		return fmt.Errorf("analyzer.column_limit must not be negative")
	}
	if len(c.Analyzer.Extensions) == 0 {
		return fmt.Errorf("analyzer.extensions is required")
	}
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive")
	}
	if c.Format.MaxBlankLines < 1 {
		return fmt.Errorf("format.max_blank_lines must be at least 1")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Analyzer
	if other.Analyzer.ColumnLimit != 0 {
		c.Analyzer.ColumnLimit = other.Analyzer.ColumnLimit
	}
	if len(other.Analyzer.Extensions) > 0 {
		c.Analyzer.Extensions = other.Analyzer.Extensions
	}
	if len(other.Analyzer.Include) > 0 {
		c.Analyzer.Include = other.Analyzer.Include
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}

	// Format
	if other.Format.MaxBlankLines != 0 {
		c.Format.MaxBlankLines = other.Format.MaxBlankLines
	}
}
