// Package config handles resolving configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/goccy/go-yaml"
)

const (
	defaultConcurrency = 4
	// maxConfigBytes bounds the size of a configuration file.
	maxConfigBytes = 1 << 20
)

// Config is the resolved configuration of the wysiwyg tool.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
	// DevMode adds source locations to log records.
	DevMode bool `yaml:"dev_mode"`
	// CacheBytes, when positive, memoizes chain outputs up to that many
	// bytes.
	CacheBytes int64 `yaml:"cache_bytes"`
	// Concurrency bounds how many inputs are processed at once.
	Concurrency int `yaml:"concurrency"`
	// Chain lists the modifiers to run, in order.
	Chain []ModifierConfig `yaml:"chain"`
}

// ModifierConfig selects a modifier by name and holds its options.
type ModifierConfig struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options,omitempty"`
}

// DefaultPath is where the configuration file is looked up by default.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "wysiwyg.yaml")
}

// Default returns a version of the config with all default values populated.
// The default chain tidies editor output: it drops empty paragraphs, applies
// the default tag allow list, then links bare URLs and e-mail addresses.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		DevMode:     false,
		CacheBytes:  0,
		Concurrency: defaultConcurrency,
		Chain: []ModifierConfig{
			{Name: "empty_paragraphs"},
			{Name: "treat_tags"},
			{Name: "url_to_link"},
			{Name: "mail_to_link"},
		},
	}
}

// Load loads a YAML configuration file from a path, merges it with defaults,
// and validates it. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // allow the config file to be loaded from anywhere
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(path, data)
}

// Parse merges YAML configuration data over the defaults and validates the
// result. The name is only used in error messages.
func Parse(name string, data []byte) (*Config, error) {
	if len(data) > maxConfigBytes {
		return nil, fmt.Errorf("config file at %s exceeds %d bytes", name, maxConfigBytes)
	}
	cfg := Default()
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file at %s: %w", name, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Marshal renders the config as YAML that Parse accepts.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	return data, nil
}

// Validate checks every field, including that the chain can be built.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.CacheBytes < 0 {
		errs = append(errs, fmt.Errorf("cache_bytes must not be negative, got %d", c.CacheBytes))
	}
	if _, err := Build(c.Chain); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
