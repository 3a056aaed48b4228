// Package config loads the dashboard's runtime configuration from a local
// YAML file, with sane defaults when the file is absent.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates the client's runtime settings.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Forecast  ForecastConfig  `yaml:"forecast"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Snapshots SnapshotsConfig `yaml:"snapshots"`
}

// Duration parses "15s"-style YAML values, or bare integers as seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = 0
		return nil
	}
	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}
	var seconds int64
	if err := node.Decode(&seconds); err != nil {
		return fmt.Errorf("invalid duration %q", raw)
	}
	*d = Duration(time.Duration(seconds) * time.Second)
	return nil
}

// ServiceConfig points the gateway at the prediction service.
type ServiceConfig struct {
	BaseURL        string   `yaml:"baseUrl"`
	RequestTimeout Duration `yaml:"requestTimeout"`
}

// ForecastConfig seeds the forecast form.
type ForecastConfig struct {
	DefaultHours int `yaml:"defaultHours"`
	MaxHours     int `yaml:"maxHours"`
}

// AnalysisConfig seeds the EDA date range.
type AnalysisConfig struct {
	DefaultRangeDays int `yaml:"defaultRangeDays"`
}

// SnapshotsConfig controls where analysis snapshots are written.
type SnapshotsConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Service.BaseURL) == "" {
		c.Service.BaseURL = "http://127.0.0.1:5001"
	}
	if c.Service.RequestTimeout <= 0 {
		c.Service.RequestTimeout = Duration(15 * time.Second)
	}
	if c.Forecast.DefaultHours <= 0 {
		c.Forecast.DefaultHours = 24
	}
	if c.Forecast.MaxHours <= 0 {
		c.Forecast.MaxHours = 72
	}
	if c.Analysis.DefaultRangeDays <= 0 {
		c.Analysis.DefaultRangeDays = 365
	}
	if strings.TrimSpace(c.Snapshots.Dir) == "" {
		c.Snapshots.Dir = "snapshots"
	}
}

func (c *Config) validate() error {
	if strings.Contains(c.Service.BaseURL, " ") {
		return fmt.Errorf("service baseUrl %q must not contain spaces", c.Service.BaseURL)
	}
	if !strings.HasPrefix(c.Service.BaseURL, "http://") && !strings.HasPrefix(c.Service.BaseURL, "https://") {
		return fmt.Errorf("service baseUrl %q must be an http(s) URL", c.Service.BaseURL)
	}
	if c.Forecast.DefaultHours > c.Forecast.MaxHours {
		return fmt.Errorf("forecast defaultHours %d exceeds maxHours %d", c.Forecast.DefaultHours, c.Forecast.MaxHours)
	}
	return nil
}

// ResolvePath picks the config file path: explicit argument, then the
// AIRDASH_CONFIG environment variable, then ./airdash.yaml. Only local
// filesystem paths are supported.
func ResolvePath(explicit string) (string, error) {
	path := strings.TrimSpace(explicit)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("AIRDASH_CONFIG"))
	}
	if path == "" {
		path = "airdash.yaml"
	}
	if strings.Contains(path, "://") {
		return "", fmt.Errorf("only local filesystem paths are supported")
	}
	resolved, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve config path %q: %w", path, err)
	}
	return resolved, nil
}

// Load reads and validates the file at path. A missing file is not an
// error: the defaults apply.
func Load(path string) (Config, error) {
	blob, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(blob, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}
