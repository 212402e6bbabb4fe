// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artpar/apiview/core/casing"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Render   RenderConfig   `yaml:"render"`
	Views    ViewsConfig    `yaml:"views"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RenderConfig configures document rendering and link generation. Scheme,
// host, port, and namespace are optional defaults; per-request connection
// info overrides them and absence of both degrades links to path-only.
type RenderConfig struct {
	Case      string `yaml:"case"`      // camelize (default), dasherize, underscore
	Scheme    string `yaml:"scheme"`    // link scheme override
	Host      string `yaml:"host"`      // link host override
	Port      int    `yaml:"port"`      // link port override
	Namespace string `yaml:"namespace"` // path prefix for every generated URL
	Version   string `yaml:"version"`   // JSON:API version, fixed "1.0"
}

// ViewsConfig configures declarative view loading.
type ViewsConfig struct {
	Dir string `yaml:"dir"` // directory of YAML view definitions
}

// DatabaseConfig configures the resource store backing the demo surface.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "memory" or "sqlite"
	DSN    string `yaml:"dsn"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	APIVIEW_SERVER_HOST      - Server host (default: 0.0.0.0)
//	APIVIEW_SERVER_PORT      - Server port (default: 8080)
//	APIVIEW_RENDER_CASE      - Wire case style (default: camelize)
//	APIVIEW_RENDER_SCHEME    - Link scheme override
//	APIVIEW_RENDER_HOST      - Link host override
//	APIVIEW_RENDER_PORT      - Link port override
//	APIVIEW_RENDER_NAMESPACE - Link path prefix
//	APIVIEW_VIEWS_DIR        - View definitions directory (default: views)
//	APIVIEW_DATABASE_DRIVER  - Store driver: memory or sqlite (default: memory)
//	APIVIEW_DATABASE_DSN     - Store DSN (sqlite file path)
//	APIVIEW_LOG_LEVEL        - Log level (default: info)
//	APIVIEW_LOG_FORMAT       - Log format: json or console (default: json)
//	APIVIEW_METRICS_ENABLED  - Enable /metrics endpoint (default: true)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables when the file does not exist.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies APIVIEW_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("APIVIEW_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("APIVIEW_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("APIVIEW_RENDER_CASE"); v != "" {
		cfg.Render.Case = v
	}
	if v := os.Getenv("APIVIEW_RENDER_SCHEME"); v != "" {
		cfg.Render.Scheme = v
	}
	if v := os.Getenv("APIVIEW_RENDER_HOST"); v != "" {
		cfg.Render.Host = v
	}
	if v := os.Getenv("APIVIEW_RENDER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Render.Port = port
		}
	}
	if v := os.Getenv("APIVIEW_RENDER_NAMESPACE"); v != "" {
		cfg.Render.Namespace = v
	}

	if v := os.Getenv("APIVIEW_VIEWS_DIR"); v != "" {
		cfg.Views.Dir = v
	}

	if v := os.Getenv("APIVIEW_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("APIVIEW_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("APIVIEW_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("APIVIEW_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("APIVIEW_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("APIVIEW_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Render.Case == "" {
		cfg.Render.Case = string(casing.Default)
	}
	if cfg.Render.Version == "" {
		cfg.Render.Version = "1.0"
	}

	if cfg.Views.Dir == "" {
		cfg.Views.Dir = "views"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "memory"
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN == "" {
		cfg.Database.DSN = "apiview.db"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if _, err := casing.ParseStyle(cfg.Render.Case); err != nil {
		return fmt.Errorf("render.case: %w", err)
	}

	if cfg.Render.Version != "1.0" {
		return fmt.Errorf("render.version must be \"1.0\", got %q", cfg.Render.Version)
	}

	validDrivers := map[string]bool{"memory": true, "sqlite": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'memory' or 'sqlite', got %q", cfg.Database.Driver)
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required when database.driver is 'sqlite'")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	return nil
}

// Style returns the validated wire case style.
func (c *Config) Style() casing.Style {
	style, err := casing.ParseStyle(c.Render.Case)
	if err != nil {
		return casing.Default
	}
	return style
}
