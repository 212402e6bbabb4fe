package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/apiview/core/casing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apiview.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults fill missing fields", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "camelize", cfg.Render.Case)
		assert.Equal(t, "1.0", cfg.Render.Version)
		assert.Equal(t, "views", cfg.Views.Dir)
		assert.Equal(t, "memory", cfg.Database.Driver)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "json", cfg.Logging.Format)
		assert.Equal(t, "/metrics", cfg.Metrics.Path)
	})

	t.Run("file values are honored", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
render:
  case: dasherize
  host: api.example.com
  namespace: api/v1
database:
  driver: sqlite
  dsn: data.db
`))
		require.NoError(t, err)
		assert.Equal(t, casing.Dasherize, cfg.Style())
		assert.Equal(t, "api.example.com", cfg.Render.Host)
		assert.Equal(t, "api/v1", cfg.Render.Namespace)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "data.db", cfg.Database.DSN)
	})

	t.Run("environment variables expand in the file", func(t *testing.T) {
		t.Setenv("TEST_VIEWS_DIR", "/etc/apiview/views")
		cfg, err := Load(writeConfig(t, "views:\n  dir: ${TEST_VIEWS_DIR}\n"))
		require.NoError(t, err)
		assert.Equal(t, "/etc/apiview/views", cfg.Views.Dir)
	})

	t.Run("env overrides beat file values", func(t *testing.T) {
		t.Setenv("APIVIEW_RENDER_CASE", "underscore")
		cfg, err := Load(writeConfig(t, "render:\n  case: dasherize\n"))
		require.NoError(t, err)
		assert.Equal(t, casing.Underscore, cfg.Style())
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("bad case style", func(t *testing.T) {
		_, err := Load(writeConfig(t, "render:\n  case: kebab\n"))
		assert.Error(t, err)
	})

	t.Run("wrong version", func(t *testing.T) {
		_, err := Load(writeConfig(t, "render:\n  version: \"2.0\"\n"))
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Load(writeConfig(t, "database:\n  driver: postgres\n"))
		assert.Error(t, err)
	})

	t.Run("bad log level", func(t *testing.T) {
		_, err := Load(writeConfig(t, "logging:\n  level: loud\n"))
		assert.Error(t, err)
	})

	t.Run("sqlite gets a default dsn", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "database:\n  driver: sqlite\n"))
		require.NoError(t, err)
		assert.Equal(t, "apiview.db", cfg.Database.DSN)
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APIVIEW_SERVER_PORT", "7777")
	t.Setenv("APIVIEW_METRICS_ENABLED", "yes")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadWithFallback(t *testing.T) {
	t.Run("existing file wins", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 9000\n")
		cfg, err := LoadWithFallback(path)
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Server.Port)
	})

	t.Run("missing file falls back to env", func(t *testing.T) {
		t.Setenv("APIVIEW_SERVER_PORT", "7001")
		cfg, err := LoadWithFallback(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 7001, cfg.Server.Port)
	})
}
