package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "recstore.toml", `
database = "data/recstore.db"
schemas = ["schemas/"]

[loader]
reclaim_every = 500
limit = 20

[logging]
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/recstore.db", cfg.Database)
	assert.Equal(t, []string{"schemas/"}, cfg.Schemas)
	assert.Equal(t, 500, cfg.Loader.ReclaimEvery)
	assert.Equal(t, 10000, cfg.Loader.ReportEvery, "unset keys keep defaults")
	assert.Equal(t, 20, cfg.Loader.Limit)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "recstore.yaml", `
database: test.db
loader:
  report_every: 5
logging:
  level: warn
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test.db", cfg.Database)
	assert.Equal(t, 5, cfg.Loader.ReportEvery)
	assert.Equal(t, 1000, cfg.Loader.ReclaimEvery)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}

func TestLoad_EmptyYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_UnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "bad.toml", "databse = \"x\"\n"))
	assert.ErrorContains(t, err, "unknown key")

	_, err = Load(writeFile(t, "bad.yaml", "databse: x\n"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeFile(t, "neg.toml", "[loader]\nreclaim_every = -1\n"))
	assert.ErrorContains(t, err, "reclaim_every")

	_, err = Load(writeFile(t, "level.yaml", "logging:\n  level: loud\n"))
	assert.ErrorContains(t, err, "unknown log level")

	_, err = Load(writeFile(t, "cfg.ini", "x=1"))
	assert.ErrorContains(t, err, "unsupported extension")

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RECSTORE_DATABASE", "env.db")
	t.Setenv("RECSTORE_LOG_LEVEL", "error")
	t.Setenv("RECSTORE_LOAD_LIMIT", "7")
	t.Setenv("RECSTORE_SCHEMAS", "a"+string(os.PathListSeparator)+"b")

	cfg, err := Load(writeFile(t, "recstore.toml", "database = \"file.db\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Database)
	assert.Equal(t, slog.LevelError, cfg.SlogLevel())
	assert.Equal(t, 7, cfg.Loader.Limit)
	assert.Equal(t, []string{"a", "b"}, cfg.Schemas)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = ParseLevel("")
	assert.Error(t, err)
}
