package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_InMemory(t *testing.T) {
	clearEnv(t)
	schemaDir, dataFile := peopleFixture(t)

	stdout, stderr, err := executeRoot(t, "load", "People", dataFile, "--schema", schemaDir)
	require.NoError(t, err)
	assert.Equal(t, "Loaded 2 record(s) into People (2 skipped, 2 total)\n", stdout)
	assert.Contains(t, stderr, "error parsing line")
	assert.Contains(t, stderr, "load complete")
}

func TestLoad_JournalRoundTrip(t *testing.T) {
	clearEnv(t)
	schemaDir, dataFile := peopleFixture(t)
	db := filepath.Join(t.TempDir(), "recstore.db")

	stdout, _, err := executeRoot(t, "load", "People", dataFile, "--schema", schemaDir, "--db", db, "--format", "json")
	require.NoError(t, err)
	resp, data := decodeResponse(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, float64(2), data["loaded"])
	assert.Equal(t, float64(2), data["skipped"])
	cp, ok := data["checkpoint"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), cp["seq"])
	assert.Len(t, cp["id"], 36)

	// The second load restores the first image and appends to it.
	stdout, _, err = executeRoot(t, "load", "People", dataFile, "--schema", schemaDir, "--db", db, "--limit", "1", "--format", "json")
	require.NoError(t, err)
	_, data = decodeResponse(t, stdout)
	assert.Equal(t, float64(1), data["loaded"])
	assert.Equal(t, float64(3), data["records"])
	cp = data["checkpoint"].(map[string]any)
	assert.Equal(t, float64(2), cp["seq"])

	// Without --schema the store comes from the journal alone.
	stdout, _, err = executeRoot(t, "load", "People", dataFile, "--db", db, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Loaded 1 record(s) into People (0 skipped, 4 total)\n")
	assert.Contains(t, stdout, "(seq 3)")
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	schemaDir, dataFile := peopleFixture(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "recstore.db")
	cfg := writeFile(t, dir, "recstore.toml", `
database = "`+filepath.ToSlash(db)+`"
schemas = ["`+filepath.ToSlash(schemaDir)+`"]

[loader]
limit = 1
`)

	stdout, _, err := executeRoot(t, "load", "People", dataFile, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Loaded 1 record(s) into People (0 skipped, 1 total)")

	// --limit overrides the config.
	stdout, _, err = executeRoot(t, "load", "People", dataFile, "--config", cfg, "--limit", "0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Loaded 2 record(s) into People (2 skipped, 3 total)")
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	schemaDir, dataFile := peopleFixture(t)

	t.Run("unknown store", func(t *testing.T) {
		stdout, _, err := executeRoot(t, "load", "Nobody", dataFile, "--schema", schemaDir, "--format", "json")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		resp, _ := decodeResponse(t, stdout)
		assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		stdout, _, err := executeRoot(t, "load", "People", filepath.Join(t.TempDir(), "none.jsonl"), "--schema", schemaDir, "--format", "json")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		resp, _ := decodeResponse(t, stdout)
		assert.Equal(t, "SOURCE_OPEN", resp.Error.Code)
	})

	t.Run("bad schema path", func(t *testing.T) {
		_, _, err := executeRoot(t, "load", "People", dataFile, "--schema", "/nonexistent/schemas")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("bad config", func(t *testing.T) {
		cfg := writeFile(t, t.TempDir(), "bad.toml", "[loader]\nreclaim = 5\n")
		stdout, _, err := executeRoot(t, "load", "People", dataFile, "--config", cfg)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, stdout, "Error [E_CONFIG]")
	})

	t.Run("definition differs from journal", func(t *testing.T) {
		db := filepath.Join(t.TempDir(), "recstore.db")
		_, _, err := executeRoot(t, "load", "People", dataFile, "--schema", schemaDir, "--db", db)
		require.NoError(t, err)

		other := writeFile(t, t.TempDir(), "people.yaml", "name: People\nfields:\n  - {name: Name, type: string}\n")
		stdout, _, err := executeRoot(t, "load", "People", dataFile, "--schema", other, "--db", db)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, stdout, "definition differs")
	})
}

func TestEnsureStores_NoPaths(t *testing.T) {
	assert.NoError(t, ensureStores(nil, nil))
}
