package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidDirectory(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "people.yaml", peopleYAML)
	writeFile(t, dir, "events.json", `{"name":"Events","fields":[{"name":"At","type":"datetime"}]}`)

	stdout, _, err := executeRoot(t, "validate", dir)
	require.NoError(t, err)
	assert.Equal(t, "✓ 2 store definition(s) valid\n", stdout)
}

func TestValidate_JSON(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "people.yaml", peopleYAML)

	stdout, _, err := executeRoot(t, "validate", path, "--format", "json")
	require.NoError(t, err)
	resp, data := decodeResponse(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, []any{"People"}, data["stores"])
	assert.NotContains(t, data, "errors")
}

func TestValidate_InvalidDefinitions(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "name: People\nfields:\n  - {name: Age, type: decimal}\n")
	writeFile(t, dir, "b.json", `[{"name":"Tags","fields":[{"name":"T","type":"string"}]},{"name":"Tags","fields":[{"name":"T","type":"string"}]}]`)

	stdout, _, err := executeRoot(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ Validation failed with 2 error(s):\n")
	assert.Contains(t, stdout, `  [INVALID_SCHEMA] People.Age: unknown field type "decimal"`)
	assert.Contains(t, stdout, "  [INVALID_SCHEMA] Tags: store defined more than once")
}

func TestValidate_InvalidJSONOutput(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "name: People\nfields: []\n")

	stdout, _, err := executeRoot(t, "validate", dir, "--format", "json")
	require.Error(t, err)
	_, data := decodeResponse(t, stdout)
	assert.Equal(t, false, data["valid"])
	errs := data["errors"].([]any)
	require.Len(t, errs, 1)
	first := errs[0].(map[string]any)
	assert.Equal(t, "INVALID_SCHEMA", first["code"])
	assert.Equal(t, "People", first["store"])
}

func TestValidate_ParseError(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "name: People\nfeilds: []\n")

	stdout, _, err := executeRoot(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [INVALID_SCHEMA]")
}

func TestValidate_EmptyDirectory(t *testing.T) {
	clearEnv(t)
	stdout, _, err := executeRoot(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "no store definitions found")
}

func TestValidate_NonExistentPath(t *testing.T) {
	clearEnv(t)
	_, _, err := executeRoot(t, "validate", "/nonexistent/schemas")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_VerboseOutput(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "people.yaml", peopleYAML)

	_, stderr, err := executeRoot(t, "validate", dir, "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Found 1 definition file(s)")
	assert.Contains(t, stderr, "Validating store: People")
}
