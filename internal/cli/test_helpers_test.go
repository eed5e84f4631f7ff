package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const peopleYAML = `name: People
fields:
  - name: Name
    type: string
  - name: Age
    type: int
    "null": true
`

// clearEnv keeps RECSTORE_* variables of the host out of config loading.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"RECSTORE_DATABASE", "RECSTORE_SCHEMAS", "RECSTORE_LOG_LEVEL", "RECSTORE_LOAD_LIMIT"} {
		t.Setenv(k, "")
	}
}

// writeFile writes content to name under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// peopleFixture writes a schema directory and a JSON-lines file with two
// valid and two bad lines.
func peopleFixture(t *testing.T) (schemaDir, dataFile string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "schemas/people.yaml", peopleYAML)
	dataFile = writeFile(t, dir, "people.jsonl", strings.Join([]string{
		`{"Name":"Ann","Age":31}`,
		`{"Name": "broken"`,
		`{"Name":"Bob"}`,
		`{"Name":"Cid","Age":"old"}`,
	}, "\n")+"\n")
	return filepath.Join(dir, "schemas"), dataFile
}

// decodeResponse parses a JSON CLI response.
func decodeResponse(t *testing.T, out string) (CLIResponse, map[string]any) {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	data, _ := resp.Data.(map[string]any)
	return resp, data
}
