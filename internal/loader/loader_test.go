package loader

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recstore/internal/schema"
	"github.com/roach88/recstore/internal/store"
	"github.com/roach88/recstore/internal/testutil"
	"github.com/roach88/recstore/internal/value"
)

func peopleStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(schema.StoreDef{
		Name: "People",
		Fields: []schema.FieldDef{
			{Name: "Name", Type: "string"},
			{Name: "Age", Type: "int", Null: true},
		},
	})
	require.NoError(t, err)
	return s
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func personLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf(`{"Name":"p%d","Age":%d}`, i, i)
	}
	return lines
}

func TestLoadLines_MalformedLineIsSkippedAndReported(t *testing.T) {
	s := peopleStore(t)
	logger, logs := bufferLogger()

	lines := personLines(5)
	lines = append(lines[:2], append([]string{`{"Name": "broken"`}, lines[2:]...)...)

	n, err := New(Options{Logger: logger}).LoadLines(testutil.NewSliceSource(lines...), s, Unlimited)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, s.Len())

	out := logs.String()
	assert.Contains(t, out, "error parsing line")
	assert.Contains(t, out, `{\"Name\": \"broken\"`)
	assert.Contains(t, out, "load complete")
	assert.Contains(t, out, "records=5")
	assert.Contains(t, out, "skipped=1")
	assert.Contains(t, out, "store=People")
}

func TestLoadLines_ValidationFailureIsSkipped(t *testing.T) {
	s := peopleStore(t)
	logger, logs := bufferLogger()

	src := testutil.NewSliceSource(
		`{"Name":"a"}`,
		`{"Name":"b","Age":"old"}`,
		`{"Name":"c","Height":2}`,
		`[1,2,3]`,
		`{"Name":"d"}`,
	)
	res, err := New(Options{Logger: logger}).Load(src, s, Unlimited)
	require.NoError(t, err)
	assert.Equal(t, Result{Loaded: 2, Skipped: 3}, res)
	assert.Contains(t, logs.String(), "TYPE_MISMATCH")
	assert.Contains(t, logs.String(), "UNKNOWN_FIELD")
}

func TestLoadLines_LimitStopsAfterExactlyK(t *testing.T) {
	s := peopleStore(t)
	logger, _ := bufferLogger()
	src := testutil.NewSliceSource(personLines(10)...)

	n, err := New(Options{Logger: logger}).LoadLines(src, s, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 4, src.Consumed(), "no line is read past the limit")
}

func TestLoadLines_LimitCountsOnlySuccesses(t *testing.T) {
	s := peopleStore(t)
	logger, _ := bufferLogger()
	src := testutil.NewSliceSource(`bad`, `{"Name":"a"}`, ``, `bad`, `{"Name":"b"}`, `{"Name":"c"}`)

	n, err := New(Options{Logger: logger}).LoadLines(src, s, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 5, src.Consumed())
}

func TestLoadLines_BlankLinesNotCounted(t *testing.T) {
	s := peopleStore(t)
	logger, logs := bufferLogger()
	src := testutil.NewSliceSource("", `{"Name":"a"}`, "   ", "\t", `{"Name":"b"}`, "")

	n, err := New(Options{Logger: logger}).LoadLines(src, s, Unlimited)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NotContains(t, logs.String(), "error parsing line")
	assert.Contains(t, logs.String(), "skipped=0")
}

func TestLoadLines_ReclaimAndProgressCadence(t *testing.T) {
	s := peopleStore(t)
	logger, logs := bufferLogger()
	reclaimer := testutil.NewCountingReclaimer()

	l := New(Options{
		Logger:       logger,
		Reclaim:      reclaimer.Reclaim,
		ReclaimEvery: 3,
		ReportEvery:  5,
	})
	n, err := l.LoadLines(testutil.NewSliceSource(personLines(11)...), s, Unlimited)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, 3, reclaimer.Calls())
	assert.Equal(t, 2, strings.Count(logs.String(), "load progress"))
	assert.Contains(t, logs.String(), "records=10")
}

func TestLoadLines_DefaultCadence(t *testing.T) {
	s := peopleStore(t)
	logger, logs := bufferLogger()
	reclaimer := testutil.NewCountingReclaimer()

	n, err := New(Options{Logger: logger, Reclaim: reclaimer.Reclaim}).
		LoadLines(testutil.NewSliceSource(personLines(2500)...), s, Unlimited)
	require.NoError(t, err)
	assert.Equal(t, 2500, n)
	assert.Equal(t, 2, reclaimer.Calls())
	assert.NotContains(t, logs.String(), "load progress")
}

func TestLoadLines_SourceErrorPropagates(t *testing.T) {
	s := peopleStore(t)
	logger, logs := bufferLogger()
	src := testutil.NewSliceSource(personLines(5)...)
	src.FailAfter = 3

	n, err := New(Options{Logger: logger}).LoadLines(src, s, Unlimited)
	require.Error(t, err)
	assert.Equal(t, 3, n)
	assert.Contains(t, logs.String(), "load complete", "summary is logged even on failure")
}

func TestLoadFile_SourceOpen(t *testing.T) {
	s := peopleStore(t)
	_, err := New(Options{}).LoadFile(filepath.Join(t.TempDir(), "missing.json"), s, Unlimited)
	require.Error(t, err)
	assert.True(t, errors.Is(err, value.ErrSourceOpen))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadFile_CorruptGzipHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0o644))

	_, err := OpenFile(path)
	assert.True(t, errors.Is(err, value.ErrSourceOpen))
}

func TestLoadFile_PlainGzipZstd(t *testing.T) {
	content := strings.Join(personLines(3), "\r\n") + "\r\n"
	dir := t.TempDir()

	plain := filepath.Join(dir, "people.json")
	require.NoError(t, os.WriteFile(plain, []byte(content), 0o644))

	gz := filepath.Join(dir, "people.json.gz")
	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	_, err := gw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, os.WriteFile(gz, gzBuf.Bytes(), 0o644))

	zst := filepath.Join(dir, "people.json.zst")
	var zBuf bytes.Buffer
	zw, err := zstd.NewWriter(&zBuf)
	require.NoError(t, err)
	_, err = zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(zst, zBuf.Bytes(), 0o644))

	for _, path := range []string{plain, gz, zst} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s := peopleStore(t)
			logger, logs := bufferLogger()
			n, err := New(Options{Logger: logger}).LoadFile(path, s, Unlimited)
			require.NoError(t, err)
			assert.Equal(t, 3, n)
			assert.NotContains(t, logs.String(), "error parsing line")

			ref, err := s.Get(2)
			require.NoError(t, err)
			got, err := ref.Get("Name")
			require.NoError(t, err)
			assert.Equal(t, value.String("p2"), got)
		})
	}
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.json")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(personLines(4), "\n")), 0o644))

	s := peopleStore(t)
	n, err := LoadJSONFile(path, s)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestJSONParser(t *testing.T) {
	p := JSONParser{}

	obj, err := p.Parse(`{"a": 18446744073709551615}`)
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", fmt.Sprint(obj["a"]))

	for _, bad := range []string{`null`, `[1]`, `"s"`, `{"a":1} {"b":2}`, `{"a":1} x`, `{`} {
		_, err := p.Parse(bad)
		assert.Error(t, err, "input %q", bad)
	}

	_, err = p.Parse(`  {"a":1}  `)
	assert.NoError(t, err)
}

func TestParserFunc(t *testing.T) {
	s := peopleStore(t)
	logger, _ := bufferLogger()
	upper := ParserFunc(func(line string) (map[string]any, error) {
		return map[string]any{"Name": strings.ToUpper(line)}, nil
	})

	n, err := New(Options{Parser: upper, Logger: logger}).
		LoadLines(testutil.NewSliceSource("ann", "bob"), s, Unlimited)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ref, err := s.Get(1)
	require.NoError(t, err)
	got, _ := ref.Get("Name")
	assert.Equal(t, value.String("BOB"), got)
}
