package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/roach88/recstore/internal/value"
)

// MaxLineSize is the longest line a source accepts.
const MaxLineSize = 64 << 20

// LineSource is a lazy, finite sequence of text lines.
type LineSource interface {
	// Scan advances to the next line and reports whether there is one.
	Scan() bool
	// Text returns the current line without its terminator.
	Text() string
	// Err returns the read error that stopped Scan, if any.
	Err() error
}

// ReaderSource reads lines from any reader. Trailing CR is stripped so
// CRLF files read the same as LF files.
type ReaderSource struct {
	scanner *bufio.Scanner
}

// NewReaderSource wraps r.
func NewReaderSource(r io.Reader) *ReaderSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &ReaderSource{scanner: sc}
}

func (s *ReaderSource) Scan() bool { return s.scanner.Scan() }

func (s *ReaderSource) Text() string { return strings.TrimSuffix(s.scanner.Text(), "\r") }

func (s *ReaderSource) Err() error { return s.scanner.Err() }

// FileSource reads lines from a file. Files ending in .gz are read through
// gzip and files ending in .zst through zstd.
type FileSource struct {
	*ReaderSource
	name    string
	closers []func() error
}

// OpenFile opens path as a line source. Returns SOURCE_OPEN if the file
// cannot be opened or its compression header is invalid.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sourceOpenError(path, err)
	}
	src := &FileSource{name: path, closers: []func() error{f.Close}}

	var r io.Reader = f
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, sourceOpenError(path, err)
		}
		src.closers = append([]func() error{zr.Close}, src.closers...)
		r = zr
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, sourceOpenError(path, err)
		}
		src.closers = append([]func() error{func() error { zr.Close(); return nil }}, src.closers...)
		r = zr
	}
	src.ReaderSource = NewReaderSource(r)
	return src, nil
}

// Name returns the path the source was opened from.
func (s *FileSource) Name() string { return s.name }

// Close releases the file and any decompressor.
func (s *FileSource) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

func sourceOpenError(path string, err error) error {
	return &value.Error{
		Code:    value.CodeSourceOpen,
		Message: fmt.Sprintf("cannot open %s", path),
		Err:     err,
	}
}
