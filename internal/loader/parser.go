package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Parser turns one line into a record-like object.
type Parser interface {
	Parse(line string) (map[string]any, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(line string) (map[string]any, error)

func (f ParserFunc) Parse(line string) (map[string]any, error) { return f(line) }

// JSONParser parses one JSON object per line. Numbers are kept as
// json.Number so integers beyond 2^53 survive into uint64 fields.
type JSONParser struct{}

// Parse decodes line. Anything other than a single object is an error.
func (JSONParser) Parse(line string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(line)))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("parse JSON: expected an object, got null")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse JSON: unexpected data after object")
	}
	return obj, nil
}
