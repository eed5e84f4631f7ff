package testutil

import "fmt"

// SliceSource is an in-memory line source over a fixed slice of lines.
//
// It satisfies loader.LineSource. Setting FailAfter makes Scan stop with an
// error once that many lines have been returned, which simulates a read
// failure in the middle of a file.
type SliceSource struct {
	lines []string
	pos   int
	cur   string
	err   error

	// FailAfter, when positive, is the number of lines returned before the
	// source reports an error.
	FailAfter int
}

// NewSliceSource creates a source that yields lines in order.
func NewSliceSource(lines ...string) *SliceSource {
	return &SliceSource{lines: lines}
}

// Scan advances to the next line.
func (s *SliceSource) Scan() bool {
	if s.err != nil || s.pos >= len(s.lines) {
		return false
	}
	if s.FailAfter > 0 && s.pos >= s.FailAfter {
		s.err = fmt.Errorf("read failed after %d lines", s.pos)
		return false
	}
	s.cur = s.lines[s.pos]
	s.pos++
	return true
}

// Text returns the current line.
func (s *SliceSource) Text() string {
	return s.cur
}

// Err returns the simulated read error, if any.
func (s *SliceSource) Err() error {
	return s.err
}

// Consumed returns how many lines Scan has handed out.
func (s *SliceSource) Consumed() int {
	return s.pos
}
