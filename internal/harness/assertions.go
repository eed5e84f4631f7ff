package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/recstore/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Store    string
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s on %s\n", e.Type, e.Store)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against the base and returns
// one message per failure.
func EvaluateAssertions(base *store.Base, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(base, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(base *store.Base, a Assertion) error {
	s, err := base.Store(a.Store)
	if err != nil {
		return &AssertionError{Type: a.Type, Store: a.Store, Expected: "store exists", Actual: err.Error()}
	}

	switch a.Type {
	case AssertCount:
		return assertCount(s, a)
	case AssertField:
		return assertField(s, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertCount checks the number of records in the store.
func assertCount(s *store.Store, a Assertion) error {
	if n := s.Len(); n != a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Store:    a.Store,
			Expected: fmt.Sprintf("%d records", a.Count),
			Actual:   fmt.Sprintf("%d records", n),
		}
	}
	return nil
}

// assertField checks one field of one record.
func assertField(s *store.Store, a Assertion) error {
	fail := func(actual string) error {
		want := "null"
		if !a.Null {
			want = fmt.Sprint(a.Value)
		}
		return &AssertionError{
			Type:     AssertField,
			Store:    a.Store,
			Expected: fmt.Sprintf("record %d field %s = %s", a.ID, a.Field, want),
			Actual:   actual,
		}
	}

	f, ok := s.Schema().Lookup(a.Field)
	if !ok {
		return fail("field not in schema")
	}
	ref, err := s.Get(a.ID)
	if err != nil {
		return fail(err.Error())
	}
	got, err := ref.Get(a.Field)
	if err != nil {
		return fail(err.Error())
	}
	if msg := compareValue(f.Type, a.Value, a.Null, got); msg != "" {
		return fail(msg)
	}
	return nil
}
