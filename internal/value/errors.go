package value

import (
	"errors"
	"fmt"
)

// Code categorizes store errors.
type Code string

const (
	// CodeInvalidSchema indicates a duplicate field, unknown type or missing name at store creation.
	CodeInvalidSchema Code = "INVALID_SCHEMA"

	// CodeUnknownField indicates access to a field the schema does not declare.
	CodeUnknownField Code = "UNKNOWN_FIELD"

	// CodeTypeMismatch indicates a value whose shape does not fit the declared type.
	CodeTypeMismatch Code = "TYPE_MISMATCH"

	// CodeNotNullable indicates a null value for a field declared non-nullable.
	CodeNotNullable Code = "NOT_NULLABLE"

	// CodeNotFound indicates a record id with no slot behind it.
	CodeNotFound Code = "NOT_FOUND"

	// CodeSourceOpen indicates a line source that could not be opened.
	CodeSourceOpen Code = "SOURCE_OPEN"

	// CodeStoreClosed indicates use of a record view after its store was closed.
	CodeStoreClosed Code = "STORE_CLOSED"

	// CodeDuplicateStore indicates a store name already registered in a base.
	CodeDuplicateStore Code = "DUPLICATE_STORE"
)

// Error is the error type returned by every store operation.
//
// Store and Field are filled in when known so callers (and the loader's
// per-line report) can say exactly which record or field was rejected.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Store names the store involved, if any.
	Store string

	// Field names the field involved, if any.
	Field string

	// Err is the underlying cause, if any.
	Err error
}

// Sentinels for errors.Is. Matching compares codes only.
var (
	ErrInvalidSchema  = &Error{Code: CodeInvalidSchema}
	ErrUnknownField   = &Error{Code: CodeUnknownField}
	ErrTypeMismatch   = &Error{Code: CodeTypeMismatch}
	ErrNotNullable    = &Error{Code: CodeNotNullable}
	ErrNotFound       = &Error{Code: CodeNotFound}
	ErrSourceOpen     = &Error{Code: CodeSourceOpen}
	ErrStoreClosed    = &Error{Code: CodeStoreClosed}
	ErrDuplicateStore = &Error{Code: CodeDuplicateStore}
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Store != "" && e.Field != "":
		return fmt.Sprintf("%s: %s (store=%s, field=%s)", e.Code, msg, e.Store, e.Field)
	case e.Store != "":
		return fmt.Sprintf("%s: %s (store=%s)", e.Code, msg, e.Store)
	case e.Field != "":
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, msg, e.Field)
	default:
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// NewError creates an Error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// mismatch creates a TYPE_MISMATCH error for input that cannot become t.
func mismatch(t Type, in any, reason string) *Error {
	if reason == "" {
		return &Error{Code: CodeTypeMismatch, Message: fmt.Sprintf("cannot use %T as %s", in, t)}
	}
	return &Error{Code: CodeTypeMismatch, Message: fmt.Sprintf("cannot use %T as %s: %s", in, t, reason)}
}
