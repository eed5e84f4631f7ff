// Package value provides the closed set of field types a store schema can
// declare, the tagged-union Value that holds one field's data, and the
// coercion table that turns loosely typed input (decoded JSON, YAML, Go
// literals) into a Value of a declared type.
//
// This package imports nothing internal. Schema, store, loader and journal
// all build on it, and it also owns the error taxonomy they share.
//
// Key constraints:
//   - Null is an explicit Value, never a zero scalar
//   - Vector values are deep-copied at every store boundary (Clone)
//   - MarshalCanonical is the only serialization used for digests and golden files
package value
