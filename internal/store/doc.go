// Package store is the in-memory typed record store.
//
// A Store owns an arena of record slots laid out by its schema. Records are
// addressed by dense ids assigned on Add (0, 1, 2, ...) and never reused.
// Two views exist over a record:
//
//   - *Ref is bound to its slot. Reads and writes go to the arena, so a Set
//     through one Ref is visible through every other Ref to the same id.
//   - *Val owns a deep copy of the field values and has no id or store.
//
// Every write path goes through the same validation: unknown fields are
// UNKNOWN_FIELD, values that do not coerce to the declared type are
// TYPE_MISMATCH, and explicit nulls on non-nullable fields are NOT_NULLABLE.
// A failed Add leaves the store unchanged.
//
// # Concurrency
//
// Each store has one RWMutex. Add and Set take the write lock; Get, Len and
// record reads take the read lock. Attached aggregates are notified after the
// lock is released.
package store
