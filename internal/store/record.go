package store

import (
	"github.com/roach88/recstore/internal/schema"
	"github.com/roach88/recstore/internal/value"
)

// Record is the common surface of both record views.
type Record interface {
	// Schema returns the schema the record is laid out by.
	Schema() *schema.Schema

	// Get returns a copy of a field value. Null is returned for a nullable
	// field with no value. Returns UNKNOWN_FIELD for undeclared names.
	Get(field string) (value.Value, error)

	// Set validates and writes a field value.
	// Returns UNKNOWN_FIELD, TYPE_MISMATCH or NOT_NULLABLE.
	Set(field string, v any) error

	// Fields returns a copy of every field value keyed by name.
	Fields() map[string]value.Value

	// ByRef reports whether the record is bound to a store slot.
	ByRef() bool
}

var (
	_ Record = (*Ref)(nil)
	_ Record = (*Val)(nil)
)

// Ref is a by-reference record: a handle on one slot of a store.
type Ref struct {
	store *Store
	id    int64
}

// ID returns the record id.
func (r *Ref) ID() int64 { return r.id }

// Store returns the store the record lives in.
func (r *Ref) Store() *Store { return r.store }

// Schema returns the store schema.
func (r *Ref) Schema() *schema.Schema { return r.store.schema }

// ByRef always returns true.
func (r *Ref) ByRef() bool { return true }

// Same reports whether both handles address the same slot.
func (r *Ref) Same(other *Ref) bool {
	return other != nil && r.store == other.store && r.id == other.id
}

// Get reads a field from the arena.
func (r *Ref) Get(field string) (value.Value, error) {
	s := r.store
	f, err := lookupField(s.schema, s.name, field)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, s.closedError()
	}
	return value.Clone(s.slots[r.id][f.Index]), nil
}

// Set writes a field into the arena. The write is visible through every Ref
// to the same record.
func (r *Ref) Set(field string, v any) error {
	s := r.store
	f, err := lookupField(s.schema, s.name, field)
	if err != nil {
		return err
	}
	val, err := coerceField(f, s.name, v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closedError()
	}
	s.slots[r.id][f.Index] = val
	return nil
}

// Fields returns a copy of every field value.
func (r *Ref) Fields() map[string]value.Value {
	fields, _ := r.fields()
	return fields
}

func (r *Ref) fields() (map[string]value.Value, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, s.closedError()
	}
	return fieldMap(s.schema, s.slots[r.id]), nil
}

// Snapshot copies the record into a detached by-value record.
func (r *Ref) Snapshot() (*Val, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, s.closedError()
	}
	return &Val{schema: s.schema, store: s.name, values: cloneSlot(s.slots[r.id])}, nil
}

// MarshalJSON encodes the record as canonical JSON, omitting null fields.
func (r *Ref) MarshalJSON() ([]byte, error) {
	fields, err := r.fields()
	if err != nil {
		return nil, err
	}
	return marshalFields(value.MarshalCanonical, fields)
}

// MarshalExact encodes the record like MarshalJSON but keeps keys and
// strings byte for byte, so the output decodes back into an equal record.
func (r *Ref) MarshalExact() ([]byte, error) {
	fields, err := r.fields()
	if err != nil {
		return nil, err
	}
	return marshalFields(value.MarshalExact, fields)
}

// Val is a by-value record. It owns its values and has no id.
type Val struct {
	schema *schema.Schema
	store  string // for error context only
	values []value.Value
}

// Schema returns the schema the record was validated against.
func (v *Val) Schema() *schema.Schema { return v.schema }

// ByRef always returns false.
func (v *Val) ByRef() bool { return false }

// Get returns a copy of a field value.
func (v *Val) Get(field string) (value.Value, error) {
	f, err := lookupField(v.schema, v.store, field)
	if err != nil {
		return nil, err
	}
	return value.Clone(v.values[f.Index]), nil
}

// Set writes a field of this record only.
func (v *Val) Set(field string, in any) error {
	f, err := lookupField(v.schema, v.store, field)
	if err != nil {
		return err
	}
	val, err := coerceField(f, v.store, in)
	if err != nil {
		return err
	}
	v.values[f.Index] = val
	return nil
}

// Fields returns a copy of every field value.
func (v *Val) Fields() map[string]value.Value {
	return fieldMap(v.schema, v.values)
}

// Equal reports whether other has the same field names and values.
func (v *Val) Equal(other Record) bool {
	if other == nil {
		return false
	}
	a, b := v.Fields(), other.Fields()
	if len(a) != len(b) {
		return false
	}
	for name, av := range a {
		bv, ok := b[name]
		if !ok || !value.Equal(av, bv) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the record as canonical JSON, omitting null fields.
func (v *Val) MarshalJSON() ([]byte, error) {
	return marshalFields(value.MarshalCanonical, v.Fields())
}

func lookupField(sch *schema.Schema, storeName, name string) (schema.Field, error) {
	f, ok := sch.Lookup(name)
	if !ok {
		return schema.Field{}, &value.Error{
			Code:    value.CodeUnknownField,
			Message: "field not in schema",
			Store:   storeName,
			Field:   name,
		}
	}
	return f, nil
}

func fieldMap(sch *schema.Schema, slot []value.Value) map[string]value.Value {
	out := make(map[string]value.Value, len(slot))
	for i, v := range slot {
		out[sch.Field(i).Name] = value.Clone(v)
	}
	return out
}

func cloneSlot(slot []value.Value) []value.Value {
	out := make([]value.Value, len(slot))
	for i, v := range slot {
		out[i] = value.Clone(v)
	}
	return out
}

func marshalFields(marshal func(any) ([]byte, error), fields map[string]value.Value) ([]byte, error) {
	present := make(map[string]value.Value, len(fields))
	for name, v := range fields {
		if !value.IsNull(v) {
			present[name] = v
		}
	}
	return marshal(present)
}
