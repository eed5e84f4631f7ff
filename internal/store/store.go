package store

import (
	"fmt"
	"sync"

	"github.com/roach88/recstore/internal/schema"
	"github.com/roach88/recstore/internal/value"
)

// Store is a named, schema-typed collection of records.
type Store struct {
	name   string
	schema *schema.Schema

	mu     sync.RWMutex
	slots  [][]value.Value
	closed bool

	aggrNames []string
	aggrs     map[string]Aggregate
}

// New creates an empty store from a definition.
// Returns an INVALID_SCHEMA error if the definition has no name, no fields,
// duplicate field names or unknown types. Nothing is created on failure.
func New(def schema.StoreDef) (*Store, error) {
	s, err := def.Compile()
	if err != nil {
		return nil, err
	}
	return &Store{
		name:   def.Name,
		schema: s,
		aggrs:  make(map[string]Aggregate),
	}, nil
}

// Name returns the store name.
func (s *Store) Name() string {
	return s.name
}

// Schema returns the store schema. Schemas are immutable.
func (s *Store) Schema() *schema.Schema {
	return s.schema
}

// Def returns the definition the store can be recreated from.
func (s *Store) Def() schema.StoreDef {
	return schema.StoreDef{Name: s.name, Fields: s.schema.Defs()}
}

// Len returns the number of records added so far.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// Add validates input against the schema and appends it as a new record.
// Returns the new record's id. On error the store is unchanged.
//
// Input keys must be field names. Nullable fields absent from input are
// stored as null; absent non-nullable fields get the zero value of their
// type.
func (s *Store) Add(input map[string]any) (int64, error) {
	slot, err := buildSlot(s.schema, s.name, input)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, s.closedError()
	}
	id := int64(len(s.slots))
	s.slots = append(s.slots, slot)
	observers := s.observersLocked()
	s.mu.Unlock()

	if len(observers) > 0 {
		ref := &Ref{store: s, id: id}
		for _, o := range observers {
			o.OnAdd(ref)
		}
	}
	return id, nil
}

// Get returns a by-reference view of the record with the given id.
// Returns NOT_FOUND for a negative id or one past the last record.
func (s *Store) Get(id int64) (*Ref, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, s.closedError()
	}
	if id < 0 || id >= int64(len(s.slots)) {
		return nil, &value.Error{
			Code:    value.CodeNotFound,
			Message: fmt.Sprintf("no record with id %d", id),
			Store:   s.name,
		}
	}
	return &Ref{store: s, id: id}, nil
}

// NewRecord validates input the same way Add does and returns a detached
// by-value record. The store is not touched.
func (s *Store) NewRecord(input map[string]any) (*Val, error) {
	slot, err := buildSlot(s.schema, s.name, input)
	if err != nil {
		return nil, err
	}
	return &Val{schema: s.schema, store: s.name, values: slot}, nil
}

// Each calls fn for every record in id order until fn returns false.
// Records added during iteration are not visited.
func (s *Store) Each(fn func(*Ref) bool) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return s.closedError()
	}
	n := int64(len(s.slots))
	s.mu.RUnlock()

	for id := int64(0); id < n; id++ {
		if !fn(&Ref{store: s, id: id}) {
			return nil
		}
	}
	return nil
}

// Close releases the arena. Every later operation on the store or on a
// record view bound to it fails with STORE_CLOSED. Close is idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.slots = nil
}

// Closed reports whether Close has been called.
func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store) closedError() error {
	return &value.Error{Code: value.CodeStoreClosed, Message: "store is closed", Store: s.name}
}

// buildSlot turns input into one value per schema field, in schema order.
func buildSlot(sch *schema.Schema, storeName string, input map[string]any) ([]value.Value, error) {
	for _, key := range value.SortedKeys(input) {
		if _, ok := sch.Lookup(key); !ok {
			return nil, &value.Error{
				Code:    value.CodeUnknownField,
				Message: "field not in schema",
				Store:   storeName,
				Field:   key,
			}
		}
	}

	slot := make([]value.Value, sch.Len())
	for i := range slot {
		f := sch.Field(i)
		in, present := input[f.Name]
		if !present {
			if f.Nullable {
				slot[i] = value.Null{}
			} else {
				slot[i] = value.Zero(f.Type)
			}
			continue
		}
		v, err := coerceField(f, storeName, in)
		if err != nil {
			return nil, err
		}
		slot[i] = v
	}
	return slot, nil
}

// coerceField converts in to the field's type and enforces nullability.
func coerceField(f schema.Field, storeName string, in any) (value.Value, error) {
	v, err := value.Coerce(f.Type, in)
	if err != nil {
		if e, ok := err.(*value.Error); ok {
			e.Store = storeName
			e.Field = f.Name
		}
		return nil, err
	}
	if value.IsNull(v) && !f.Nullable {
		return nil, &value.Error{
			Code:    value.CodeNotNullable,
			Message: "null value for non-nullable field",
			Store:   storeName,
			Field:   f.Name,
		}
	}
	// Values stored in the arena never share backing arrays with the caller.
	return value.Clone(v), nil
}
