// Package schema holds store definitions: the ordered field declarations a
// store is created from, their validation, and loading them from JSON, YAML
// or CUE files.
package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recstore/internal/value"
)

// FieldDef is one field declaration as written in a definition file.
type FieldDef struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	Null bool   `json:"null,omitempty" yaml:"null,omitempty"`
}

// UnmarshalYAML decodes a field declaration. Keys are matched by their
// source text because a bare null key resolves to the YAML null scalar.
func (f *FieldDef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: field declaration must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var err error
		switch key.Value {
		case "name":
			err = val.Decode(&f.Name)
		case "type":
			err = val.Decode(&f.Type)
		case "null":
			err = val.Decode(&f.Null)
		default:
			err = fmt.Errorf("line %d: unknown key %q in field declaration", key.Line, key.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// StoreDef describes one store. Joins and keys are accepted so definition
// files written for the full engine load unchanged, but nothing here acts on
// them.
type StoreDef struct {
	Name   string           `json:"name" yaml:"name"`
	Fields []FieldDef       `json:"fields" yaml:"fields"`
	Joins  []map[string]any `json:"joins,omitempty" yaml:"joins,omitempty"`
	Keys   []map[string]any `json:"keys,omitempty" yaml:"keys,omitempty"`
}

// Field is a validated field declaration.
type Field struct {
	Name     string
	Type     value.Type
	Nullable bool

	// Index is the field's position in the schema.
	Index int
}

// Schema is the ordered, immutable set of fields of a store.
type Schema struct {
	fields []Field
	byName map[string]int
}

// New validates field declarations and builds a Schema.
// Returns an INVALID_SCHEMA error for an empty field list, an empty or
// duplicate name, or an unknown type. Nothing is built on failure.
func New(defs []FieldDef) (*Schema, error) {
	if len(defs) == 0 {
		return nil, value.NewError(value.CodeInvalidSchema, "at least one field is required")
	}

	s := &Schema{
		fields: make([]Field, 0, len(defs)),
		byName: make(map[string]int, len(defs)),
	}
	for i, d := range defs {
		if d.Name == "" {
			return nil, value.NewError(value.CodeInvalidSchema, "fields[%d]: name is required", i)
		}
		if _, dup := s.byName[d.Name]; dup {
			return nil, &value.Error{
				Code:    value.CodeInvalidSchema,
				Message: "duplicate field name",
				Field:   d.Name,
			}
		}
		typ, err := value.ParseType(d.Type)
		if err != nil {
			return nil, &value.Error{
				Code:    value.CodeInvalidSchema,
				Message: fmt.Sprintf("unknown field type %q", d.Type),
				Field:   d.Name,
			}
		}
		s.byName[d.Name] = i
		s.fields = append(s.fields, Field{Name: d.Name, Type: typ, Nullable: d.Null, Index: i})
	}
	return s, nil
}

// Compile validates the definition and returns its schema.
func (d StoreDef) Compile() (*Schema, error) {
	if d.Name == "" {
		return nil, value.NewError(value.CodeInvalidSchema, "store name is required")
	}
	s, err := New(d.Fields)
	if err != nil {
		if e, ok := err.(*value.Error); ok && e.Store == "" {
			e.Store = d.Name
		}
		return nil, err
	}
	return s, nil
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Fields returns a copy of the fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the field at position i.
func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// Lookup finds a field by exact name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Defs converts the schema back to field declarations, with canonical type names.
func (s *Schema) Defs() []FieldDef {
	defs := make([]FieldDef, len(s.fields))
	for i, f := range s.fields {
		defs[i] = FieldDef{Name: f.Name, Type: f.Type.String(), Null: f.Nullable}
	}
	return defs
}

// Validate checks a set of definitions as a whole: each must compile and
// store names must be unique. All problems are returned, not just the first.
func Validate(defs []StoreDef) []error {
	var errs []error
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if _, err := d.Compile(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[d.Name] {
			errs = append(errs, &value.Error{
				Code:    value.CodeInvalidSchema,
				Message: "store defined more than once",
				Store:   d.Name,
			})
			continue
		}
		seen[d.Name] = true
	}
	return errs
}
