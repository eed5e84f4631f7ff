package value

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Type is a declared field type.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeInt
	TypeIntV
	TypeUInt64
	TypeString
	TypeStringV
	TypeBool
	TypeFloat
	TypeFloatPair
	TypeFloatV
	TypeDateTime
	TypeSparseV
)

// typeNames maps each type to its schema name.
var typeNames = map[Type]string{
	TypeInt:       "int",
	TypeIntV:      "int_v",
	TypeUInt64:    "uint64",
	TypeString:    "string",
	TypeStringV:   "string_v",
	TypeBool:      "bool",
	TypeFloat:     "float",
	TypeFloatPair: "float_pair",
	TypeFloatV:    "float_v",
	TypeDateTime:  "datetime",
	TypeSparseV:   "num_sp_v",
}

var typesByName = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

// Types returns every valid type in declaration order.
func Types() []Type {
	return []Type{
		TypeInt, TypeIntV, TypeUInt64, TypeString, TypeStringV, TypeBool,
		TypeFloat, TypeFloatPair, TypeFloatV, TypeDateTime, TypeSparseV,
	}
}

// String returns the schema name of the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("invalid(%d)", uint8(t))
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// IsVector reports whether values of t are variable-length sequences.
func (t Type) IsVector() bool {
	switch t {
	case TypeIntV, TypeStringV, TypeFloatV, TypeSparseV:
		return true
	}
	return false
}

// ParseType parses a schema type name. Matching is case-insensitive and
// ignores surrounding whitespace, so "Float_Pair" and "float_pair" agree.
func ParseType(name string) (Type, error) {
	folded := cases.Fold().String(strings.TrimSpace(name))
	if t, ok := typesByName[folded]; ok {
		return t, nil
	}
	return TypeInvalid, NewError(CodeInvalidSchema, "unknown field type %q", name)
}

// MarshalJSON encodes the type as its schema name.
func (t Type) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("marshal type: %s", t)
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a schema type name.
func (t *Type) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
