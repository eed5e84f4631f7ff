package value

import (
	"slices"
	"time"
)

// Value is a sealed interface over the stored representation of one field.
// Only the types in this file implement it.
type Value interface {
	// Type returns the field type this value belongs to, TypeInvalid for Null.
	Type() Type
	value() // Sealed
}

// Null is the "no value" marker for nullable fields.
type Null struct{}

func (Null) Type() Type { return TypeInvalid }
func (Null) value()     {}

// Int is a signed integer.
type Int int64

func (Int) Type() Type { return TypeInt }
func (Int) value()     {}

// IntV is a sequence of signed integers.
type IntV []int64

func (IntV) Type() Type { return TypeIntV }
func (IntV) value()     {}

// UInt64 is an unsigned 64-bit integer.
type UInt64 uint64

func (UInt64) Type() Type { return TypeUInt64 }
func (UInt64) value()     {}

// String is UTF-8 text.
type String string

func (String) Type() Type { return TypeString }
func (String) value()     {}

// StringV is a sequence of strings.
type StringV []string

func (StringV) Type() Type { return TypeStringV }
func (StringV) value()     {}

// Bool is a boolean.
type Bool bool

func (Bool) Type() Type { return TypeBool }
func (Bool) value()     {}

// Float is a double-precision real.
type Float float64

func (Float) Type() Type { return TypeFloat }
func (Float) value()     {}

// FloatPair is exactly two doubles, e.g. a coordinate.
type FloatPair [2]float64

func (FloatPair) Type() Type { return TypeFloatPair }
func (FloatPair) value()     {}

// FloatV is a sequence of doubles.
type FloatV []float64

func (FloatV) Type() Type { return TypeFloatV }
func (FloatV) value()     {}

// DateTime is a UTC timestamp. Resolution is whatever time.Time carries;
// canonical encoding keeps milliseconds or finer.
type DateTime time.Time

func (DateTime) Type() Type { return TypeDateTime }
func (DateTime) value()     {}

// Time returns the timestamp as a time.Time.
func (d DateTime) Time() time.Time { return time.Time(d) }

// SparseEntry is one (index, value) pair of a sparse vector.
type SparseEntry struct {
	Index int
	Value float64
}

// SparseV is a sparse vector with strictly increasing indices.
type SparseV []SparseEntry

func (SparseV) Type() Type { return TypeSparseV }
func (SparseV) value()     {}

// IsNull reports whether v holds no value. A nil interface counts as null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Zero returns the engine default for a non-nullable field of type t.
func Zero(t Type) Value {
	switch t {
	case TypeInt:
		return Int(0)
	case TypeIntV:
		return IntV{}
	case TypeUInt64:
		return UInt64(0)
	case TypeString:
		return String("")
	case TypeStringV:
		return StringV{}
	case TypeBool:
		return Bool(false)
	case TypeFloat:
		return Float(0)
	case TypeFloatPair:
		return FloatPair{}
	case TypeFloatV:
		return FloatV{}
	case TypeDateTime:
		return DateTime(time.Time{}.UTC())
	case TypeSparseV:
		return SparseV{}
	default:
		return Null{}
	}
}

// Clone returns a deep copy of v. Scalars are returned as-is.
func Clone(v Value) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case IntV:
		return IntV(slices.Clone([]int64(val)))
	case StringV:
		return StringV(slices.Clone([]string(val)))
	case FloatV:
		return FloatV(slices.Clone([]float64(val)))
	case SparseV:
		return SparseV(slices.Clone([]SparseEntry(val)))
	default:
		return v
	}
}

// Equal compares two values by content. Null equals only Null; an empty
// vector equals a nil vector of the same type.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case IntV:
		return slices.Equal(av, b.(IntV))
	case StringV:
		return slices.Equal(av, b.(StringV))
	case FloatV:
		return slices.Equal(av, b.(FloatV))
	case SparseV:
		return slices.Equal(av, b.(SparseV))
	case DateTime:
		return av.Time().Equal(b.(DateTime).Time())
	default:
		return a == b
	}
}

// Native converts v to a plain Go value: int64, uint64, string, bool,
// float64, time.Time, or slices thereof. Null becomes nil. Sparse vectors
// become [][2]any of (int, float64) pairs.
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Int:
		return int64(val)
	case IntV:
		return slices.Clone([]int64(val))
	case UInt64:
		return uint64(val)
	case String:
		return string(val)
	case StringV:
		return slices.Clone([]string(val))
	case Bool:
		return bool(val)
	case Float:
		return float64(val)
	case FloatPair:
		return [2]float64(val)
	case FloatV:
		return slices.Clone([]float64(val))
	case DateTime:
		return val.Time()
	case SparseV:
		pairs := make([][2]any, len(val))
		for i, e := range val {
			pairs[i] = [2]any{e.Index, e.Value}
		}
		return pairs
	default:
		return nil
	}
}
