package value

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"
)

// coercer converts one input to a Value of a fixed type.
type coercer func(in any) (Value, error)

// coercions is the coercion table: the only conversions the store performs.
// Anything a coercer does not accept is a TYPE_MISMATCH.
var coercions map[Type]coercer

func init() {
	coercions = map[Type]coercer{
		TypeInt:       coerceInt,
		TypeIntV:      coerceIntV,
		TypeUInt64:    coerceUInt64,
		TypeString:    coerceString,
		TypeStringV:   coerceStringV,
		TypeBool:      coerceBool,
		TypeFloat:     coerceFloat,
		TypeFloatPair: coerceFloatPair,
		TypeFloatV:    coerceFloatV,
		TypeDateTime:  coerceDateTime,
		TypeSparseV:   coerceSparseV,
	}
}

// Coerce converts in to a Value of type t.
//
// nil and Null always coerce to Null; the nullability check belongs to the
// caller, which knows the field declaration. A Value input is unwrapped to
// its Go form first, so an Int stored in one field can be written to a
// float field.
func Coerce(t Type, in any) (Value, error) {
	c, ok := coercions[t]
	if !ok {
		return nil, NewError(CodeInvalidSchema, "unknown field type %s", t)
	}
	if v, ok := in.(Value); ok {
		if IsNull(v) {
			return Null{}, nil
		}
		in = Native(v)
	}
	if in == nil {
		return Null{}, nil
	}
	return c(in)
}

func coerceInt(in any) (Value, error) {
	n, reason := toInt64(in)
	if reason != "" {
		return nil, mismatch(TypeInt, in, reason)
	}
	return Int(n), nil
}

func coerceUInt64(in any) (Value, error) {
	n, reason := toUint64(in)
	if reason != "" {
		return nil, mismatch(TypeUInt64, in, reason)
	}
	return UInt64(n), nil
}

func coerceFloat(in any) (Value, error) {
	f, reason := toFloat64(in)
	if reason != "" {
		return nil, mismatch(TypeFloat, in, reason)
	}
	return Float(f), nil
}

func coerceString(in any) (Value, error) {
	s, ok := in.(string)
	if !ok {
		return nil, mismatch(TypeString, in, "")
	}
	if !utf8.ValidString(s) {
		return nil, mismatch(TypeString, in, "invalid UTF-8")
	}
	return String(s), nil
}

func coerceBool(in any) (Value, error) {
	b, ok := in.(bool)
	if !ok {
		return nil, mismatch(TypeBool, in, "")
	}
	return Bool(b), nil
}

func coerceIntV(in any) (Value, error) {
	elems, ok := toSlice(in)
	if !ok {
		return nil, mismatch(TypeIntV, in, "not an array")
	}
	out := make(IntV, len(elems))
	for i, e := range elems {
		n, reason := toInt64(e)
		if reason != "" {
			return nil, mismatch(TypeIntV, in, "element "+strconv.Itoa(i)+": "+reason)
		}
		out[i] = n
	}
	return out, nil
}

func coerceStringV(in any) (Value, error) {
	elems, ok := toSlice(in)
	if !ok {
		return nil, mismatch(TypeStringV, in, "not an array")
	}
	out := make(StringV, len(elems))
	for i, e := range elems {
		s, ok := e.(string)
		if !ok {
			return nil, mismatch(TypeStringV, in, "element "+strconv.Itoa(i)+" is not a string")
		}
		if !utf8.ValidString(s) {
			return nil, mismatch(TypeStringV, in, "element "+strconv.Itoa(i)+" is not valid UTF-8")
		}
		out[i] = s
	}
	return out, nil
}

func coerceFloatV(in any) (Value, error) {
	elems, ok := toSlice(in)
	if !ok {
		return nil, mismatch(TypeFloatV, in, "not an array")
	}
	out := make(FloatV, len(elems))
	for i, e := range elems {
		f, reason := toFloat64(e)
		if reason != "" {
			return nil, mismatch(TypeFloatV, in, "element "+strconv.Itoa(i)+": "+reason)
		}
		out[i] = f
	}
	return out, nil
}

func coerceFloatPair(in any) (Value, error) {
	elems, ok := toSlice(in)
	if !ok {
		return nil, mismatch(TypeFloatPair, in, "not an array")
	}
	if len(elems) != 2 {
		return nil, mismatch(TypeFloatPair, in, "need exactly 2 elements, got "+strconv.Itoa(len(elems)))
	}
	var out FloatPair
	for i, e := range elems {
		f, reason := toFloat64(e)
		if reason != "" {
			return nil, mismatch(TypeFloatPair, in, "element "+strconv.Itoa(i)+": "+reason)
		}
		out[i] = f
	}
	return out, nil
}

// dateTimeLayouts are tried in order for string input.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Datetimes are kept to the millisecond and limited to years 0000-9999, the
// range RFC 3339 can write and parse back.
var (
	minDateTime = time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)
	maxDateTime = time.Date(9999, 12, 31, 23, 59, 59, 999000000, time.UTC)
)

func coerceDateTime(in any) (Value, error) {
	var t time.Time
	switch val := in.(type) {
	case time.Time:
		t = val
	case string:
		parsed := false
		for _, layout := range dateTimeLayouts {
			if p, err := time.Parse(layout, val); err == nil {
				t, parsed = p, true
				break
			}
		}
		if !parsed {
			return nil, mismatch(TypeDateTime, in, "unrecognized timestamp "+strconv.Quote(val))
		}
	default:
		// Integers are Unix milliseconds.
		ms, reason := toInt64(in)
		if reason != "" {
			return nil, mismatch(TypeDateTime, in, "")
		}
		t = time.UnixMilli(ms)
	}
	t = t.UTC().Truncate(time.Millisecond)
	if t.Before(minDateTime) || t.After(maxDateTime) {
		return nil, mismatch(TypeDateTime, in, "outside years 0000-9999")
	}
	return DateTime(t), nil
}

func coerceSparseV(in any) (Value, error) {
	if sv, ok := in.([]SparseEntry); ok {
		in = SparseV(sv)
	}
	if sv, ok := in.(SparseV); ok {
		if err := checkSparseOrder(sv); err != "" {
			return nil, mismatch(TypeSparseV, in, err)
		}
		return SparseV(append([]SparseEntry(nil), sv...)), nil
	}

	elems, ok := toSlice(in)
	if !ok {
		return nil, mismatch(TypeSparseV, in, "not an array")
	}
	out := make(SparseV, len(elems))
	for i, e := range elems {
		entry, reason := toSparseEntry(e)
		if reason != "" {
			return nil, mismatch(TypeSparseV, in, "element "+strconv.Itoa(i)+": "+reason)
		}
		out[i] = entry
	}
	if reason := checkSparseOrder(out); reason != "" {
		return nil, mismatch(TypeSparseV, in, reason)
	}
	return out, nil
}

// toSparseEntry accepts [index, value] or {"index": i, "value": v}.
func toSparseEntry(e any) (SparseEntry, string) {
	var rawIdx, rawVal any
	switch val := e.(type) {
	case SparseEntry:
		return val, ""
	case map[string]any:
		var okIdx, okVal bool
		rawIdx, okIdx = val["index"]
		rawVal, okVal = val["value"]
		if !okIdx || !okVal || len(val) != 2 {
			return SparseEntry{}, "object must have exactly index and value"
		}
	default:
		pair, ok := toSlice(e)
		if !ok || len(pair) != 2 {
			return SparseEntry{}, "not an (index, value) pair"
		}
		rawIdx, rawVal = pair[0], pair[1]
	}

	idx, reason := toInt64(rawIdx)
	if reason != "" {
		return SparseEntry{}, "index: " + reason
	}
	if idx < 0 || idx > math.MaxInt32 {
		return SparseEntry{}, "index out of range"
	}
	f, reason := toFloat64(rawVal)
	if reason != "" {
		return SparseEntry{}, "value: " + reason
	}
	return SparseEntry{Index: int(idx), Value: f}, ""
}

func checkSparseOrder(sv SparseV) string {
	for i := range sv {
		if sv[i].Index < 0 {
			return "negative index"
		}
		if i > 0 && sv[i].Index <= sv[i-1].Index {
			return "indices must be strictly increasing"
		}
	}
	return ""
}

// toInt64 extracts an integer from any integral numeric input. Fractional
// and out-of-range numbers are rejected with a reason.
func toInt64(in any) (int64, string) {
	switch val := in.(type) {
	case int:
		return int64(val), ""
	case int8:
		return int64(val), ""
	case int16:
		return int64(val), ""
	case int32:
		return int64(val), ""
	case int64:
		return val, ""
	case uint:
		return uintToInt64(uint64(val))
	case uint8:
		return int64(val), ""
	case uint16:
		return int64(val), ""
	case uint32:
		return int64(val), ""
	case uint64:
		return uintToInt64(val)
	case float32:
		return floatToInt64(float64(val))
	case float64:
		return floatToInt64(val)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, ""
		}
		f, err := val.Float64()
		if err != nil {
			return 0, "out of range"
		}
		return floatToInt64(f)
	default:
		return 0, "not a number"
	}
}

func uintToInt64(u uint64) (int64, string) {
	if u > math.MaxInt64 {
		return 0, "out of range"
	}
	return int64(u), ""
}

func floatToInt64(f float64) (int64, string) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "not finite"
	}
	if f != math.Trunc(f) {
		return 0, "not an integer"
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, "out of range"
	}
	return int64(f), ""
}

func toUint64(in any) (uint64, string) {
	switch val := in.(type) {
	case uint:
		return uint64(val), ""
	case uint8:
		return uint64(val), ""
	case uint16:
		return uint64(val), ""
	case uint32:
		return uint64(val), ""
	case uint64:
		return val, ""
	case json.Number:
		if u, err := strconv.ParseUint(string(val), 10, 64); err == nil {
			return u, ""
		}
	case float32, float64:
		f := reflect.ValueOf(val).Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, "not an integer"
		}
		if f < 0 || f >= math.MaxUint64 {
			return 0, "out of range"
		}
		return uint64(f), ""
	}
	n, reason := toInt64(in)
	if reason != "" {
		return 0, reason
	}
	if n < 0 {
		return 0, "negative"
	}
	return uint64(n), ""
}

func toFloat64(in any) (float64, string) {
	var f float64
	switch val := in.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, "not a number"
		}
		f = parsed
	case uint64:
		f = float64(val)
	case uint:
		f = float64(val)
	default:
		n, reason := toInt64(in)
		if reason != "" {
			return 0, reason
		}
		f = float64(n)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "not finite"
	}
	return f, ""
}

// toSlice turns any slice or array (other than a string) into []any.
func toSlice(in any) ([]any, bool) {
	if s, ok := in.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(in)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
