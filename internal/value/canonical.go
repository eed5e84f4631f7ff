package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// canonicalTimeLayout always writes milliseconds, the resolution the
// datetime type guarantees.
const canonicalTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// MarshalCanonical produces canonical JSON: the one serialization used for
// journal digests and golden snapshots.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. Floats use the shortest round-trip form; NaN and Inf are errors
//  5. Timestamps are RFC 3339 in UTC with millisecond precision
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := (canonicalWriter{buf: &buf, nfc: true}).write(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalExact is MarshalCanonical without NFC normalization. Keys and
// strings keep their exact code points, so decoding the output and coercing
// it back yields values Equal to the input.
func MarshalExact(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := (canonicalWriter{buf: &buf}).write(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type canonicalWriter struct {
	buf *bytes.Buffer
	nfc bool
}

func (w canonicalWriter) write(v any) error {
	buf := w.buf
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Value:
		return w.write(canonicalForm(val))
	case string:
		return w.writeString(val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float64:
		return writeCanonicalFloat(buf, val)
	case json.Number:
		buf.WriteString(val.String())
	case time.Time:
		return w.writeString(val.UTC().Format(canonicalTimeLayout))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := w.write(elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range SortedKeys(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := w.writeString(k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := w.write(val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case map[string]Value:
		m := make(map[string]any, len(val))
		for k, fv := range val {
			m[k] = fv
		}
		return w.write(m)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// canonicalForm maps a Value onto the generic JSON shapes canonicalWriter knows.
func canonicalForm(v Value) any {
	switch val := v.(type) {
	case Int:
		return int64(val)
	case UInt64:
		return uint64(val)
	case String:
		return string(val)
	case Bool:
		return bool(val)
	case Float:
		return float64(val)
	case DateTime:
		return val.Time()
	case IntV:
		out := make([]any, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out
	case StringV:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case FloatV:
		out := make([]any, len(val))
		for i, f := range val {
			out[i] = f
		}
		return out
	case FloatPair:
		return []any{val[0], val[1]}
	case SparseV:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = []any{e.Index, e.Value}
		}
		return out
	default:
		return nil
	}
}

func writeCanonicalFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite float in canonical JSON: %v", f)
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// writeString writes a JSON string without HTML escaping, NFC normalized
// when w.nfc is set.
func (w canonicalWriter) writeString(s string) error {
	if w.nfc {
		s = norm.NFC.String(s)
	}
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	w.buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

// SortedKeys returns keys in UTF-16 code unit order.
// Go's default string ordering compares UTF-8 bytes, which differs for
// characters outside the BMP.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
