// Package inspect prints debugging dumps of stores, records and aggregates.
package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"

	"github.com/roach88/recstore/internal/store"
	"github.com/roach88/recstore/internal/value"
)

// AggrHeader is the first line PrintStreamAggr writes.
const AggrHeader = "[store name] : [streamAggr name] : [field name] : [typeof value] : [value]"

// PrintStreamAggr writes one line per attribute of every aggregate attached
// to s, aggregates in attach order and attributes sorted by name.
func PrintStreamAggr(w io.Writer, s *store.Store) error {
	if _, err := fmt.Fprintln(w, AggrHeader); err != nil {
		return err
	}
	for _, name := range s.AggregateNames() {
		aggr, ok := s.Aggregate(name)
		if !ok {
			continue
		}
		state := aggr.State()
		for _, key := range value.SortedKeys(state) {
			v := state[key]
			if _, err := fmt.Fprintf(w, "%s : %s : %s : %s : %s\n",
				s.Name(), name, key, typeLabel(v), formatPlain(v)); err != nil {
				return err
			}
		}
	}
	return nil
}

// typeLabel names the kind of v: "string", "boolean", "number", "null",
// a field type name for store values, or "object".
func typeLabel(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case value.Value:
		if value.IsNull(val) {
			return "null"
		}
		return val.Type().String()
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return "number"
	}
	if reflect.TypeOf(v).Kind() == reflect.Func {
		return "function"
	}
	return "object"
}

// formatPlain renders v without quoting strings.
func formatPlain(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case value.String:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case value.Value:
		data, err := value.MarshalCanonical(val)
		if err != nil {
			return fmt.Sprint(value.Native(val))
		}
		return string(data)
	case json.Marshaler:
		data, err := val.MarshalJSON()
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	case []any, map[string]any:
		data, err := value.MarshalCanonical(val)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
