package inspect

import (
	"fmt"
	"io"
	"reflect"
	"strconv"

	"github.com/roach88/recstore/internal/store"
	"github.com/roach88/recstore/internal/value"
)

// DirOptions controls Dir. Zero Depth and Width select the defaults.
type DirOptions struct {
	// PrintValues prints each value instead of its type in parentheses.
	PrintValues bool

	// Depth is how many levels to descend. Default 1.
	Depth int

	// Width is the most keys printed per level. Default 50.
	Width int

	// Prefix starts every line.
	Prefix string
}

const (
	defaultDirDepth = 1
	defaultDirWidth = 50
)

// Dir writes the keys of obj one per line as "<prefix>.<key> - <detail>",
// recursing into nested objects up to Depth levels. Maps are listed in
// sorted key order, records in schema order, structs in field order and
// slices by index. Scalars have no keys and print nothing.
func Dir(w io.Writer, obj any, opts DirOptions) error {
	if opts.Depth == 0 {
		opts.Depth = defaultDirDepth
	}
	if opts.Width == 0 {
		opts.Width = defaultDirWidth
	}
	return dir(w, obj, opts.Depth, opts)
}

func dir(w io.Writer, obj any, depth int, opts DirOptions) error {
	if depth <= 0 {
		return nil
	}
	keys, get := children(obj)
	for i, key := range keys {
		if i >= opts.Width {
			break
		}
		child := get(key)
		path := opts.Prefix + "." + key

		var detail string
		if opts.PrintValues {
			detail = formatQuoted(child)
		} else {
			detail = "(" + typeLabel(child) + ")"
		}
		if _, err := fmt.Fprintf(w, "%s - %s\n", path, detail); err != nil {
			return err
		}

		next := opts
		next.Prefix = path
		if err := dir(w, child, depth-1, next); err != nil {
			return err
		}
	}
	return nil
}

// children lists the keys of obj and returns an accessor for them.
func children(obj any) ([]string, func(string) any) {
	switch val := obj.(type) {
	case nil, value.Value:
		return nil, nil
	case store.Record:
		fields := val.Fields()
		return val.Schema().Names(), func(k string) any { return fields[k] }
	case map[string]any:
		return value.SortedKeys(val), func(k string) any { return val[k] }
	case map[string]value.Value:
		return value.SortedKeys(val), func(k string) any { return val[k] }
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, nil
		}
		m := make(map[string]any, rv.Len())
		for _, k := range rv.MapKeys() {
			m[k.String()] = rv.MapIndex(k).Interface()
		}
		return value.SortedKeys(m), func(k string) any { return m[k] }
	case reflect.Slice, reflect.Array:
		keys := make([]string, rv.Len())
		for i := range keys {
			keys[i] = strconv.Itoa(i)
		}
		return keys, func(k string) any {
			i, _ := strconv.Atoi(k)
			return rv.Index(i).Interface()
		}
	case reflect.Struct:
		t := rv.Type()
		var keys []string
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() {
				keys = append(keys, t.Field(i).Name)
			}
		}
		return keys, func(k string) any { return rv.FieldByName(k).Interface() }
	default:
		return nil, nil
	}
}

// formatQuoted renders v with strings in double quotes.
func formatQuoted(v any) string {
	switch val := v.(type) {
	case string:
		return `"` + val + `"`
	case value.String:
		return `"` + string(val) + `"`
	default:
		return formatPlain(v)
	}
}
