package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// storesFile is the wrapper form: {"stores": [...]}.
type storesFile struct {
	Stores []StoreDef `json:"stores" yaml:"stores"`
}

// LoadFile reads store definitions from a file. The format follows the
// extension: .json, .yaml/.yml or .cue. Each format accepts a single
// definition, a list of definitions, or an object with a "stores" list.
func LoadFile(path string) ([]StoreDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	var defs []StoreDef
	switch ext := filepath.Ext(path); ext {
	case ".json":
		defs, err = ParseJSON(data)
	case ".yaml", ".yml":
		defs, err = ParseYAML(data)
	case ".cue":
		defs, err = ParseCUE(data, path)
	default:
		return nil, fmt.Errorf("unsupported schema file extension %q: %s", ext, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// LoadPaths loads definitions from files and directories. Directories are
// walked for .json, .yaml, .yml and .cue files in lexical order.
func LoadPaths(paths ...string) ([]StoreDef, error) {
	var defs []StoreDef
	for _, p := range paths {
		files, err := FindSchemaFiles(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			fileDefs, err := LoadFile(f)
			if err != nil {
				return nil, err
			}
			defs = append(defs, fileDefs...)
		}
	}
	return defs, nil
}

// FindSchemaFiles returns path itself if it is a file, or every schema file
// below it if it is a directory.
func FindSchemaFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("schema path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch filepath.Ext(p) {
		case ".json", ".yaml", ".yml", ".cue":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan schema directory: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// ParseJSON decodes definitions from JSON. Unknown keys are rejected.
func ParseJSON(data []byte) ([]StoreDef, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty schema document")
	}

	decode := func(target any) error {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		return dec.Decode(target)
	}

	if trimmed[0] == '[' {
		var defs []StoreDef
		if err := decode(&defs); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		return defs, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	if _, ok := probe["stores"]; ok {
		var f storesFile
		if err := decode(&f); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		return f.Stores, nil
	}

	var def StoreDef
	if err := decode(&def); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return []StoreDef{def}, nil
}

// ParseYAML decodes definitions from YAML. Unknown keys are rejected.
func ParseYAML(data []byte) ([]StoreDef, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty schema document")
	}

	decode := func(target any) error {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		return dec.Decode(target)
	}

	doc := root.Content[0]
	switch {
	case doc.Kind == yaml.SequenceNode:
		var defs []StoreDef
		if err := decode(&defs); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
		return defs, nil
	case doc.Kind == yaml.MappingNode && hasKey(doc, "stores"):
		var f storesFile
		if err := decode(&f); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
		return f.Stores, nil
	case doc.Kind == yaml.MappingNode:
		var def StoreDef
		if err := decode(&def); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
		return []StoreDef{def}, nil
	default:
		return nil, fmt.Errorf("parse YAML: expected a mapping or a list at line %d", doc.Line)
	}
}

func hasKey(mapping *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return true
		}
	}
	return false
}

// ParseCUE evaluates a CUE document and decodes its definitions. The
// document either has a top-level "stores" list or is itself one definition:
//
//	stores: [{
//		name: "People"
//		fields: [{name: "Name", type: "string"}]
//	}]
func ParseCUE(data []byte, filename string) ([]StoreDef, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile CUE: %w", err)
	}

	if stores := v.LookupPath(cue.ParsePath("stores")); stores.Exists() {
		var defs []StoreDef
		if err := stores.Decode(&defs); err != nil {
			return nil, fmt.Errorf("decode CUE stores: %w", err)
		}
		return defs, nil
	}

	if !v.LookupPath(cue.ParsePath("fields")).Exists() {
		return nil, fmt.Errorf("CUE document has neither stores nor fields")
	}
	var def StoreDef
	if err := v.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode CUE store: %w", err)
	}
	return []StoreDef{def}, nil
}
