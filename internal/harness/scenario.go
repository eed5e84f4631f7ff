package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recstore/internal/schema"
)

// Scenario is one harness test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schemas lists definition files or directories to create stores from.
	// Relative paths are resolved against the scenario file's directory.
	Schemas []string `yaml:"schemas,omitempty"`

	// Stores are inline store definitions, created after Schemas.
	Stores []schema.StoreDef `yaml:"stores,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked against the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation against a store.
type Step struct {
	Op    string `yaml:"op"`
	Store string `yaml:"store"`

	// ID addresses a record (get, set).
	ID int64 `yaml:"id,omitempty"`

	// Field and Value are used by get and set.
	Field string `yaml:"field,omitempty"`
	Value any    `yaml:"value,omitempty"`

	// Record is the input of add and new.
	Record map[string]any `yaml:"record,omitempty"`

	// Lines or File feed a load step. Limit <= 0 loads everything.
	Lines []string `yaml:"lines,omitempty"`
	File  string   `yaml:"file,omitempty"`
	Limit int      `yaml:"limit,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome a step must have. Unset fields are not checked.
type Expect struct {
	// Error is the expected error code, e.g. TYPE_MISMATCH.
	Error string `yaml:"error,omitempty"`

	// ID is the id an add must return.
	ID *int64 `yaml:"id,omitempty"`

	// Value is the value a get must return, coerced to the field's type.
	Value any `yaml:"value,omitempty"`

	// Null requires a get to return no value.
	Null bool `yaml:"is_null,omitempty"`

	// Count and Skipped are checked after a load.
	Count   *int `yaml:"count,omitempty"`
	Skipped *int `yaml:"skipped,omitempty"`
}

// Assertion is checked against the final state.
type Assertion struct {
	// Type is "count" or "field".
	Type  string `yaml:"type"`
	Store string `yaml:"store"`

	// Count is the expected number of records (count).
	Count int `yaml:"count,omitempty"`

	// ID, Field, Value and Null select and check one field (field).
	ID    int64  `yaml:"id,omitempty"`
	Field string `yaml:"field,omitempty"`
	Value any    `yaml:"value,omitempty"`
	Null  bool   `yaml:"is_null,omitempty"`
}

// Step operations.
const (
	OpAdd  = "add"
	OpGet  = "get"
	OpSet  = "set"
	OpNew  = "new"
	OpLoad = "load"
)

// Assertion types.
const (
	AssertCount = "count"
	AssertField = "field"
)

// LoadScenario reads and parses a scenario YAML file. Relative schema and
// load-file paths are resolved against the file's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving relative paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	for i, p := range s.Schemas {
		if !filepath.IsAbs(p) && basePath != "" {
			s.Schemas[i] = filepath.Join(basePath, p)
		}
	}
	for i := range s.Steps {
		if f := s.Steps[i].File; f != "" && !filepath.IsAbs(f) && basePath != "" {
			s.Steps[i].File = filepath.Join(basePath, f)
		}
	}
	return s, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Schemas) == 0 && len(s.Stores) == 0 {
		return fmt.Errorf("at least one of schemas or stores is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	if step.Store == "" {
		return fmt.Errorf("steps[%d]: store is required", index)
	}
	switch step.Op {
	case OpAdd, OpNew:
		if step.Record == nil {
			return fmt.Errorf("steps[%d]: record is required for %s (use {} for an empty record)", index, step.Op)
		}
	case OpGet:
	case OpSet:
		if step.Field == "" {
			return fmt.Errorf("steps[%d]: field is required for set", index)
		}
	case OpLoad:
		if len(step.Lines) == 0 && step.File == "" {
			return fmt.Errorf("steps[%d]: lines or file is required for load", index)
		}
		if len(step.Lines) > 0 && step.File != "" {
			return fmt.Errorf("steps[%d]: lines and file are mutually exclusive", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Store == "" {
		return fmt.Errorf("assertions[%d]: store is required", index)
	}

	switch a.Type {
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertField:
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for field", index)
		}
		if a.Value == nil && !a.Null {
			return fmt.Errorf("assertions[%d]: value or is_null is required for field", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
