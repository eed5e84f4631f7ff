package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/recstore/internal/value"
)

// Snapshot is the golden representation of a run.
type Snapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts a snapshot to the generic shapes
// value.MarshalCanonical accepts.
func (s *Snapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Result.Trace))
	for i, event := range s.Result.Trace {
		m := map[string]any{
			"step":  event.Step,
			"op":    event.Op,
			"store": event.Store,
		}
		if event.ID != nil {
			m["id"] = *event.ID
		}
		if event.Field != "" {
			m["field"] = event.Field
		}
		if event.Result != nil {
			m["result"] = event.Result
		}
		if event.Error != "" {
			m["error"] = event.Error
		}
		trace[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"final":         s.Result.State,
	}
}

// MarshalSnapshot renders a run as canonical JSON.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snap := Snapshot{ScenarioName: scenarioName, Result: result}
	return value.MarshalCanonical(snap.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
