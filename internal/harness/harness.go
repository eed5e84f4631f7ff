package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/recstore/internal/loader"
	"github.com/roach88/recstore/internal/schema"
	"github.com/roach88/recstore/internal/store"
	"github.com/roach88/recstore/internal/testutil"
	"github.com/roach88/recstore/internal/value"
)

// Harness executes one scenario against its own base.
type Harness struct {
	base      *store.Base
	loader    *loader.Loader
	reclaimer *testutil.CountingReclaimer
	logger    *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh base. Step failures that the scenario
// did not expect are reported in Result.Errors; the returned error is only
// for scenarios that cannot run at all (bad schemas).
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with the loader's log output sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	base := store.NewBase()
	defer base.Close()

	if len(scenario.Schemas) > 0 {
		defs, err := schema.LoadPaths(scenario.Schemas...)
		if err != nil {
			return nil, fmt.Errorf("failed to load schemas: %w", err)
		}
		if err := base.CreateStores(defs); err != nil {
			return nil, fmt.Errorf("failed to create stores: %w", err)
		}
	}
	if err := base.CreateStores(scenario.Stores); err != nil {
		return nil, fmt.Errorf("failed to create stores: %w", err)
	}

	reclaimer := testutil.NewCountingReclaimer()
	h := &Harness{
		base:      base,
		reclaimer: reclaimer,
		logger:    logger,
		loader: loader.New(loader.Options{
			Logger:  logger,
			Reclaim: reclaimer.Reclaim,
		}),
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(i, step, result)
	}

	for _, msg := range EvaluateAssertions(base, scenario.Assertions) {
		result.AddError(msg)
	}

	result.State = snapshotState(base)
	result.Reclaims = reclaimer.Calls()
	return result, nil
}

// executeStep runs one step, appends its trace event and checks its
// expectations.
func (h *Harness) executeStep(i int, step Step, result *Result) {
	event := TraceEvent{Step: i, Op: step.Op, Store: step.Store, Field: step.Field}
	var (
		fieldType value.Type
		err       error
	)

	s, err := h.base.Store(step.Store)
	if err == nil {
		switch step.Op {
		case OpAdd:
			var id int64
			id, err = s.Add(step.Record)
			if err == nil {
				event.ID = &id
			}
		case OpGet:
			event.ID = &step.ID
			event.Result, fieldType, err = h.get(s, step)
		case OpSet:
			event.ID = &step.ID
			var ref *store.Ref
			ref, err = s.Get(step.ID)
			if err == nil {
				err = ref.Set(step.Field, step.Value)
			}
		case OpNew:
			var rec *store.Val
			rec, err = s.NewRecord(step.Record)
			if err == nil {
				event.Result = presentFields(rec.Fields())
			}
		case OpLoad:
			var res loader.Result
			res, err = h.load(s, step)
			event.Result = map[string]any{"loaded": res.Loaded, "skipped": res.Skipped}
		}
	}

	if err != nil {
		event.Error = errorCode(err)
	}
	result.Trace = append(result.Trace, event)

	for _, msg := range checkExpect(step, event, fieldType, err) {
		result.AddError(fmt.Sprintf("steps[%d] (%s %s): %s", i, step.Op, step.Store, msg))
	}
}

func (h *Harness) get(s *store.Store, step Step) (any, value.Type, error) {
	ref, err := s.Get(step.ID)
	if err != nil {
		return nil, value.TypeInvalid, err
	}
	if step.Field == "" {
		return presentFields(ref.Fields()), value.TypeInvalid, nil
	}
	f, ok := s.Schema().Lookup(step.Field)
	if ok {
		v, err := ref.Get(step.Field)
		return v, f.Type, err
	}
	_, err = ref.Get(step.Field)
	return nil, value.TypeInvalid, err
}

func (h *Harness) load(s *store.Store, step Step) (loader.Result, error) {
	if step.File != "" {
		src, err := loader.OpenFile(step.File)
		if err != nil {
			return loader.Result{}, err
		}
		defer src.Close()
		return h.loader.Load(src, s, step.Limit)
	}
	src := loader.NewReaderSource(strings.NewReader(strings.Join(step.Lines, "\n")))
	return h.loader.Load(src, s, step.Limit)
}

// checkExpect compares a step's outcome with its expect clause.
func checkExpect(step Step, event TraceEvent, fieldType value.Type, err error) []string {
	exp := step.Expect
	if exp == nil {
		if err != nil {
			return []string{fmt.Sprintf("unexpected error: %v", err)}
		}
		return nil
	}

	if exp.Error != "" {
		if err == nil {
			return []string{fmt.Sprintf("expected error %s, got success", exp.Error)}
		}
		if event.Error != exp.Error {
			return []string{fmt.Sprintf("expected error %s, got %v", exp.Error, err)}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	var msgs []string
	if exp.ID != nil && (event.ID == nil || *event.ID != *exp.ID) {
		msgs = append(msgs, fmt.Sprintf("expected id %d, got %s", *exp.ID, formatID(event.ID)))
	}
	if exp.Null || exp.Value != nil {
		got, _ := event.Result.(value.Value)
		if msg := compareValue(fieldType, exp.Value, exp.Null, got); msg != "" {
			msgs = append(msgs, msg)
		}
	}
	if exp.Count != nil || exp.Skipped != nil {
		counts, _ := event.Result.(map[string]any)
		if exp.Count != nil && counts["loaded"] != *exp.Count {
			msgs = append(msgs, fmt.Sprintf("expected %d records loaded, got %v", *exp.Count, counts["loaded"]))
		}
		if exp.Skipped != nil && counts["skipped"] != *exp.Skipped {
			msgs = append(msgs, fmt.Sprintf("expected %d lines skipped, got %v", *exp.Skipped, counts["skipped"]))
		}
	}
	return msgs
}

// compareValue checks got against an expected YAML value coerced to typ,
// or against null. Returns "" on match.
func compareValue(typ value.Type, want any, wantNull bool, got value.Value) string {
	if wantNull {
		if !value.IsNull(got) {
			return fmt.Sprintf("expected null, got %s", formatValue(got))
		}
		return ""
	}
	if !typ.Valid() {
		return "value expectation needs a field"
	}
	w, err := value.Coerce(typ, want)
	if err != nil {
		return fmt.Sprintf("expected value %v is not a valid %s: %v", want, typ, err)
	}
	if !value.Equal(w, got) {
		return fmt.Sprintf("expected %s, got %s", formatValue(w), formatValue(got))
	}
	return ""
}

// snapshotState captures every store's records in creation order.
func snapshotState(base *store.Base) map[string]any {
	state := make(map[string]any)
	for _, s := range base.Stores() {
		records := []any{}
		_ = s.Each(func(r *store.Ref) bool {
			records = append(records, presentFields(r.Fields()))
			return true
		})
		state[s.Name()] = records
	}
	return state
}

// errorCode returns the store error code of err, or its message for
// errors outside the taxonomy.
func errorCode(err error) string {
	if code := value.CodeOf(err); code != "" {
		return string(code)
	}
	return err.Error()
}

func formatID(id *int64) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprint(*id)
}

func formatValue(v value.Value) string {
	data, err := value.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(data)
}
