package harness

import "github.com/roach88/recstore/internal/value"

// TraceEvent records what one step did.
type TraceEvent struct {
	Step  int    `json:"step"`
	Op    string `json:"op"`
	Store string `json:"store"`

	// ID is the record id involved, if any.
	ID *int64 `json:"id,omitempty"`

	Field string `json:"field,omitempty"`

	// Result is a value.Value, a record (map of present fields), or load
	// counts.
	Result any `json:"result,omitempty"`

	// Error is the error code (or message) the step failed with.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State holds every store's records after the last step, keyed by
	// store name.
	State map[string]any `json:"state,omitempty"`

	// Reclaims counts reclamation hints the loader issued.
	Reclaims int `json:"reclaims"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]any),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// presentFields converts record fields to a canonical-JSON-ready map,
// leaving out nulls.
func presentFields(fields map[string]value.Value) map[string]any {
	out := make(map[string]any, len(fields))
	for name, v := range fields {
		if !value.IsNull(v) {
			out[name] = v
		}
	}
	return out
}
