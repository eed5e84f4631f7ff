package testutil

import (
	"sync"

	"github.com/roach88/recstore/internal/store"
)

// StaticAggregate is a stream aggregate with fixed state.
type StaticAggregate map[string]any

// State returns a copy of the fixed attributes.
func (a StaticAggregate) State() map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// CountAggregate counts records added to the store it is attached to and
// remembers the id of the last one.
type CountAggregate struct {
	mu     sync.Mutex
	count  int
	lastID int64
}

// NewCountAggregate creates an aggregate that has seen no records.
func NewCountAggregate() *CountAggregate {
	return &CountAggregate{lastID: -1}
}

// OnAdd implements store.Observer.
func (a *CountAggregate) OnAdd(rec *store.Ref) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.count++
	a.lastID = rec.ID()
}

// State reports "count" and "last_id".
func (a *CountAggregate) State() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return map[string]any{"count": a.count, "last_id": a.lastID}
}
