package testutil

import "sync"

// CountingReclaimer records how often the loader asked for memory reclamation.
//
// Pass Reclaim as loader.Options.Reclaim; Calls then reports the number of
// reclamation points the loader reached.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type CountingReclaimer struct {
	mu    sync.Mutex
	calls int
}

// NewCountingReclaimer creates a reclaimer with no recorded calls.
func NewCountingReclaimer() *CountingReclaimer {
	return &CountingReclaimer{}
}

// Reclaim records one call. It does not touch the runtime.
func (r *CountingReclaimer) Reclaim() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
}

// Calls returns the number of Reclaim calls so far.
func (r *CountingReclaimer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Reset sets the call count back to 0.
func (r *CountingReclaimer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = 0
}
