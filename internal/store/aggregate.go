package store

import "fmt"

// Aggregate is a stream aggregate attached to a store. The store does not
// compute anything; it only holds aggregates by name and exposes their state.
type Aggregate interface {
	// State returns the aggregate's current attributes.
	State() map[string]any
}

// Observer is implemented by aggregates that want to see every added record.
// OnAdd is called after the store lock is released.
type Observer interface {
	OnAdd(rec *Ref)
}

// AttachAggregate registers a under name. Names are unique per store.
func (s *Store) AttachAggregate(name string, a Aggregate) error {
	if name == "" {
		return fmt.Errorf("attach aggregate: name is required")
	}
	if a == nil {
		return fmt.Errorf("attach aggregate %q: nil aggregate", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closedError()
	}
	if _, dup := s.aggrs[name]; dup {
		return fmt.Errorf("attach aggregate %q: already attached to store %s", name, s.name)
	}
	s.aggrs[name] = a
	s.aggrNames = append(s.aggrNames, name)
	return nil
}

// AggregateNames returns the attached aggregate names in attach order.
func (s *Store) AggregateNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.aggrNames...)
}

// Aggregate returns the aggregate attached under name.
func (s *Store) Aggregate(name string) (Aggregate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.aggrs[name]
	return a, ok
}

// observersLocked returns the attached aggregates that implement Observer.
// Caller must hold s.mu.
func (s *Store) observersLocked() []Observer {
	var out []Observer
	for _, name := range s.aggrNames {
		if o, ok := s.aggrs[name].(Observer); ok {
			out = append(out, o)
		}
	}
	return out
}
