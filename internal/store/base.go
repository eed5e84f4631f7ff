package store

import (
	"fmt"
	"sync"

	"github.com/roach88/recstore/internal/schema"
	"github.com/roach88/recstore/internal/value"
)

// Base is a registry of stores with unique names.
type Base struct {
	mu     sync.RWMutex
	stores map[string]*Store
	order  []string
}

// NewBase returns an empty registry.
func NewBase() *Base {
	return &Base{stores: make(map[string]*Store)}
}

// CreateStore creates a store from def and registers it.
// Returns DUPLICATE_STORE if the name is taken, or the error from New.
func (b *Base) CreateStore(def schema.StoreDef) (*Store, error) {
	s, err := New(def)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.stores[def.Name]; taken {
		return nil, &value.Error{
			Code:    value.CodeDuplicateStore,
			Message: "store name already registered",
			Store:   def.Name,
		}
	}
	b.stores[def.Name] = s
	b.order = append(b.order, def.Name)
	return s, nil
}

// CreateStores creates every store in defs. It stops at the first error;
// stores created before it stay registered.
func (b *Base) CreateStores(defs []schema.StoreDef) error {
	for _, def := range defs {
		if _, err := b.CreateStore(def); err != nil {
			return fmt.Errorf("create store %q: %w", def.Name, err)
		}
	}
	return nil
}

// Store returns the store registered under name, or NOT_FOUND.
func (b *Base) Store(name string) (*Store, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.stores[name]
	if !ok {
		return nil, &value.Error{Code: value.CodeNotFound, Message: "no such store", Store: name}
	}
	return s, nil
}

// StoreNames returns the registered names in creation order.
func (b *Base) StoreNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.order...)
}

// Stores returns the registered stores in creation order.
func (b *Base) Stores() []*Store {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Store, len(b.order))
	for i, name := range b.order {
		out[i] = b.stores[name]
	}
	return out
}

// Close closes every store. The registry stays populated so names can
// still be listed.
func (b *Base) Close() {
	for _, s := range b.Stores() {
		s.Close()
	}
}
