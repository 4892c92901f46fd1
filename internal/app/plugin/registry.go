package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a fresh plugin instance. Registered per operation
// identifier so replay can reconstruct operations from recorded steps.
type Factory func() Plugin

// Registry maps stable operation identifiers to plugin factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the identifier of the plugin it produces.
func (r *Registry) Register(f Factory) error {
	id := f().ID()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[id]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, id)
	}
	r.factories[id] = f
	return nil
}

// Resolve returns a fresh plugin instance for the identifier.
func (r *Registry) Resolve(id string) (Plugin, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, id)
	}
	return f(), nil
}

// IDs returns the registered operation identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
