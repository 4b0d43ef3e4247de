package sqlback

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages the registration and retrieval of database backends.
type Registry struct {
	backends map[string]Backend
	mu       sync.RWMutex
}

// NewRegistry creates a new backend registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Backend),
	}
}

// Register registers a backend under its Name. A backend registered
// under the same name is replaced.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backends[b.Name()] = b
}

// Get retrieves a registered backend by name.
// Returns ErrBackendNotFound if no backend is registered under name.
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, exists := r.backends[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, name)
	}

	return b, nil
}

// List returns the names of all registered backends, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// defaultRegistry is the registry backend packages register into.
var defaultRegistry = NewRegistry()

// Register registers a backend in the default registry.
func Register(b Backend) {
	defaultRegistry.Register(b)
}

// Get retrieves a backend from the default registry.
func Get(name string) (Backend, error) {
	return defaultRegistry.Get(name)
}

// Backends returns the names registered in the default registry.
func Backends() []string {
	return defaultRegistry.List()
}
