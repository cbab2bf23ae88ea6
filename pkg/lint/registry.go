package lint

import (
	"sort"
	"sync"
)

// defaultRegistry holds the adapters registered from init() functions.
var defaultRegistry = NewRegistry()

// Registry stores adapter definitions by identity.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition // keyed by Name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds def, replacing any definition with the same name.
// It panics on an invalid definition, which is a programming error.
func (r *Registry) Register(def Definition) {
	if err := def.Validate(); err != nil {
		panic(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// All returns every definition sorted by name.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})
	return defs
}

// Names returns the registered identities, sorted.
func (r *Registry) Names() []string {
	defs := r.All()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// Count returns the number of registered adapters.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Register adds an adapter to the default registry.
// Call this from init() functions in adapter packages.
func Register(def Definition) {
	defaultRegistry.Register(def)
}

// Default returns the registry adapter packages register into.
func Default() *Registry {
	return defaultRegistry
}
