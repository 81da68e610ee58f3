// Package registry maps rule-type names to predicate instances with lazy
// construction and per-type caching.
package registry

import (
	"sync"

	"github.com/availd-io/availd/internal/domain/availability"
)

// Factory instantiates predicates from string identifiers. Hosts inject one
// so definitions can be declarative ("weekdays") rather than concrete values.
type Factory interface {
	// New returns a predicate for the identifier, or nil when unknown.
	New(name string) availability.Predicate
}

// Registry resolves rule-type names to predicates.
//
// A definition passed to Register is one of:
//   - an availability.Predicate instance, used as-is;
//   - a string identifier, resolved through the injected Factory;
//   - a func() availability.Predicate constructor;
//   - a func(Factory) availability.Predicate constructor.
//
// Anything else is structurally invalid and resolves to nil. Resolution is
// lazy and cached per type, so predicate-internal state (e.g. the inventory
// resolver cache) survives across evaluations. Re-registering a type
// invalidates only that type's cache entry.
//
// Install all definitions at startup; Register during concurrent evaluation
// is not supported without external synchronization.
type Registry struct {
	factory Factory

	mu       sync.RWMutex
	defs     map[string]any
	resolved map[string]availability.Predicate
}

// New creates a Registry. factory may be nil, in which case string
// identifiers never resolve.
func New(factory Factory) *Registry {
	return &Registry{
		factory:  factory,
		defs:     make(map[string]any),
		resolved: make(map[string]availability.Predicate),
	}
}

// Register stores a definition for the type name, replacing any previous one
// and invalidating that type's resolved cache entry.
func (r *Registry) Register(name string, definition any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[name] = definition
	delete(r.resolved, name)
}

// Get returns the predicate for the type name, resolving and caching the
// definition on first use. Returns nil when no definition exists, when the
// definition is structurally invalid, or when a constructor yields nil.
func (r *Registry) Get(name string) availability.Predicate {
	r.mu.RLock()
	if p, ok := r.resolved[name]; ok {
		r.mu.RUnlock()
		return p
	}
	def, ok := r.defs[name]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	p := r.resolve(def)
	if p == nil {
		return nil
	}

	r.mu.Lock()
	r.resolved[name] = p
	r.mu.Unlock()
	return p
}

// All resolves every registered definition and returns the cache, skipping
// types that resolve to nil.
func (r *Registry) All() map[string]availability.Predicate {
	r.mu.RLock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	r.mu.RUnlock()

	out := make(map[string]availability.Predicate, len(names))
	for _, name := range names {
		if p := r.Get(name); p != nil {
			out[name] = p
		}
	}
	return out
}

// resolve turns a definition into a predicate, or nil when it cannot.
// Constructor panics propagate: they are programmer errors in host wiring.
func (r *Registry) resolve(def any) availability.Predicate {
	switch d := def.(type) {
	case availability.Predicate:
		return d
	case string:
		if r.factory == nil {
			return nil
		}
		return r.factory.New(d)
	case func() availability.Predicate:
		return d()
	case func(Factory) availability.Predicate:
		return d(r.factory)
	default:
		return nil
	}
}
