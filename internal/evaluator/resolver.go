package evaluator

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/availd-io/availd/internal/domain/availability"
)

// ResolverFunc resolves an external inventory level for a subject at a
// moment. The return is interpreted by the inventory gate: bool is used
// directly, a number is compared against the configured minimum, anything
// else never matches. Errors propagate to the caller of IsAvailable.
type ResolverFunc func(ctx context.Context, subject availability.Subject, moment time.Time, cfg map[string]any) (any, error)

// Resolver is the interface a constructed resolver value may satisfy when no
// explicit method name is given.
type Resolver interface {
	Resolve(ctx context.Context, subject availability.Subject, moment time.Time, cfg map[string]any) (any, error)
}

// ResolverConfig is the inventory_gate configuration block. Definitions are
// heterogeneous, mirroring what untyped host configuration can express:
//
//   - a ResolverFunc (or a Resolver instance), used as-is;
//   - a string "name" naming a constructor in Constructors; the constructed
//     value's Resolve method is bound (or the value itself when it already is
//     a ResolverFunc);
//   - a string "name@Method": construct by name, bind the named method;
//   - a two-element sequence [name-or-instance, method]: bind the method on
//     the constructed or given instance.
//
// Anything else yields no resolver, which the gate treats as non-match.
type ResolverConfig struct {
	// Resolver is the global fallback definition.
	Resolver any
	// Resolvers maps a subject class (or "*" wildcard) to a definition.
	Resolvers map[string]any
	// Constructors is the host-supplied table string definitions are
	// instantiated through.
	Constructors map[string]func() any
}

// resolverAdapter normalizes definitions into ResolverFuncs and memoizes the
// result per subject class. The memo lives for the adapter's lifetime;
// flushing requires recreating the owning predicate.
type resolverAdapter struct {
	cfg ResolverConfig

	mu    sync.Mutex
	cache map[string]ResolverFunc // class -> callable (nil = resolved to none)
}

func newResolverAdapter(cfg ResolverConfig) *resolverAdapter {
	return &resolverAdapter{
		cfg:   cfg,
		cache: make(map[string]ResolverFunc),
	}
}

// resolverFor returns the callable for a subject class, or nil when no
// definition applies. Selection order: exact class, "*" wildcard, global.
func (a *resolverAdapter) resolverFor(class string) ResolverFunc {
	a.mu.Lock()
	defer a.mu.Unlock()

	if fn, ok := a.cache[class]; ok {
		return fn
	}

	def := a.definitionFor(class)
	fn := normalizeResolver(def, a.cfg.Constructors)
	a.cache[class] = fn
	return fn
}

func (a *resolverAdapter) definitionFor(class string) any {
	if def, ok := a.cfg.Resolvers[class]; ok {
		return def
	}
	if def, ok := a.cfg.Resolvers["*"]; ok {
		return def
	}
	return a.cfg.Resolver
}

// normalizeResolver turns one definition into a ResolverFunc, or nil when
// the shape is unusable.
func normalizeResolver(def any, ctors map[string]func() any) ResolverFunc {
	switch d := def.(type) {
	case nil:
		return nil
	case ResolverFunc:
		return d
	case func(context.Context, availability.Subject, time.Time, map[string]any) (any, error):
		return d
	case Resolver:
		return d.Resolve
	case string:
		return resolverFromName(d, ctors)
	case []any:
		return resolverFromPair(d, ctors)
	default:
		return nil
	}
}

func resolverFromName(name string, ctors map[string]func() any) ResolverFunc {
	ctorName, method, hasMethod := cutAt(name)
	ctor, ok := ctors[ctorName]
	if !ok {
		return nil
	}
	inst := ctor()
	if inst == nil {
		return nil
	}
	if hasMethod {
		return bindMethod(inst, method)
	}
	if fn := normalizeResolver(inst, ctors); fn != nil {
		return fn
	}
	return bindMethod(inst, "Resolve")
}

func resolverFromPair(pair []any, ctors map[string]func() any) ResolverFunc {
	if len(pair) != 2 {
		return nil
	}
	method, ok := pair[1].(string)
	if !ok || method == "" {
		return nil
	}

	inst := pair[0]
	if name, ok := pair[0].(string); ok {
		ctor, found := ctors[name]
		if !found {
			return nil
		}
		inst = ctor()
	}
	if inst == nil {
		return nil
	}
	return bindMethod(inst, method)
}

// cutAt splits "name@Method" at the first '@'.
func cutAt(s string) (name, method string, found bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '@' {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// bindMethod looks up a method by name and binds it when it carries the
// ResolverFunc signature. Anything else yields nil.
func bindMethod(inst any, name string) ResolverFunc {
	m := reflect.ValueOf(inst).MethodByName(name)
	if !m.IsValid() {
		return nil
	}
	fn, ok := m.Interface().(func(context.Context, availability.Subject, time.Time, map[string]any) (any, error))
	if !ok {
		return nil
	}
	return fn
}
