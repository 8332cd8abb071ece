package logic

import (
	"context"
	"fmt"
	"sync"
)

// Invocation carries everything a built-in handler needs: the walked
// goal it was dispatched for, the substitution it runs under, the current
// rule-expansion depth (for built-ins like or that recurse into the
// resolver), and a Resolve callback that lets a built-in dispatch
// sub-goals through the real resolver rather than reimplementing
// resolution. This is how the disjunction built-in (or) can try
// alternatives that are themselves rule calls, not just other built-ins,
// without C5 importing C4 (Resolve is handed in in each Invocation rather
// than the registry holding a reference to the resolver package).
type Invocation struct {
	Goal    Compound
	Sub     Substitution
	Depth   int
	Resolve func(ctx context.Context, goals []Term, sub Substitution, depth int) *Stream
}

// Builtin is a pluggable, possibly I/O-bound predicate. Invoke returns a
// lazy, possibly asynchronous sequence of substitutions extending inv.Sub.
// Zero results means the goal failed; Invoke must not panic to signal
// failure (a panic inside a handler run through RunBuiltin is recovered
// and treated as fatal to the whole query).
type Builtin interface {
	Invoke(ctx context.Context, inv Invocation) *Stream
}

// BuiltinFunc adapts a plain function to the Builtin interface.
type BuiltinFunc func(ctx context.Context, inv Invocation) *Stream

// Invoke calls f.
func (f BuiltinFunc) Invoke(ctx context.Context, inv Invocation) *Stream { return f(ctx, inv) }

// DuplicateBuiltinError is returned when Register is called twice for the
// same predicate name — a configuration error, surfaced by New for the
// standard set and by Engine.RegisterBuiltin for a user built-in.
type DuplicateBuiltinError struct {
	Name string
}

func (e *DuplicateBuiltinError) Error() string {
	return fmt.Sprintf("logic: built-in %q already registered", e.Name)
}

// Registry maps a predicate name to its built-in handler. A registered
// name shadows any knowledge-base clauses under the same name — built-in
// dispatch always takes precedence.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Builtin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builtins: make(map[string]Builtin)}
}

// Register adds a handler under name. It errors if name is already
// registered, so user overrides and the standard set can never silently
// collide.
func (r *Registry) Register(name string, b Builtin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.builtins[name]; exists {
		return &DuplicateBuiltinError{Name: name}
	}
	r.builtins[name] = b
	return nil
}

// Lookup returns the handler registered for name, if any.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builtins[name]
	return b, ok
}

// RunBuiltin is the standard way to implement a Builtin: it spawns the
// producer goroutine, recovers any panic into a Result carrying an error
// (so it surfaces as a BuiltinError at the resolver instead of crashing
// the process), and hands fn a put
// callback for yielding each extended substitution. fn returning simply
// means "no more results" — it must not itself panic to signal failure.
func RunBuiltin(ctx context.Context, goal Compound, fn func(ctx context.Context, put func(Substitution) bool)) *Stream {
	out := newStream()
	go func() {
		defer out.close()
		defer func() {
			if p := recover(); p != nil {
				out.put(ctx, Result{Err: fmt.Errorf("%v", p)})
			}
		}()
		fn(ctx, func(sub Substitution) bool {
			return out.put(ctx, Result{Sub: sub})
		})
	}()
	return out
}
