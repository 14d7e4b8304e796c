// Package tools holds the named state transforms that graph nodes invoke.
package tools

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/workflow/state"
)

// Func is the signature for tool implementations.
// A tool receives the full state and returns it with keys added or
// overwritten; it never removes keys and must not mutate its input.
type Func func(ctx context.Context, s state.State) (state.State, error)

// Registry maps tool names to their implementations.
// It is populated once at startup and read concurrently by running graphs.
type Registry struct {
	tools map[string]Func
	mu    sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Func)}
}

// Register adds fn under name, replacing any prior registration.
// Thread-safe for concurrent registration.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" {
		return ErrEmptyName
	}
	if fn == nil {
		return fmt.Errorf("%w: %s", ErrNilTool, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools[name] = fn
	return nil
}

// Lookup returns the tool registered under name.
// Returns ErrUnknownTool if no such tool exists.
func (r *Registry) Lookup(name string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return fn, nil
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
