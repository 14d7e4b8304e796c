package observability

import (
	"context"
	"slices"
	"sync"
)

// Recorder keeps every event it receives, for inspection in tests.
// Safe for concurrent use. The zero value is ready to use.
//
// Example:
//
//	var rec observability.Recorder
//	d := engine.NewDriver(registry, runs, engine.WithObserver(&rec))
//	// ... drive a run ...
//	types := rec.Types() // run.start, node.start, ...
type Recorder struct {
	events []Event
	mu     sync.Mutex
}

// OnEvent appends the event to the recording.
func (r *Recorder) OnEvent(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Types returns the recorded event types in arrival order.
func (r *Recorder) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}
