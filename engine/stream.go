package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tailored-agentic-units/workflow/graph"
	"github.com/tailored-agentic-units/workflow/observability"
	"github.com/tailored-agentic-units/workflow/state"
)

// EventKind identifies a streaming event. Its value is the "event" field of
// the wire shape.
type EventKind string

// Stream event kinds, in the order a run emits them. KindError replaces the
// remaining events when the run fails.
const (
	KindRunStarted   EventKind = "run_started"
	KindStep         EventKind = "step"
	KindRunCompleted EventKind = "run_completed"
	KindRunStopped   EventKind = "run_stopped"
	KindError        EventKind = "error"
)

// Event is one message of the streaming protocol. Only the field matching
// Kind is meaningful; Payload and MarshalJSON produce the wire shape, so
// transports can write an Event directly with a JSON encoder.
type Event struct {
	Kind  EventKind
	RunID string      // run_started
	Step  LogEntry    // step
	State state.State // run_completed, run_stopped
	Err   string      // error
}

// Payload returns the event in wire shape:
//
//	{"event": "run_started", "run_id": "..."}
//	{"event": "step", "data": {"node_id": "...", "state": {...}}}
//	{"event": "run_completed", "final_state": {...}}
//	{"event": "run_stopped", "state": {...}}
//	{"event": "error", "error": "..."}
func (e Event) Payload() map[string]any {
	p := map[string]any{"event": string(e.Kind)}
	switch e.Kind {
	case KindRunStarted:
		p["run_id"] = e.RunID
	case KindStep:
		p["data"] = map[string]any{
			"node_id": e.Step.NodeID,
			"state":   plainState(e.Step.State),
		}
	case KindRunCompleted:
		p["final_state"] = plainState(e.State)
	case KindRunStopped:
		p["state"] = plainState(e.State)
	case KindError:
		p["error"] = e.Err
	}
	return p
}

// MarshalJSON encodes the event in its wire shape.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Payload())
}

// ErrorEvent builds an error event carrying err's message.
func ErrorEvent(err error) Event {
	return Event{Kind: KindError, Err: err.Error()}
}

// Emitter delivers stream events to a remote peer. Emit returns once the event
// has been handed to the transport; an error means the peer is gone.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// EmitterFunc adapts a function to Emitter.
//
// Example:
//
//	emitter := engine.EmitterFunc(func(_ context.Context, e engine.Event) error {
//	    return conn.WriteJSON(e)
//	})
type EmitterFunc func(ctx context.Context, event Event) error

// Emit calls f(ctx, event).
func (f EmitterFunc) Emit(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Stream drives run like Drive but reports progress through emitter:
//
//  1. run_started with the run id
//  2. one step event per executed node, in execution order, each emitted
//     before the next node runs
//  3. run_completed with the final state, or run_stopped when MaxSteps ran
//     out with a node still pending
//
// The run is persisted only after the terminal event was delivered.
//
// When the emitter fails or ctx is cancelled the stream aborts silently: no
// further events are sent, the run is not persisted, and the returned error
// wraps ErrStreamAborted. Execution failures are reported to the peer as an
// error event and returned as *ExecutionError; such runs are not persisted
// either.
//
// Example:
//
//	run, err := d.Stream(ctx, g, engine.NewRun(id, g.ID, initial), emitter)
//	if errors.Is(err, engine.ErrStreamAborted) {
//	    return // peer is gone, nothing to report
//	}
func (d *Driver) Stream(ctx context.Context, g *graph.Graph, run *Run, emitter Emitter) (*Run, error) {
	send := func(e Event) error {
		if err := ctx.Err(); err != nil {
			return d.abort(ctx, run, err)
		}
		if err := emitter.Emit(ctx, e); err != nil {
			return d.abort(ctx, run, err)
		}
		return nil
	}

	if err := send(Event{Kind: KindRunStarted, RunID: run.ID}); err != nil {
		return run, err
	}

	err := d.advance(ctx, g, run, func(entry LogEntry) error {
		return send(Event{Kind: KindStep, Step: entry})
	})
	if err != nil {
		if errors.Is(err, ErrStreamAborted) {
			return run, err
		}
		if ctx.Err() != nil {
			return run, d.abort(ctx, run, ctx.Err())
		}
		if sendErr := send(ErrorEvent(err)); sendErr != nil {
			return run, sendErr
		}
		return run, err
	}

	terminal := Event{Kind: KindRunCompleted, State: run.State}
	if run.Status == StatusStopped {
		terminal = Event{Kind: KindRunStopped, State: run.State}
	}
	if err := send(terminal); err != nil {
		return run, err
	}

	if err := d.runs.Save(run); err != nil {
		return run, fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return run, nil
}

func (d *Driver) abort(ctx context.Context, run *Run, cause error) error {
	d.emit(ctx, EventStreamAbort, observability.LevelWarning, map[string]any{
		"run_id": run.ID,
		"steps":  len(run.Log),
		"cause":  cause.Error(),
	})
	return fmt.Errorf("%w: %v", ErrStreamAborted, cause)
}

func plainState(s state.State) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return map[string]any(s)
}
