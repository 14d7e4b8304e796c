// Package engine executes workflow graphs.
//
// A Driver walks a run through its graph one node at a time: it resolves the
// current node, hands it to Execute, snapshots the resulting state into the
// run log and follows the returned edge. Drive does this to completion and
// returns the run; Stream does the same while emitting one event per step.
//
//	d := engine.NewDriver(registry, runs, engine.WithObserver(obs))
//	run, err := d.Drive(ctx, g, engine.NewRun(id, g.ID, initial))
//	// run.Status is completed, or stopped when MaxSteps ran out first
//
// Every run is bounded by MaxSteps node visits. Running out of steps while a
// next node is still pending is reported as StatusStopped, never as an error.
// Unknown tools, missing nodes and tool failures abort the run with an
// *ExecutionError and nothing is persisted.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/workflow/graph"
	"github.com/tailored-agentic-units/workflow/observability"
)

// MaxSteps bounds the node visits of a single drive.
const MaxSteps = 100

// RunSaver persists finished runs, replacing any run with the same id.
type RunSaver interface {
	Save(run *Run) error
}

// Option configures a Driver.
type Option func(*Driver)

// WithObserver sets the observer that receives run and node events.
func WithObserver(o observability.Observer) Option {
	return func(d *Driver) {
		if o != nil {
			d.observer = o
		}
	}
}

// Driver owns the step loop for batch and streamed runs. A Driver holds no
// per-run state and may drive any number of runs concurrently; each Run must
// be driven by one caller at a time.
type Driver struct {
	tools    ToolLookup
	runs     RunSaver
	observer observability.Observer
}

// NewDriver creates a Driver that resolves tools from lookup and persists
// finished runs to runs.
func NewDriver(lookup ToolLookup, runs RunSaver, opts ...Option) *Driver {
	d := &Driver{
		tools:    lookup,
		runs:     runs,
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Drive advances run through g until the graph terminates or MaxSteps is
// exhausted, then persists it. The run is mutated in place and returned.
//
// Execution resumes from run.CurrentNodeID when it is set, otherwise it
// starts at g.StartNodeID.
func (d *Driver) Drive(ctx context.Context, g *graph.Graph, run *Run) (*Run, error) {
	if err := d.advance(ctx, g, run, nil); err != nil {
		return run, err
	}

	if err := d.runs.Save(run); err != nil {
		return run, fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return run, nil
}

// advance is the step loop shared by Drive and Stream. onStep, when non-nil,
// is called after each log append; an error from it stops the loop.
func (d *Driver) advance(ctx context.Context, g *graph.Graph, run *Run, onStep func(LogEntry) error) error {
	current := g.StartNodeID
	if run.CurrentNodeID != nil {
		current = *run.CurrentNodeID
	}
	run.Status = StatusRunning

	d.emit(ctx, EventRunStart, observability.LevelInfo, map[string]any{
		"run_id":     run.ID,
		"graph_id":   g.ID,
		"start_node": current,
	})

	s := run.State
	path := make([]string, 0, MaxSteps)

	for step := 0; step < MaxSteps && current != ""; step++ {
		path = append(path, current)

		fail := func(err error) error {
			d.emit(ctx, EventRunError, observability.LevelError, map[string]any{
				"run_id": run.ID,
				"node":   current,
				"step":   step,
				"error":  err.Error(),
			})
			return &ExecutionError{NodeID: current, Step: step, Path: path, Err: err}
		}

		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("execution cancelled: %w", err))
		}

		node, err := g.Node(current)
		if err != nil {
			return fail(err)
		}

		d.emit(ctx, EventNodeStart, observability.LevelVerbose, map[string]any{
			"run_id": run.ID,
			"node":   current,
			"tool":   node.ToolName,
			"step":   step,
		})

		next, nextID, err := Execute(ctx, d.tools, node, s)
		if err != nil {
			return fail(err)
		}

		if node.Conditional() {
			d.emit(ctx, EventEdgeBranch, observability.LevelVerbose, map[string]any{
				"run_id":        run.ID,
				"node":          current,
				"condition_key": node.ConditionKey,
				"next":          nextID,
			})
		}

		entry := LogEntry{NodeID: current, State: next.Clone()}
		run.Log = append(run.Log, entry)

		d.emit(ctx, EventNodeComplete, observability.LevelVerbose, map[string]any{
			"run_id": run.ID,
			"node":   current,
			"step":   step,
			"next":   nextID,
		})

		if onStep != nil {
			if err := onStep(entry); err != nil {
				return err
			}
		}

		s = next
		current = nextID
	}

	run.State = s
	run.CurrentNodeID = optional(current)

	if current == "" {
		run.Status = StatusCompleted
		d.emit(ctx, EventRunComplete, observability.LevelInfo, map[string]any{
			"run_id": run.ID,
			"steps":  len(path),
		})
	} else {
		run.Status = StatusStopped
		d.emit(ctx, EventRunStop, observability.LevelWarning, map[string]any{
			"run_id":    run.ID,
			"steps":     len(path),
			"max_steps": MaxSteps,
			"pending":   current,
		})
	}

	return nil
}

func (d *Driver) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	d.observer.OnEvent(ctx, observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "engine",
		Data:      data,
	})
}
