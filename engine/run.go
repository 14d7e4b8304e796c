package engine

import (
	"slices"

	"github.com/tailored-agentic-units/workflow/state"
)

// Status is the lifecycle position of a run.
//
// A run starts in StatusRunning and every drive ends in one of the two
// terminal statuses. StatusStopped is not a failure: it records that the
// step budget ran out with a node still pending, and such a run can be driven
// again from CurrentNodeID.
type Status string

const (
	// StatusRunning marks a run that is being driven.
	StatusRunning Status = "running"
	// StatusCompleted marks a run whose graph reached a terminal edge.
	StatusCompleted Status = "completed"
	// StatusStopped marks a run that exhausted MaxSteps with a node pending.
	StatusStopped Status = "stopped"
)

// Terminal reports whether no further steps happen within the current drive.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusStopped
}

// LogEntry records one executed step: the node visited and a snapshot of the
// state it produced.
type LogEntry struct {
	NodeID string      `json:"node_id"`
	State  state.State `json:"state"`
}

// Run is one execution of a graph. CurrentNodeID is nil before the first step
// and after the graph terminates; a stopped run keeps the node it would have
// visited next.
type Run struct {
	ID            string      `json:"id"`
	GraphID       string      `json:"graph_id"`
	CurrentNodeID *string     `json:"current_node_id"`
	State         state.State `json:"state"`
	Log           []LogEntry  `json:"log"`
	Status        Status      `json:"status"`
}

// NewRun creates a run in the running status with an empty log. A nil
// initial state becomes an empty State.
//
// Example:
//
//	run := engine.NewRun(uuid.NewString(), g.ID, state.State{"text": "..."})
//	run, err := d.Drive(ctx, g, run)
func NewRun(id, graphID string, initial state.State) *Run {
	if initial == nil {
		initial = state.State{}
	}
	return &Run{
		ID:      id,
		GraphID: graphID,
		State:   initial,
		Log:     []LogEntry{},
		Status:  StatusRunning,
	}
}

// Clone returns a deep copy of the run. The current node pointer, the state
// and every log snapshot are copied, so the clone can be stored or returned to
// callers while the original keeps being driven.
func (r *Run) Clone() *Run {
	c := *r
	if r.CurrentNodeID != nil {
		id := *r.CurrentNodeID
		c.CurrentNodeID = &id
	}
	c.State = r.State.Clone()
	c.Log = slices.Clone(r.Log)
	if c.Log == nil {
		c.Log = []LogEntry{}
	}
	for i := range c.Log {
		c.Log[i].State = c.Log[i].State.Clone()
	}
	return &c
}

func optional(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
