// Package workflow exposes graph creation and execution as transport-neutral
// operations.
//
// A Service owns the tool registry, the graph and run stores and the driver
// that binds them. Transports (HTTP, WebSocket, Connect) translate requests
// into Service calls and map the sentinel errors of the store, graph, tools
// and engine packages onto their own status codes.
//
//	svc := workflow.New(workflow.WithObserver(obs))
//	id, err := svc.CreateGraph(ctx, req)
//	result, err := svc.RunGraph(ctx, workflow.RunRequest{GraphID: id})
package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/workflow/engine"
	"github.com/tailored-agentic-units/workflow/graph"
	"github.com/tailored-agentic-units/workflow/observability"
	"github.com/tailored-agentic-units/workflow/state"
	"github.com/tailored-agentic-units/workflow/store"
	"github.com/tailored-agentic-units/workflow/tools"
)

// CreateGraphRequest describes a graph to register.
type CreateGraphRequest struct {
	StartNodeID string       `json:"start_node_id"`
	Nodes       []graph.Node `json:"nodes"`
}

// RunRequest starts a run of a registered graph.
type RunRequest struct {
	GraphID      string      `json:"graph_id"`
	InitialState state.State `json:"initial_state"`
}

// RunResult is the outcome of a batch run.
type RunResult struct {
	RunID      string            `json:"run_id"`
	FinalState state.State       `json:"final_state"`
	Log        []engine.LogEntry `json:"log"`
	Status     engine.Status     `json:"status"`
}

func resultOf(run *engine.Run) *RunResult {
	return &RunResult{
		RunID:      run.ID,
		FinalState: run.State,
		Log:        run.Log,
		Status:     run.Status,
	}
}

// Option configures a Service.
type Option func(*Service)

// WithRegistry replaces the built-in tool registry.
func WithRegistry(r *tools.Registry) Option {
	return func(s *Service) { s.tools = r }
}

// WithObserver sets the observer passed to the driver.
func WithObserver(o observability.Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithIDGenerator replaces uuid.NewString for graph and run ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// Service is safe for concurrent use.
type Service struct {
	tools    *tools.Registry
	graphs   *store.GraphStore
	runs     *store.RunStore
	driver   *engine.Driver
	observer observability.Observer
	newID    func() string
}

// New creates a Service with the built-in tools and empty stores.
func New(opts ...Option) *Service {
	s := &Service{
		graphs:   store.NewGraphStore(),
		runs:     store.NewRunStore(),
		observer: observability.NoOpObserver{},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tools == nil {
		s.tools = tools.NewBuiltinRegistry()
	}
	s.driver = engine.NewDriver(s.tools, s.runs, engine.WithObserver(s.observer))
	return s
}

// CreateGraph registers a graph under a fresh id and returns the id.
// Node references are not validated; a missing node surfaces when a run
// reaches it.
func (s *Service) CreateGraph(_ context.Context, req CreateGraphRequest) (string, error) {
	g, err := graph.New(s.newID(), req.StartNodeID, req.Nodes)
	if err != nil {
		return "", err
	}
	if err := s.graphs.Save(g); err != nil {
		return "", fmt.Errorf("failed to save graph: %w", err)
	}
	return g.ID, nil
}

// GetGraph returns a registered graph.
func (s *Service) GetGraph(_ context.Context, id string) (*graph.Graph, error) {
	return s.graphs.Get(id)
}

// RunGraph drives a new run of the requested graph to completion or until the
// step budget runs out.
func (s *Service) RunGraph(ctx context.Context, req RunRequest) (*RunResult, error) {
	g, err := s.graphs.Get(req.GraphID)
	if err != nil {
		return nil, err
	}

	run, err := s.driver.Drive(ctx, g, engine.NewRun(s.newID(), g.ID, req.InitialState))
	if err != nil {
		return nil, err
	}
	return resultOf(run), nil
}

// GetRun returns a persisted run.
func (s *Service) GetRun(_ context.Context, id string) (*engine.Run, error) {
	return s.runs.Get(id)
}

// ResumeRun continues a stopped run from its pending node with a fresh step
// budget. The log keeps growing across resumes and the run id is unchanged.
func (s *Service) ResumeRun(ctx context.Context, id string) (*RunResult, error) {
	run, err := s.runs.Get(id)
	if err != nil {
		return nil, err
	}
	if run.Status != engine.StatusStopped || run.CurrentNodeID == nil {
		return nil, fmt.Errorf("%w: %s is %s", ErrRunNotResumable, id, run.Status)
	}

	g, err := s.graphs.Get(run.GraphID)
	if err != nil {
		return nil, err
	}

	run, err = s.driver.Drive(ctx, g, run)
	if err != nil {
		return nil, err
	}
	return resultOf(run), nil
}

// StreamRun starts a new run and reports its progress through emitter. An
// unknown graph is reported as a single error event.
func (s *Service) StreamRun(ctx context.Context, req RunRequest, emitter engine.Emitter) error {
	g, err := s.graphs.Get(req.GraphID)
	if err != nil {
		if emitErr := emitter.Emit(ctx, engine.ErrorEvent(err)); emitErr != nil {
			return fmt.Errorf("%w: %v", engine.ErrStreamAborted, emitErr)
		}
		return err
	}

	_, err = s.driver.Stream(ctx, g, engine.NewRun(s.newID(), g.ID, req.InitialState), emitter)
	return err
}

// Tools returns the registered tool names in sorted order.
func (s *Service) Tools() []string {
	return s.tools.Names()
}
