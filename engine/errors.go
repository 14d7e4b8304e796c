package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for run execution.
var (
	ErrStreamAborted = errors.New("stream aborted")
	ErrNilState      = errors.New("tool returned nil state")
)

// ExecutionError describes why a run aborted:
//   - NodeID: node being visited when execution failed
//   - Step: zero-based step index
//   - Path: node ids visited before and including NodeID
//   - Err: underlying cause (unknown tool, missing node, tool failure)
type ExecutionError struct {
	NodeID string
	Step   int
	Path   []string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed at node %s (step %d): %v", e.NodeID, e.Step, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
