package engine

import "github.com/tailored-agentic-units/workflow/observability"

const (
	// Run lifecycle
	EventRunStart    observability.EventType = "run.start"
	EventRunComplete observability.EventType = "run.complete"
	EventRunStop     observability.EventType = "run.stop"
	EventRunError    observability.EventType = "run.error"

	// Node execution
	EventNodeStart    observability.EventType = "node.start"
	EventNodeComplete observability.EventType = "node.complete"
	EventEdgeBranch   observability.EventType = "edge.branch"

	// Streaming
	EventStreamAbort observability.EventType = "stream.abort"
)
