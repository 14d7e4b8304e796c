package engine

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/workflow/graph"
	"github.com/tailored-agentic-units/workflow/state"
	"github.com/tailored-agentic-units/workflow/tools"
)

// ToolLookup resolves tool names to implementations. *tools.Registry
// satisfies it.
type ToolLookup interface {
	Lookup(name string) (tools.Func, error)
}

// Execute runs a single node: it invokes the node's tool on s and picks the
// successor. An empty next id means the run terminates after this node.
//
// Routing:
//  1. Conditional node: compare the tool output at ConditionKey with
//     ConditionValue (state.Equal; an absent key reads as null) and return
//     OnTrue or OnFalse.
//  2. Otherwise return NextNode.
//
// Returns tools.ErrUnknownTool when the node names an unregistered tool.
// Tool failures are wrapped with the tool name.
func Execute(ctx context.Context, lookup ToolLookup, node graph.Node, s state.State) (state.State, string, error) {
	fn, err := lookup.Lookup(node.ToolName)
	if err != nil {
		return nil, "", err
	}

	next, err := fn(ctx, s)
	if err != nil {
		return nil, "", fmt.Errorf("tool %s failed: %w", node.ToolName, err)
	}
	if next == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrNilState, node.ToolName)
	}

	if node.Conditional() {
		value := next[node.ConditionKey]
		if state.Equal(value, node.ConditionValue) {
			return next, node.OnTrue, nil
		}
		return next, node.OnFalse, nil
	}

	return next, node.NextNode, nil
}
