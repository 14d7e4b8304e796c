package graph

// Node is one step in a graph: the tool to invoke and how to pick the
// successor.
//
// Optional edge targets use the empty string for "none", which terminates the
// run. When ConditionKey is set, OnTrue and OnFalse are the branch targets and
// NextNode is ignored; otherwise NextNode is the unconditional successor.
type Node struct {
	ID             string `json:"id"`
	ToolName       string `json:"tool_name"`
	NextNode       string `json:"next_node,omitempty"`
	ConditionKey   string `json:"condition_key,omitempty"`
	ConditionValue any    `json:"condition_value,omitempty"`
	OnTrue         string `json:"on_true,omitempty"`
	OnFalse        string `json:"on_false,omitempty"`
}

// Conditional reports whether the node routes by condition rather than by
// NextNode.
func (n Node) Conditional() bool {
	return n.ConditionKey != ""
}
