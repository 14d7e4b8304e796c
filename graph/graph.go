// Package graph defines workflow graphs: named nodes and a start node.
//
// Graphs are built once with New and never modified afterwards, so a single
// Graph may be read by any number of concurrent runs.
//
//	g, err := graph.New(id, "split", []graph.Node{
//	    {ID: "split", ToolName: "split_text", NextNode: "summarize"},
//	    {ID: "summarize", ToolName: "generate_summaries"},
//	})
//
// Edge targets are not validated at construction; a target missing from the
// node set surfaces as ErrNodeNotFound when a run reaches it.
package graph

import "fmt"

// Graph is an immutable set of nodes indexed by id plus the id of the node
// execution starts from.
type Graph struct {
	ID          string          `json:"id"`
	Nodes       map[string]Node `json:"nodes"`
	StartNodeID string          `json:"start_node_id"`
}

// New builds a Graph from a node list. When two nodes share an id the later
// one wins.
func New(id, startNodeID string, nodes []Node) (*Graph, error) {
	if startNodeID == "" {
		return nil, ErrEmptyStart
	}

	indexed := make(map[string]Node, len(nodes))
	for i, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("%w: node at index %d", ErrEmptyNodeID, i)
		}
		indexed[n.ID] = n
	}

	return &Graph{
		ID:          id,
		Nodes:       indexed,
		StartNodeID: startNodeID,
	}, nil
}

// Node returns the node with the given id.
// Returns ErrNodeNotFound if the graph has no such node.
func (g *Graph) Node(id string) (Node, error) {
	n, exists := g.Nodes[id]
	if !exists {
		return Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n, nil
}
