// Package store keeps graphs and runs for the lifetime of the process.
//
// Both stores are safe for concurrent use. Graphs are immutable and shared by
// reference; runs are copied on the way in and out so a caller holding a Run
// never observes or causes mutation of the stored record.
package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/workflow/graph"
)

// GraphStore holds graphs by id.
type GraphStore struct {
	graphs map[string]*graph.Graph
	mu     sync.RWMutex
}

// NewGraphStore creates an empty GraphStore.
func NewGraphStore() *GraphStore {
	return &GraphStore{graphs: make(map[string]*graph.Graph)}
}

// Save stores g under its id, replacing any graph with the same id.
func (s *GraphStore) Save(g *graph.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graphs[g.ID] = g
	return nil
}

// Get returns the graph with the given id.
// Returns ErrGraphNotFound if no such graph exists.
func (s *GraphStore) Get(id string) (*graph.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, exists := s.graphs[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, id)
	}
	return g, nil
}

// List returns the stored graph ids in sorted order.
func (s *GraphStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.graphs))
	for id := range s.graphs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
