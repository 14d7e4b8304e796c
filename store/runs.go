package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/workflow/engine"
)

// RunStore holds finished runs by id. It satisfies engine.RunSaver.
type RunStore struct {
	runs map[string]*engine.Run
	mu   sync.RWMutex
}

// NewRunStore creates an empty RunStore.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*engine.Run)}
}

// Save stores a copy of run, replacing any run with the same id.
func (s *RunStore) Save(run *engine.Run) error {
	c := run.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = c
	return nil
}

// Get returns a copy of the run with the given id.
// Returns ErrRunNotFound if no such run exists.
func (s *RunStore) Get(id string) (*engine.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run.Clone(), nil
}

// List returns the stored run ids in sorted order.
func (s *RunStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
