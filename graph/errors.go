package graph

import "errors"

// Sentinel errors for graph construction and lookup.
var (
	ErrNodeNotFound = errors.New("node not found")
	ErrEmptyNodeID  = errors.New("node id is empty")
	ErrEmptyStart   = errors.New("start node id is empty")
)
