package store

import "errors"

// Sentinel errors for repository lookups.
var (
	ErrGraphNotFound = errors.New("graph not found")
	ErrRunNotFound   = errors.New("run not found")
)
