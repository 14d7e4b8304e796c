package tools

import "errors"

// Sentinel errors for the tool registry.
var (
	ErrUnknownTool = errors.New("unknown tool")
	ErrEmptyName   = errors.New("tool name is empty")
	ErrNilTool     = errors.New("tool function is nil")
)
