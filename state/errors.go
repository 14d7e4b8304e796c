package state

import "errors"

// ErrKind is returned when a state value does not have the expected kind.
var ErrKind = errors.New("unexpected value kind")
