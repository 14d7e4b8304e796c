package workflow

import "errors"

// ErrRunNotResumable is returned when resuming a run that has no pending node.
var ErrRunNotResumable = errors.New("run is not resumable")
