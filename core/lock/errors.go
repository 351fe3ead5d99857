package lock

import "errors"

var (
	// ErrNotAcquired is returned when the wait budget elapses without the
	// lock becoming available. It is an expected outcome, not a failure.
	ErrNotAcquired = errors.New("lock: not acquired within wait budget")
)
