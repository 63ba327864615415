package flatten

import "errors"

var (
	// ErrCycleDetected is returned when a mapping is reached again while it is still on the current path.
	ErrCycleDetected = errors.New("nested configuration contains a cycle")
	// ErrDepthExceeded is returned when nesting goes deeper than the configured maximum.
	ErrDepthExceeded = errors.New("nested configuration exceeds the maximum depth")
)
