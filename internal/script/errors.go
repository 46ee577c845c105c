package script

import "errors"

// Errors for script operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrDuplicateDefinition is returned when a script defines a behavior or
	// command twice.
	ErrDuplicateDefinition = errors.New("defined twice")
)
