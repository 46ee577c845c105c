package persist

import (
	"errors"
	"fmt"
)

// Load errors.
var (
	// ErrNoState means no document has been saved yet.
	ErrNoState = errors.New("no saved state")

	// ErrCorrupt means saved state exists but cannot be trusted.
	ErrCorrupt = errors.New("saved state is corrupt")
)

// CorruptError describes unreadable saved state. Line is the change log
// line, or 0 for the snapshot itself.
type CorruptError struct {
	Path string
	Line int
	Err  error
}

func (e *CorruptError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: corrupt: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: corrupt: %v", e.Path, e.Err)
}

// Unwrap returns ErrCorrupt and the underlying error.
func (e *CorruptError) Unwrap() []error {
	return []error{ErrCorrupt, e.Err}
}
