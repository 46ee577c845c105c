package engine

import "errors"

// Errors returned by session operations.
var (
	// ErrNoStore indicates a persistence operation on a session without a store.
	ErrNoStore = errors.New("session has no store")

	// ErrCommandPanic indicates a command panicked. Its changes were rolled back.
	ErrCommandPanic = errors.New("command panicked")

	// ErrLogChange indicates a command was applied but could not be logged.
	ErrLogChange = errors.New("change not logged")
)
