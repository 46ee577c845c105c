package history

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dshills/humane/internal/engine/document"
)

// Command is a reversible edit. Undo must restore exactly the state
// observable before Execute: content, styles, behaviors, cursor and
// selections.
type Command interface {
	// Name returns the user-facing command name, e.g. "ADD TEXT".
	Name() string

	// Execute performs the command.
	Execute(env *Env) error

	// Undo reverses a previous Execute or Redo.
	Undo(env *Env) error
}

// Redoer is implemented by commands whose redo differs from Execute,
// typically because Execute produces a value that redo must reuse.
type Redoer interface {
	Redo(env *Env) error
}

// Recordable is implemented by commands that opt out of the history.
// Commands that do not implement it are recorded.
type Recordable interface {
	Recordable() bool
}

// Replayable is implemented by unrecorded commands that must still be
// written to the change log, such as undo and redo themselves.
type Replayable interface {
	Replayable() bool
}

// Stopper is implemented by handler-produced commands that decide at run
// time whether lower-priority handlers still run.
type Stopper interface {
	StopBit() bool
}

// LeapTargeter is implemented by leap commands; the history remembers the
// last target so a repeat leap can reuse it.
type LeapTargeter interface {
	LeapTarget() string
}

// Redo re-applies cmd after an Undo.
func Redo(env *Env, cmd Command) error {
	if r, ok := cmd.(Redoer); ok {
		return r.Redo(env)
	}
	return cmd.Execute(env)
}

// IsRecordable reports whether cmd belongs in the history.
func IsRecordable(cmd Command) bool {
	if r, ok := cmd.(Recordable); ok {
		return r.Recordable()
	}
	return true
}

// IsReplayable reports whether an unrecorded cmd is still logged.
func IsReplayable(cmd Command) bool {
	r, ok := cmd.(Replayable)
	return ok && r.Replayable()
}

// Clipboard is the system clipboard as seen by copy and paste.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// Env is everything a command can reach while it runs.
type Env struct {
	Doc       *document.Document
	History   *History
	Recorder  *Recorder
	Clipboard Clipboard
	Logger    *slog.Logger

	// Notice receives transient user-facing messages. It may be nil.
	Notice func(msg string)
}

// Notify sends msg to Notice when one is set.
func (e *Env) Notify(msg string) {
	if e.Notice != nil {
		e.Notice(msg)
	}
}

// Log returns the environment logger, or a discarding one.
func (e *Env) Log() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

// CancelError is a graceful abort: the command could not apply and says
// why. It is not a failure of the history.
type CancelError struct {
	Explanation string
}

func (e *CancelError) Error() string {
	return e.Explanation
}

// Cancel returns a CancelError with a formatted explanation.
func Cancel(format string, args ...any) error {
	return &CancelError{Explanation: fmt.Sprintf(format, args...)}
}

// IsCancel reports whether err is, or wraps, a CancelError.
func IsCancel(err error) bool {
	var ce *CancelError
	return errors.As(err, &ce)
}

// AsCancel returns the CancelError in err's chain.
func AsCancel(err error) (*CancelError, bool) {
	var ce *CancelError
	ok := errors.As(err, &ce)
	return ce, ok
}
