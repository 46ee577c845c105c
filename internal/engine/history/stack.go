package history

import (
	"errors"
	"fmt"
	"slices"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// ChangeLogger receives every command that enters the history or is
// otherwise replayable, so it can be written to the change log.
type ChangeLogger interface {
	LogChange(cmd Command) error
}

// History is the linear list of executed commands and the index of the
// last one that is currently applied. Entries after the index have been
// undone and can be redone until a new command is added.
type History struct {
	entries []Command
	current int

	anchor     int
	leapTarget string

	log ChangeLogger
}

// NewHistory creates an empty history. log may be nil.
func NewHistory(log ChangeLogger) *History {
	return &History{current: -1, log: log}
}

// SetChangeLogger replaces the change logger. nil disables logging.
func (h *History) SetChangeLogger(log ChangeLogger) {
	h.log = log
}

// Execute runs cmd and, when it is recordable, adds it to the history.
// A failed command leaves the history untouched.
func (h *History) Execute(env *Env, cmd Command) error {
	if err := cmd.Execute(env); err != nil {
		return err
	}
	if IsRecordable(cmd) {
		return h.Add(cmd, true)
	}
	if IsReplayable(cmd) {
		return h.logChange(cmd)
	}
	return nil
}

// Add appends an already executed command, discarding every entry that
// had been undone. When log is false the change logger is not told, which
// is how replay avoids logging the same command twice.
func (h *History) Add(cmd Command, log bool) error {
	h.entries = append(h.entries[:h.current+1], cmd)
	h.current = len(h.entries) - 1
	if lt, ok := cmd.(LeapTargeter); ok {
		h.leapTarget = lt.LeapTarget()
	}
	if !log {
		return nil
	}
	return h.logChange(cmd)
}

// Log writes an unrecorded command to the change log.
func (h *History) Log(cmd Command) error {
	return h.logChange(cmd)
}

func (h *History) logChange(cmd Command) error {
	if h.log == nil {
		return nil
	}
	if err := h.log.LogChange(cmd); err != nil {
		return fmt.Errorf("log %s: %w", cmd.Name(), err)
	}
	return nil
}

// Undo undoes the current entry and moves the index back.
func (h *History) Undo(env *Env) error {
	if h.current < 0 {
		return ErrNothingToUndo
	}
	if err := h.entries[h.current].Undo(env); err != nil {
		return err
	}
	h.current--
	return nil
}

// Redo re-applies the entry after the index and moves the index forward.
func (h *History) Redo(env *Env) error {
	if h.current >= len(h.entries)-1 {
		return ErrNothingToRedo
	}
	if err := Redo(env, h.entries[h.current+1]); err != nil {
		return err
	}
	h.current++
	return nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	return h.current >= 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	return h.current < len(h.entries)-1
}

// Clear drops every entry except the last applied one. Undone entries are
// dropped too.
func (h *History) Clear() {
	if h.current < 0 {
		h.entries = nil
		return
	}
	h.entries = []Command{h.entries[h.current]}
	h.current = 0
}

// Len returns the number of entries, including undone ones.
func (h *History) Len() int {
	return len(h.entries)
}

// Index returns the position of the last applied entry, or -1.
func (h *History) Index() int {
	return h.current
}

// Entries returns a copy of the entries.
func (h *History) Entries() []Command {
	return slices.Clone(h.entries)
}

// Restore replaces the entries and index, as read from a snapshot.
func (h *History) Restore(entries []Command, index int) error {
	if index < -1 || index >= len(entries) {
		return fmt.Errorf("history index %d outside %d entries", index, len(entries))
	}
	h.entries = slices.Clone(entries)
	h.current = index
	return nil
}

// SetSelectionAnchor records the position navigation extends selections
// from.
func (h *History) SetSelectionAnchor(pos int) {
	h.anchor = pos
}

// SelectionAnchor returns the last recorded anchor.
func (h *History) SelectionAnchor() int {
	return h.anchor
}

// LastLeapTarget returns the target of the most recent leap.
func (h *History) LastLeapTarget() string {
	return h.leapTarget
}

// SetLastLeapTarget overrides the remembered leap target.
func (h *History) SetLastLeapTarget(target string) {
	h.leapTarget = target
}

// Capped returns at most limit entries around the current index and the
// index within the result. Applied entries up to the index are kept first;
// remaining room goes to redoable entries after it.
func (h *History) Capped(limit int) ([]Command, int) {
	if limit <= 0 || len(h.entries) <= limit {
		return slices.Clone(h.entries), h.current
	}
	first := max(0, h.current-limit+1)
	out := slices.Clone(h.entries[first : h.current+1])
	room := limit - len(out)
	rest := h.entries[h.current+1:]
	out = append(out, rest[:min(room, len(rest))]...)
	return out, h.current - first
}
