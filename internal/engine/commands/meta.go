package commands

import (
	"errors"

	"github.com/dshills/humane/internal/engine/history"
)

// UndoLast undoes the most recent command in the history.
type UndoLast struct{}

func (c *UndoLast) Name() string            { return "UNDO" }
func (c *UndoLast) Recordable() bool        { return false }
func (c *UndoLast) Replayable() bool        { return true }
func (c *UndoLast) Undo(*history.Env) error { return nil }

func (c *UndoLast) Execute(env *history.Env) error {
	err := env.History.Undo(env)
	if errors.Is(err, history.ErrNothingToUndo) {
		return history.Cancel("Nothing to undo!")
	}
	return err
}

// RedoLast redoes the most recently undone command.
type RedoLast struct{}

func (c *RedoLast) Name() string            { return "REDO" }
func (c *RedoLast) Recordable() bool        { return false }
func (c *RedoLast) Replayable() bool        { return true }
func (c *RedoLast) Undo(*history.Env) error { return nil }

func (c *RedoLast) Execute(env *history.Env) error {
	err := env.History.Redo(env)
	if errors.Is(err, history.ErrNothingToRedo) {
		return history.Cancel("Nothing to redo!")
	}
	return err
}

// ClearHistory forgets every history entry except the last applied one.
type ClearHistory struct{}

func (c *ClearHistory) Name() string            { return "CLEAR UNDO HISTORY" }
func (c *ClearHistory) Recordable() bool        { return false }
func (c *ClearHistory) Replayable() bool        { return true }
func (c *ClearHistory) Undo(*history.Env) error { return nil }

func (c *ClearHistory) Execute(env *history.Env) error {
	env.History.Clear()
	return nil
}
