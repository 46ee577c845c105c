package commands

import (
	"github.com/dshills/humane/internal/engine/history"
	"github.com/dshills/humane/internal/engine/style"
)

// Lock protects the selection: it is shaded and can no longer be edited,
// deleted or restyled until unlocked.
type Lock struct {
	Behavior string `json:"behavior"`
	steps
}

// Name returns the behavior name, which doubles as the command name.
func (c *Lock) Name() string {
	if c.Behavior == "" {
		return LockBehavior
	}
	return c.Behavior
}

func (c *Lock) Execute(env *history.Env) error {
	c.Applied = nil
	if err := c.run(env, &Style{Overlay: lockOverlay}); err != nil {
		return err
	}
	return c.run(env, &AddAction{Behavior: c.Name()})
}

func (c *Lock) Undo(env *history.Env) error {
	return c.undo(env)
}

// Unlock removes locks from the selection and restores plain colors.
// System unlocks only lift SYSTEM LOCK.
type Unlock struct {
	System bool `json:"system,omitempty"`
	steps
}

func (c *Unlock) Name() string {
	if c.System {
		return "SYSTEM UNLOCK"
	}
	return "UNLOCK"
}

func (c *Unlock) Execute(env *history.Env) error {
	c.Applied = nil
	names := []string{LockBehavior, FormLockBehavior}
	if c.System {
		names = []string{SystemLockBehavior}
	}
	for _, name := range names {
		if err := c.run(env, &RemoveAction{Behavior: name}); err != nil {
			return err
		}
	}
	return c.run(env, &Style{Overlay: unlockOverlay})
}

func (c *Unlock) Undo(env *history.Env) error {
	return c.undo(env)
}

// LockAddText handles typing at a locked position. Typing at the first
// character of a locked run inserts plain, unlocked text in front of it;
// anywhere else the text goes after the run.
type LockAddText struct {
	Behavior string     `json:"behavior"`
	Form     bool       `json:"form,omitempty"`
	Text     string     `json:"text"`
	Styles   []style.ID `json:"styles,omitempty"`
	Cursor   int        `json:"cursor"`
	steps
}

func (c *LockAddText) Name() string { return "LockAddText" }

// StopBit implements history.Stopper.
func (c *LockAddText) StopBit() bool { return true }

func (c *LockAddText) Execute(env *history.Env) error {
	doc := env.Doc
	c.Applied = nil
	c.Cursor = doc.Cursor()

	ext, ok := doc.Behaviors().FindActionExtent(c.Behavior, c.Cursor)
	if !ok {
		return c.run(env, &SimpleAddText{Text: c.Text, Styles: c.Styles})
	}
	if !c.Form && c.Cursor == ext.Start {
		styles := c.Styles
		if len(styles) == 0 {
			styles = []style.ID{doc.StyleAt(ext.Start)}
		}
		plain := make([]style.ID, len(styles))
		for i, id := range styles {
			plain[i] = doc.Styles().Merge(id, unlockOverlay)
		}
		return c.run(env, &SimpleAddText{Text: c.Text, Styles: plain})
	}

	doc.SetCursor(ext.End + 1)
	if err := c.run(env, &AddText{Text: c.Text, Styles: c.Styles}); err != nil {
		return err
	}
	if !c.Form {
		env.Notify("You cannot type in Locked text.")
	}
	return nil
}

func (c *LockAddText) Undo(env *history.Env) error {
	if err := c.undo(env); err != nil {
		return err
	}
	env.Doc.SetCursor(c.Cursor)
	return nil
}
