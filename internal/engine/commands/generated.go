package commands

import (
	"errors"

	"github.com/dshills/humane/internal/engine/history"
)

// Generated inserts text produced on first execution, such as a timestamp
// or a random value. Redo inserts the cached text instead of producing a
// new one.
type Generated struct {
	Label    string                                 `json:"label"`
	Produce  func(env *history.Env) (string, error) `json:"-"`
	Text     string                                 `json:"text"`
	Produced bool                                   `json:"produced"`
	steps
}

func (c *Generated) Name() string {
	if c.Label == "" {
		return "GENERATE"
	}
	return c.Label
}

func (c *Generated) Execute(env *history.Env) error {
	if !c.Produced {
		if c.Produce == nil {
			return errors.New("generated command has no producer")
		}
		text, err := c.Produce(env)
		if err != nil {
			return err
		}
		c.Text = text
		c.Produced = true
	}
	return c.Redo(env)
}

// Redo implements history.Redoer.
func (c *Generated) Redo(env *history.Env) error {
	if !c.Produced {
		return errors.New("generated command redone before it ran")
	}
	c.Applied = nil
	return c.run(env, &AddText{Text: c.Text})
}

func (c *Generated) Undo(env *history.Env) error {
	return c.undo(env)
}
