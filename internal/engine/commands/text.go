package commands

import (
	"github.com/dshills/humane/internal/engine/behavior"
	"github.com/dshills/humane/internal/engine/document"
	"github.com/dshills/humane/internal/engine/history"
	"github.com/dshills/humane/internal/engine/span"
	"github.com/dshills/humane/internal/engine/style"
)

// SimpleAddText inserts Text at the cursor and selects it.
type SimpleAddText struct {
	Text   string     `json:"text"`
	Styles []style.ID `json:"styles,omitempty"`

	Pos    int              `json:"pos"`
	Count  int              `json:"count"`
	Before document.Memento `json:"before"`
}

func (c *SimpleAddText) Name() string { return "SimpleAddText" }

func (c *SimpleAddText) Execute(env *history.Env) error {
	doc := env.Doc
	c.Before = doc.Memento()
	c.Pos = doc.Cursor()
	n, err := doc.Insert(c.Pos, c.Text, c.Styles)
	if err != nil {
		return err
	}
	c.Count = n
	if n == 0 {
		return nil
	}

	last := c.Pos + n - 1
	if n > 1 {
		env.History.SetSelectionAnchor(c.Pos + n)
	}
	doc.CreateNewSelection(c.Pos, last)
	doc.SetSelection(document.Preselection, env.History.SelectionAnchor(), last)
	return nil
}

func (c *SimpleAddText) Undo(env *history.Env) error {
	if c.Count > 0 {
		env.Doc.Delete(c.Pos, c.Pos+c.Count-1)
	}
	env.Doc.SetMemento(c.Before)
	return nil
}

// AddText inserts text at the cursor through the add handlers active
// there, highest priority first, until one of them stops the chain.
type AddText struct {
	Text   string     `json:"text"`
	Styles []style.ID `json:"styles,omitempty"`
	steps
}

func (c *AddText) Name() string { return "AddText" }

func (c *AddText) Execute(env *history.Env) error {
	c.Applied = nil
	for _, h := range env.Doc.Behaviors().HandlersAt(env.Doc.Cursor(), behavior.Add) {
		f, ok := h.(AddFactory)
		if !ok {
			if h.StopBit() {
				break
			}
			continue
		}
		cmd := f.NewAdd(c.Text, c.Styles)
		if err := c.run(env, cmd); err != nil {
			return err
		}
		if stops(h, cmd) {
			break
		}
	}
	return nil
}

func (c *AddText) Undo(env *history.Env) error {
	return c.undo(env)
}

// SimpleDeleteText deletes the selection.
type SimpleDeleteText struct {
	Range   span.Span         `json:"range"`
	Deleted document.Fragment `json:"deleted"`
	Before  document.Memento  `json:"before"`
}

func (c *SimpleDeleteText) Name() string { return "SimpleDeleteText" }

func (c *SimpleDeleteText) Execute(env *history.Env) error {
	doc := env.Doc
	c.Before = doc.Memento()
	sel := doc.Selection(document.Selection).Clamp(doc.Len())
	if sel.IsEmpty() {
		c.Range = span.None
		return nil
	}
	if doc.IsExtendedSelection() {
		env.History.SetSelectionAnchor(sel.Start)
	}

	c.Range = sel
	c.Deleted = doc.Delete(sel.Start, sel.End)
	doc.SetCursor(sel.Start)
	doc.SetSelection(document.Selection, sel.Start-1, sel.Start-1)
	return nil
}

func (c *SimpleDeleteText) Undo(env *history.Env) error {
	if !c.Range.IsNone() {
		if err := env.Doc.InsertFragment(c.Range.Start, c.Deleted); err != nil {
			return err
		}
	}
	env.Doc.SetMemento(c.Before)
	return nil
}

// DeleteText deletes the parts of the selection whose delete handlers
// allow it, leaving protected text in place.
type DeleteText struct {
	Range span.Span `json:"range"`
	steps
}

func (c *DeleteText) Name() string { return "DeleteText" }

func (c *DeleteText) Execute(env *history.Env) error {
	doc := env.Doc
	c.Applied = nil
	c.Range = doc.Selection(document.Selection)
	if c.Range.Clamp(doc.Len()).IsEmpty() {
		return history.Cancel("Nothing is selected.")
	}
	ranges := doc.Behaviors().DeletableRanges(c.Range.Start, c.Range.End)
	if len(ranges) == 0 {
		return history.Cancel("The selected text cannot be deleted.")
	}

	deleted := 0
	for _, r := range ranges {
		start, end := r.Start-deleted, r.End-deleted
		doc.SetSelection(document.Selection, start, end)
		for _, h := range doc.Behaviors().HandlersAt(start, behavior.Delete) {
			f, ok := h.(DeleteFactory)
			if !ok {
				if h.StopBit() {
					break
				}
				continue
			}
			cmd := f.NewDelete()
			if err := c.run(env, cmd); err != nil {
				return err
			}
			if stops(h, cmd) {
				break
			}
		}
		deleted += r.Len()
	}
	return nil
}

func (c *DeleteText) Undo(env *history.Env) error {
	if err := c.undo(env); err != nil {
		return err
	}
	env.Doc.SetSelection(document.Selection, c.Range.Start, c.Range.End)
	return nil
}
