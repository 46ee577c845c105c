package commands

import (
	"fmt"
	"strings"

	"github.com/dshills/humane/internal/engine/chars"
	"github.com/dshills/humane/internal/engine/document"
	"github.com/dshills/humane/internal/engine/history"
	"github.com/dshills/humane/internal/engine/span"
)

// moved is the undo state shared by commands that only move the cursor
// and selections.
type moved struct {
	Before document.Memento `json:"before"`
	Anchor int              `json:"anchor"`
}

func (m *moved) save(env *history.Env) {
	m.Before = env.Doc.Memento()
	m.Anchor = env.History.SelectionAnchor()
}

func (m *moved) restore(env *history.Env) error {
	env.Doc.SetMemento(m.Before)
	env.History.SetSelectionAnchor(m.Anchor)
	return nil
}

// SetCursor moves the cursor to Pos.
type SetCursor struct {
	Pos int `json:"pos"`
	moved
}

func (c *SetCursor) Name() string { return "SetCursor" }

func (c *SetCursor) Execute(env *history.Env) error {
	c.save(env)
	env.Doc.SetCursor(c.Pos)
	return nil
}

func (c *SetCursor) Undo(env *history.Env) error { return c.restore(env) }

// SetSelection sets one entry of the selection list.
type SetSelection struct {
	Index int       `json:"index"`
	Range span.Span `json:"range"`
	moved
}

func (c *SetSelection) Name() string { return "SetSelection" }

func (c *SetSelection) Execute(env *history.Env) error {
	c.save(env)
	if !env.Doc.SetSelection(c.Index, c.Range.Start, c.Range.End) {
		return history.Cancel("Selection %v is outside the text.", c.Range)
	}
	return nil
}

func (c *SetSelection) Undo(env *history.Env) error { return c.restore(env) }

// SetSelectionList replaces the whole selection list.
type SetSelectionList struct {
	Selections []span.Span `json:"selections"`
	moved
}

func (c *SetSelectionList) Name() string { return "SetSelectionList" }

func (c *SetSelectionList) Execute(env *history.Env) error {
	c.save(env)
	env.Doc.SetSelections(c.Selections)
	return nil
}

func (c *SetSelectionList) Undo(env *history.Env) error { return c.restore(env) }

// Select turns the preselection into the selection.
type Select struct {
	moved
}

func (c *Select) Name() string { return "Select" }

func (c *Select) Execute(env *history.Env) error {
	c.save(env)
	doc := env.Doc
	pre := doc.Selection(document.Preselection)
	if pre.IsNone() || pre.Clamp(doc.Len()).IsEmpty() {
		return history.Cancel("Nothing is preselected.")
	}
	doc.CreateNewSelection(pre.Start, pre.End)
	doc.SetCursor(pre.End + 1)
	env.History.SetSelectionAnchor(pre.End + 1)
	return nil
}

func (c *Select) Undo(env *history.Env) error { return c.restore(env) }

// SelectWord selects the word under the cursor, or before it when the
// cursor is at the end of the text.
type SelectWord struct {
	moved
}

func (c *SelectWord) Name() string { return "SELECT WORD" }

func (c *SelectWord) Execute(env *history.Env) error {
	c.save(env)
	doc := env.Doc
	pos := doc.Cursor()
	if pos == doc.Len() {
		pos--
	}
	w, ok := doc.WordBounds(pos)
	if !ok {
		return history.Cancel("There is no word here.")
	}
	doc.CreateNewSelection(w.Start, w.End)
	doc.SetCursor(w.End + 1)
	env.History.SetSelectionAnchor(w.End + 1)
	return nil
}

func (c *SelectWord) Undo(env *history.Env) error { return c.restore(env) }

// Creep moves the cursor one character, dragging the preselection along.
// An extended selection collapses to its start (left) or end (right).
type Creep struct {
	Left bool `json:"left,omitempty"`
	moved
}

func (c *Creep) Name() string {
	if c.Left {
		return "CreepLeft"
	}
	return "CreepRight"
}

func (c *Creep) Execute(env *history.Env) error {
	c.save(env)
	doc := env.Doc
	cur := c.Before.Cursor
	sel := doc.Selection(document.Selection)
	pre := doc.Selection(document.Preselection)
	last := doc.Len() - 1

	next := cur
	var list []span.Span
	switch {
	case sel.IsNone():
		list = []span.Span{span.At(next), span.At(next)}
	case sel.Start == sel.End:
		atEdge := cur == 0 && sel.Start == 0
		if !c.Left {
			atEdge = cur == last && sel.Start == last
		}
		switch {
		case cur == sel.End+1:
			if c.Left {
				next = cur - 1
			}
			list = []span.Span{c.drag(cur, next, pre), span.At(next)}
		case atEdge:
			list = []span.Span{pre, sel}
		case cur == sel.Start:
			if c.Left {
				next = cur - 1
			} else {
				next = cur + 1
			}
			list = []span.Span{c.drag(cur, next, pre), span.At(next)}
		default:
			list = []span.Span{span.At(next), span.At(next)}
		}
	case sel.Start < sel.End:
		next = sel.End
		if c.Left {
			next = sel.Start
		}
		list = []span.Span{sel, span.At(next), sel}
	default:
		return history.Cancel("Selection was invalid.")
	}
	if next < 0 {
		return history.Cancel("Already at the start of the text.")
	}

	list = append(list, c.Before.Selections[document.OldSelection:]...)
	doc.SetCursor(next)
	doc.SetSelections(list)
	env.History.SetSelectionAnchor(next)
	return nil
}

// drag moves the end of the preselection the cursor was on.
func (c *Creep) drag(cur, next int, pre span.Span) span.Span {
	switch {
	case c.Left && pre.Start == cur:
		return span.Span{Start: next, End: pre.End}
	case pre.End == cur:
		return span.Span{Start: pre.Start, End: next}
	case pre.Start == cur:
		return span.Span{Start: next, End: pre.End}
	case pre.End == next-1:
		return span.Span{Start: pre.Start, End: next}
	default:
		return span.At(next)
	}
}

func (c *Creep) Undo(env *history.Env) error { return c.restore(env) }

// Leap moves the cursor to the next occurrence of Target, wrapping around
// the document. A target made only of backquotes leaps to the end of the
// document (or its start, leaping backward). A repeat leap extends the
// preselection from whichever end the cursor was on.
type Leap struct {
	Target   string `json:"target"`
	Backward bool   `json:"backward,omitempty"`
	Repeat   bool   `json:"repeat,omitempty"`
	moved
}

func (c *Leap) Name() string {
	dir := "forward"
	if c.Backward {
		dir = "backward"
	}
	if c.Repeat {
		return "Repeat LEAP " + dir
	}
	return fmt.Sprintf("LEAP %s to:%s", dir, c.Target)
}

// LeapTarget implements history.LeapTargeter.
func (c *Leap) LeapTarget() string { return c.Target }

func (c *Leap) Execute(env *history.Env) error {
	c.save(env)
	if c.Repeat && c.Target == "" {
		c.Target = env.History.LastLeapTarget()
	}
	doc := env.Doc
	sel := c.Before.Selections[document.Selection]

	pos := -1
	if c.Target != "" {
		if c.Backward {
			pos = c.findBackward(doc, sel.End)
		} else {
			pos = c.findForward(doc, sel.End+1)
		}
	}
	if pos < 0 {
		return history.Cancel("Leap to %s failed.", c.Target)
	}

	old := c.Before
	var pre span.Span
	if c.Repeat {
		pre = c.repeatPreselection(old, pos)
	} else if old.Cursor <= pos {
		pre = span.Span{Start: old.Cursor, End: pos}
	} else {
		pre = span.Span{Start: pos, End: sel.End}
	}
	list := []span.Span{pre, span.At(pos)}
	keepFrom := document.Selection
	if sel.Start == sel.End {
		keepFrom = document.OldSelection
	}
	list = append(list, old.Selections[keepFrom:]...)

	doc.SetCursor(pos)
	doc.SetSelections(list)
	env.History.SetSelectionAnchor(pos)
	return nil
}

func (c *Leap) repeatPreselection(old document.Memento, pos int) span.Span {
	pre := old.Selections[document.Preselection]
	switch old.Cursor {
	case pre.End:
		return span.New(pre.Start, pos)
	case pre.Start:
		return span.New(pre.End, pos)
	default:
		return span.At(pos)
	}
}

func (c *Leap) allDocs() bool {
	return strings.Trim(c.Target, "`") == ""
}

func (c *Leap) findForward(doc *document.Document, start int) int {
	pos := doc.Find(c.Target, start, chars.Forward)
	if pos >= 0 {
		return pos
	}
	if c.allDocs() {
		return doc.Len() - 1
	}
	return doc.Find(c.Target, 0, chars.Forward)
}

func (c *Leap) findBackward(doc *document.Document, start int) int {
	if start < 1 {
		start = doc.Len()
	}
	pos := doc.Find(c.Target, start, chars.Backward)
	if pos >= 0 {
		return pos
	}
	if c.allDocs() {
		return 0
	}
	return doc.Find(c.Target, doc.Len(), chars.Backward)
}

func (c *Leap) Undo(env *history.Env) error { return c.restore(env) }
