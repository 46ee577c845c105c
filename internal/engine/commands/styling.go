package commands

import (
	"github.com/dshills/humane/internal/engine/behavior"
	"github.com/dshills/humane/internal/engine/document"
	"github.com/dshills/humane/internal/engine/history"
	"github.com/dshills/humane/internal/engine/span"
	"github.com/dshills/humane/internal/engine/style"
)

var (
	lockOverlay   = style.Colors(style.White.Blend(style.Black, 0.04), style.RGB(200, 70, 70))
	unlockOverlay = style.Colors(style.White, style.Black)
)

// SimpleStyle applies Overlay to the selection.
type SimpleStyle struct {
	Overlay  style.Overlay `json:"overlay"`
	Range    span.Span     `json:"range"`
	Previous []style.ID    `json:"previous,omitempty"`
}

func (c *SimpleStyle) Name() string { return "SimpleStyle" }

func (c *SimpleStyle) Execute(env *history.Env) error {
	doc := env.Doc
	sel := doc.Selection(document.Selection).Clamp(doc.Len())
	if sel.IsEmpty() {
		c.Range = span.None
		return nil
	}
	c.Range = sel
	c.Previous = doc.Styles().Slice(sel.Start, sel.End)
	doc.ApplyOverlay(c.Overlay, sel.Start, sel.End)
	return nil
}

func (c *SimpleStyle) Undo(env *history.Env) error {
	if !c.Range.IsNone() {
		env.Doc.SetStyles(c.Range.Start, c.Previous)
	}
	return nil
}

// Style restyles the parts of the selection whose style handlers allow
// it.
type Style struct {
	Overlay style.Overlay `json:"overlay"`
	Range   span.Span     `json:"range"`
	steps
}

func (c *Style) Name() string { return "Style" }

func (c *Style) Execute(env *history.Env) error {
	doc := env.Doc
	c.Applied = nil
	c.Range = doc.Selection(document.Selection)
	for _, r := range doc.Behaviors().StyleableRanges(c.Range.Start, c.Range.End) {
		doc.SetSelection(document.Selection, r.Start, r.End)
		for _, h := range doc.Behaviors().HandlersAt(r.Start, behavior.Style) {
			f, ok := h.(StyleFactory)
			if !ok {
				if h.StopBit() {
					break
				}
				continue
			}
			cmd := f.NewStyle(c.Overlay)
			if err := c.run(env, cmd); err != nil {
				return err
			}
			if stops(h, cmd) {
				break
			}
		}
	}
	doc.SetSelection(document.Selection, c.Range.Start, c.Range.End)
	return nil
}

func (c *Style) Undo(env *history.Env) error {
	if err := c.undo(env); err != nil {
		return err
	}
	env.Doc.SetSelection(document.Selection, c.Range.Start, c.Range.End)
	return nil
}

// AddAction attaches the named behavior to the selection.
type AddAction struct {
	Behavior string                `json:"behavior"`
	Range    span.Span             `json:"range"`
	Previous []behavior.BehaviorID `json:"previous,omitempty"`
}

func (c *AddAction) Name() string { return "AddAction" }

func (c *AddAction) Execute(env *history.Env) error {
	doc := env.Doc
	id, err := doc.Behaviors().Action(c.Behavior)
	if err != nil {
		return err
	}
	sel := doc.Selection(document.Selection).Clamp(doc.Len())
	if sel.IsEmpty() {
		c.Range = span.None
		return nil
	}
	c.Range = sel
	c.Previous = doc.Behaviors().Slice(sel.Start, sel.End)
	doc.AddAction(id, sel.Start, sel.End)
	return nil
}

func (c *AddAction) Undo(env *history.Env) error {
	if !c.Range.IsNone() {
		env.Doc.SetBehaviors(c.Range.Start, c.Previous)
	}
	return nil
}

// Attach attaches a behavior declared at runtime to the selection. It is
// named after the behavior so it can be registered as a user command.
type Attach struct {
	Behavior string `json:"behavior"`
	steps
}

func (c *Attach) Name() string { return c.Behavior }

func (c *Attach) Execute(env *history.Env) error {
	c.Applied = nil
	return c.run(env, &AddAction{Behavior: c.Behavior})
}

func (c *Attach) Undo(env *history.Env) error {
	return c.undo(env)
}

// RemoveAction detaches every occurrence of the named behavior from the
// selection.
type RemoveAction struct {
	Behavior string                `json:"behavior"`
	Range    span.Span             `json:"range"`
	Previous []behavior.BehaviorID `json:"previous,omitempty"`
}

func (c *RemoveAction) Name() string { return "RemoveAction" }

func (c *RemoveAction) Execute(env *history.Env) error {
	doc := env.Doc
	sel := doc.Selection(document.Selection).Clamp(doc.Len())
	if sel.IsEmpty() {
		c.Range = span.None
		return nil
	}
	c.Range = sel
	c.Previous = doc.Behaviors().Slice(sel.Start, sel.End)
	doc.RemoveActions(doc.Behaviors().Equivalents(c.Behavior), sel.Start, sel.End)
	return nil
}

func (c *RemoveAction) Undo(env *history.Env) error {
	if !c.Range.IsNone() {
		env.Doc.SetBehaviors(c.Range.Start, c.Previous)
	}
	return nil
}
