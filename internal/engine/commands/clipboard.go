package commands

import (
	"strings"

	"github.com/atotto/clipboard"

	"github.com/dshills/humane/internal/engine/document"
	"github.com/dshills/humane/internal/engine/history"
)

// SystemClipboard is the operating system clipboard.
type SystemClipboard struct{}

// ReadAll implements history.Clipboard.
func (SystemClipboard) ReadAll() (string, error) { return clipboard.ReadAll() }

// WriteAll implements history.Clipboard.
func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Available reports whether a clipboard utility was found.
func (SystemClipboard) Available() bool { return !clipboard.Unsupported }

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Paste inserts the clipboard text at the cursor. The clipboard is read
// once; redo inserts the same text again.
type Paste struct {
	Text    string `json:"text"`
	Fetched bool   `json:"fetched"`
	steps
}

func (c *Paste) Name() string { return "COPY IN" }

func (c *Paste) Execute(env *history.Env) error {
	if !c.Fetched {
		if env.Clipboard == nil {
			return history.Cancel("No clipboard is available.")
		}
		text, err := env.Clipboard.ReadAll()
		if err != nil {
			return history.Cancel("Clipboard does not contain text data.")
		}
		c.Text = normalizeNewlines(text)
		c.Fetched = true
	}
	if c.Text == "" {
		return history.Cancel("The clipboard is empty.")
	}
	c.Applied = nil
	return c.run(env, &AddText{Text: c.Text})
}

func (c *Paste) Undo(env *history.Env) error {
	return c.undo(env)
}

// Copy puts the selected text on the clipboard.
type Copy struct{}

func (c *Copy) Name() string { return "COPY OUT" }

// Recordable implements history.Recordable.
func (c *Copy) Recordable() bool { return false }

func (c *Copy) Execute(env *history.Env) error {
	if env.Clipboard == nil {
		return history.Cancel("No clipboard is available.")
	}
	sel := env.Doc.Selection(document.Selection)
	text := env.Doc.Slice(sel.Start, sel.End)
	if text == "" {
		return history.Cancel("Nothing is selected.")
	}
	if err := env.Clipboard.WriteAll(text); err != nil {
		return history.Cancel("Could not copy to the clipboard.")
	}
	return nil
}

func (c *Copy) Undo(*history.Env) error { return nil }
