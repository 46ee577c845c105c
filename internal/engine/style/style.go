// Package style holds per-character presentation records.
//
// Styles are interned in a pool so that a document only stores one small
// integer per character. Id 0 is always the default style. An Overlay
// changes only the attributes it names, so applying one to text in several
// fonts keeps the fonts and changes the rest.
package style

import "github.com/gdamore/tcell/v2"

// Style is a complete presentation record for one character.
// Style values are comparable and are used directly as pool keys.
type Style struct {
	Font       string `json:"font"`
	Size       int    `json:"size"`
	Bold       bool   `json:"bold,omitempty"`
	Italic     bool   `json:"italic,omitempty"`
	Underline  bool   `json:"underline,omitempty"`
	Outline    bool   `json:"outline,omitempty"`
	Foreground Color  `json:"fg"`
	Background Color  `json:"bg"`
}

// Default values for a new style.
const (
	DefaultFont = "Courier New"
	DefaultSize = 16
)

// Default returns the style every attribute falls back to.
func Default() Style {
	return Style{
		Font:       DefaultFont,
		Size:       DefaultSize,
		Foreground: Black,
		Background: White,
	}
}

// Tcell converts the style for terminal rendering. Font, size and outline
// have no terminal equivalent and are ignored.
func (s Style) Tcell() tcell.Style {
	return tcell.StyleDefault.
		Foreground(s.Foreground.Tcell()).
		Background(s.Background.Tcell()).
		Bold(s.Bold).
		Italic(s.Italic).
		Underline(s.Underline)
}

// Overlay is a partial style. Nil fields leave the underlying attribute alone.
type Overlay struct {
	Font       *string `json:"font,omitempty"`
	Size       *int    `json:"size,omitempty"`
	Bold       *bool   `json:"bold,omitempty"`
	Italic     *bool   `json:"italic,omitempty"`
	Underline  *bool   `json:"underline,omitempty"`
	Outline    *bool   `json:"outline,omitempty"`
	Foreground *Color  `json:"fg,omitempty"`
	Background *Color  `json:"bg,omitempty"`
}

// Colors returns an overlay that sets both colors.
func Colors(background, foreground Color) Overlay {
	return Overlay{Background: &background, Foreground: &foreground}
}

// Apply returns s with the overlay's attributes written over it.
func (o Overlay) Apply(s Style) Style {
	if o.Font != nil {
		s.Font = *o.Font
	}
	if o.Size != nil {
		s.Size = *o.Size
	}
	if o.Bold != nil {
		s.Bold = *o.Bold
	}
	if o.Italic != nil {
		s.Italic = *o.Italic
	}
	if o.Underline != nil {
		s.Underline = *o.Underline
	}
	if o.Outline != nil {
		s.Outline = *o.Outline
	}
	if o.Foreground != nil {
		s.Foreground = *o.Foreground
	}
	if o.Background != nil {
		s.Background = *o.Background
	}
	return s
}

// IsEmpty reports whether the overlay changes nothing.
func (o Overlay) IsEmpty() bool {
	return o == Overlay{}
}

// Bool returns a pointer to b, for building overlays.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to n, for building overlays.
func Int(n int) *int { return &n }

// String returns a pointer to s, for building overlays.
func String(s string) *string { return &s }
