package style

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColor is returned when a color string cannot be parsed.
var ErrInvalidColor = errors.New("invalid color")

// Color is a 24-bit RGB color. It marshals as "#rrggbb".
type Color struct {
	R, G, B uint8
}

// RGB creates a color from its components.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Common colors.
var (
	Black = RGB(0, 0, 0)
	White = RGB(255, 255, 255)
)

// ParseColor accepts "#rrggbb" hex strings and tcell color names
// such as "red" or "slategray".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Color{}, fmt.Errorf("%w: empty", ErrInvalidColor)
	}
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		r, g, b := c.RGB255()
		return RGB(r, g, b), nil
	}

	tc := tcell.GetColor(strings.ToLower(s))
	if tc == tcell.ColorDefault {
		return Color{}, fmt.Errorf("%w: unknown name %q", ErrInvalidColor, s)
	}
	r, g, b := tc.RGB()
	if r < 0 || g < 0 || b < 0 {
		return Color{}, fmt.Errorf("%w: %q has no RGB value", ErrInvalidColor, s)
	}
	return RGB(uint8(r), uint8(g), uint8(b)), nil
}

// Hex returns the "#rrggbb" form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

// Tcell converts the color for terminal rendering.
func (c Color) Tcell() tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// Blend mixes c toward other by t in [0,1].
func (c Color) Blend(other Color, t float64) Color {
	r, g, b := c.colorful().BlendRgb(other.colorful(), t).Clamped().RGB255()
	return RGB(r, g, b)
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
