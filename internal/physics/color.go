package physics

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	Black = color.NRGBA{A: 255}
)

// DefaultPalette is the stroke palette of the gravity board.
var DefaultPalette = []string{"#3b82f6", "#8b5cf6", "#10b981", "#f59e0b", "#ef4444", "#ffffff"}

// ParseColor reads a "#rrggbb" or "#rgb" hex colour.
func ParseColor(s string) (color.NRGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

func MustParseColor(s string) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParsePalette parses every entry; an empty list yields the default palette.
func ParsePalette(hex []string) ([]color.NRGBA, error) {
	if len(hex) == 0 {
		hex = DefaultPalette
	}
	out := make([]color.NRGBA, 0, len(hex))
	for _, h := range hex {
		c, err := ParseColor(h)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// WithAlpha returns c with its alpha replaced by a in [0, 1].
func WithAlpha(c color.NRGBA, a float64) color.NRGBA {
	a = math.Min(math.Max(a, 0), 1)
	c.A = uint8(math.Round(a * 255))
	return c
}

// TrailFade converts a mode's opacity into the alpha of the background wash
// painted each frame. Higher opacity leaves longer trails.
func TrailFade(opacity float64) float64 {
	return math.Min(math.Max(1-opacity, 0.1), 1)
}
