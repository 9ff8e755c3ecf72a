package render

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	white    = colorful.Color{R: 1, G: 1, B: 1}
	darkInk  = mustHex("#1e293b")
	lightInk = mustHex("#f8fafc")
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// parseColor reads a #rrggbb string, falling back to def when it is malformed.
func parseColor(s string, def colorful.Color) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return def
	}
	return c
}

// lighten moves every channel the given fraction of its remaining headroom
// toward white.
func lighten(c colorful.Color, amount float64) colorful.Color {
	return c.BlendRgb(white, amount).Clamped()
}

// inkFor picks a readable text color for the background.
func inkFor(bg colorful.Color) colorful.Color {
	l, _, _ := bg.Lab()
	if l < 0.55 {
		return lightInk
	}
	return darkInk
}

// muted fades ink toward the background.
func muted(ink, bg colorful.Color) colorful.Color {
	return ink.BlendRgb(bg, 0.45).Clamped()
}

func rgba(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
