// Package render draws placeholder slide images for slides that carry no
// usable bitmap. Output is deterministic for a given input.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/thywilljoshua/pptx-to-slides/internal/pptx"
)

// ErrSurface is returned when a canvas of the requested size cannot be allocated.
var ErrSurface = errors.New("render: cannot allocate drawing surface")

const (
	DefaultWidth   = 1920
	DefaultHeight  = 1080
	DefaultLighten = 0.35

	maxSide = 8192

	// Standard 10x7.5in slide.
	slideWidthEMU  = 10 * pptx.EMUPerInch
	slideHeightEMU = 7.5 * pptx.EMUPerInch

	minFontPx = 8
)

// Options sizes the canvas. Zero sizes take the defaults.
type Options struct {
	Width  int
	Height int
	Footer string
	// Lighten is how far the gradient moves toward white, in [0,1]. Nil means
	// DefaultLighten; 0 draws a flat background.
	Lighten *float64
}

// Renderer implements pptx.Renderer. It keeps only its options, so one value
// can serve concurrent calls.
type Renderer struct {
	opts    Options
	lighten float64
}

// New validates the options and returns a renderer.
func New(opts Options) (*Renderer, error) {
	if opts.Width == 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height == 0 {
		opts.Height = DefaultHeight
	}
	if opts.Width < 0 || opts.Height < 0 || opts.Width > maxSide || opts.Height > maxSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrSurface, opts.Width, opts.Height)
	}
	amount := DefaultLighten
	if opts.Lighten != nil {
		amount = *opts.Lighten
	}
	if amount < 0 || amount > 1 {
		return nil, fmt.Errorf("render: lighten %.2f out of range [0,1]", amount)
	}
	if err := loadFonts(); err != nil {
		return nil, err
	}
	return &Renderer{opts: opts, lighten: amount}, nil
}

// canvas is the per-call drawing state.
type canvas struct {
	img   *image.RGBA
	faces *faces
	unit  float64 // pixels per reference pixel of a 1080-high canvas
}

func (r *Renderer) newCanvas() (c *canvas, err error) {
	defer func() {
		if p := recover(); p != nil {
			c, err = nil, fmt.Errorf("%w: %v", ErrSurface, p)
		}
	}()
	img := image.NewRGBA(image.Rect(0, 0, r.opts.Width, r.opts.Height))
	f, err := newFaces()
	if err != nil {
		return nil, err
	}
	return &canvas{img: img, faces: f, unit: float64(r.opts.Height) / DefaultHeight}, nil
}

func (c *canvas) px(ref float64) int {
	v := int(ref*c.unit + 0.5)
	if v < 1 {
		return 1
	}
	return v
}

func (c *canvas) width() int  { return c.img.Bounds().Dx() }
func (c *canvas) height() int { return c.img.Bounds().Dy() }

func (c *canvas) fill(rect image.Rectangle, col color.Color) {
	draw.Draw(c.img, rect.Intersect(c.img.Bounds()), image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *canvas) gradient(top, bottom colorful.Color) {
	h := c.height()
	for y := 0; y < h; y++ {
		t := 0.0
		if h > 1 {
			t = float64(y) / float64(h-1)
		}
		c.fill(image.Rect(0, y, c.width(), y+1), rgba(top.BlendRgb(bottom, t)))
	}
}

func (c *canvas) border(col color.Color, w int) {
	b := c.img.Bounds()
	c.fill(image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+w), col)
	c.fill(image.Rect(b.Min.X, b.Max.Y-w, b.Max.X, b.Max.Y), col)
	c.fill(image.Rect(b.Min.X, b.Min.Y, b.Min.X+w, b.Max.Y), col)
	c.fill(image.Rect(b.Max.X-w, b.Min.Y, b.Max.X, b.Max.Y), col)
}

func (c *canvas) divider(y, margin int, col color.Color) {
	c.fill(image.Rect(margin, y, c.width()-margin, y+c.px(2)), col)
}

// text draws s with its baseline at y.
func (c *canvas) text(face font.Face, s string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// centered draws s horizontally centered with its top at y and returns the
// y just below the line.
func (c *canvas) centered(face font.Face, s string, y int, col color.Color) int {
	m := face.Metrics()
	w := font.MeasureString(face, s).Ceil()
	c.text(face, s, (c.width()-w)/2, y+m.Ascent.Ceil(), col)
	return y + m.Height.Ceil()
}

func (c *canvas) encode() (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return pptx.DataURI("image/png", buf.Bytes()), nil
}

func slideLabel(n int) string { return "Slide " + strconv.Itoa(n) }

// header draws the slide label and divider shared by both layouts and returns
// the y where content may start.
func (c *canvas) header(number int, ink, line color.Color, bold bool) (int, error) {
	size := 36.0
	if bold {
		size = 48
	}
	face, err := c.faces.get(c.px(size), bold)
	if err != nil {
		return 0, err
	}
	y := c.centered(face, slideLabel(number), c.px(40), ink)
	y += c.px(20)
	c.divider(y, c.px(60), line)
	return y + c.px(30), nil
}

// RenderSlide draws the styled layout from recovered slide geometry.
func (r *Renderer) RenderSlide(info pptx.SlideInfo, number int) (string, error) {
	c, err := r.newCanvas()
	if err != nil {
		return "", err
	}
	defer c.faces.close()

	bg := parseColor(info.Background, white)
	ink := inkFor(bg)
	soft := rgba(muted(ink, bg))
	margin := c.px(60)

	c.gradient(bg, lighten(bg, r.lighten))
	c.border(soft, c.px(4))

	top, err := c.header(number, rgba(ink), soft, false)
	if err != nil {
		return "", err
	}

	if info.Title != "" {
		face, err := c.faces.get(c.px(72), true)
		if err != nil {
			return "", err
		}
		for _, line := range wrapText(face, info.Title, c.width()-2*margin) {
			top = c.centered(face, line, top, rgba(ink))
		}
		top += c.px(20)
	}

	footerTop := c.height() - margin
	if r.opts.Footer != "" {
		footerTop -= c.px(30)
	}
	for _, el := range info.TextElements {
		if el.IsTitle {
			continue
		}
		if err := c.element(el, ink, margin, top, footerTop); err != nil {
			return "", err
		}
	}

	if r.opts.Footer != "" {
		face, err := c.faces.get(c.px(24), false)
		if err != nil {
			return "", err
		}
		c.centered(face, r.opts.Footer, footerTop, soft)
	}
	return c.encode()
}

// element draws one positioned, wrapped text element. The frame is scaled from
// slide units and clamped into [margin, bottom).
func (c *canvas) element(el pptx.TextElement, ink colorful.Color, margin, top, bottom int) error {
	w, h := c.width(), c.height()
	x := int(float64(el.Position.X) * float64(w) / slideWidthEMU)
	y := int(float64(el.Position.Y) * float64(h) / slideHeightEMU)
	width := int(float64(el.Position.Width) * float64(w) / slideWidthEMU)

	x = clamp(x, margin, w-margin-c.px(100))
	y = clamp(y, top, bottom)
	if width <= 0 || x+width > w-margin {
		width = w - margin - x
	}

	// Points to pixels on a 7.5in-high slide.
	size := int(el.Style.FontSize * float64(h) / (7.5 * 72))
	face, err := c.faces.get(clamp(size, c.px(14), c.px(96)), false)
	if err != nil {
		return err
	}
	col := rgba(parseColor(el.Style.Color, ink))
	m := face.Metrics()
	lineHeight := m.Height.Ceil() * 5 / 4
	baseline := y + m.Ascent.Ceil()
	for _, line := range wrapText(face, el.Text, width) {
		if baseline+m.Descent.Ceil() > bottom {
			break
		}
		c.text(face, line, x, baseline, col)
		baseline += lineHeight
	}
	return nil
}

// RenderText draws the plain layout from text alone.
func (r *Renderer) RenderText(text string, number int) (string, error) {
	c, err := r.newCanvas()
	if err != nil {
		return "", err
	}
	defer c.faces.close()

	bg := white
	ink := darkInk
	soft := rgba(muted(ink, bg))
	margin := c.px(60)

	c.fill(c.img.Bounds(), rgba(bg))
	top, err := c.header(number, rgba(ink), soft, true)
	if err != nil {
		return "", err
	}

	face, err := c.faces.get(c.px(40), false)
	if err != nil {
		return "", err
	}
	if text == "" {
		c.centered(face, "No text content", (c.height()-face.Metrics().Height.Ceil())/2, soft)
		return c.encode()
	}

	m := face.Metrics()
	lineHeight := m.Height.Ceil() * 5 / 4
	maxWidth := c.width() - 2*margin
	maxLines := (c.height() - margin - top) / lineHeight
	lines := truncateLines(face, wrapText(face, text, maxWidth), maxLines, maxWidth)
	baseline := top + m.Ascent.Ceil()
	for _, line := range lines {
		c.text(face, line, margin, baseline, rgba(ink))
		baseline += lineHeight
	}
	return c.encode()
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
