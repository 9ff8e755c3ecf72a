package render

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Parsed font data is immutable and shared; sized faces are not.
var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
	fontsErr    error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regularFont, fontsErr = opentype.Parse(goregular.TTF); fontsErr != nil {
			fontsErr = fmt.Errorf("parse regular font: %w", fontsErr)
			return
		}
		if boldFont, fontsErr = opentype.Parse(gobold.TTF); fontsErr != nil {
			fontsErr = fmt.Errorf("parse bold font: %w", fontsErr)
		}
	})
	return fontsErr
}

type faceKey struct {
	size int
	bold bool
}

// faces hands out sized faces for one render call. Faces hold glyph buffers,
// so they are never shared between calls.
type faces struct {
	m map[faceKey]font.Face
}

func newFaces() (*faces, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}
	return &faces{m: make(map[faceKey]font.Face)}, nil
}

// get returns a face whose em size is px pixels.
func (f *faces) get(px int, bold bool) (font.Face, error) {
	if px < minFontPx {
		px = minFontPx
	}
	key := faceKey{size: px, bold: bold}
	if face, ok := f.m[key]; ok {
		return face, nil
	}
	src := regularFont
	if bold {
		src = boldFont
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    float64(px),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font face %dpx: %w", px, err)
	}
	f.m[key] = face
	return face, nil
}

func (f *faces) close() {
	for k, face := range f.m {
		face.Close()
		delete(f.m, k)
	}
}
