package pptx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Renderer manufactures placeholder slide images as data URIs.
type Renderer interface {
	// RenderSlide draws the recovered layout of a slide.
	RenderSlide(info SlideInfo, number int) (string, error)
	// RenderText draws a plain slide from its text alone.
	RenderText(text string, number int) (string, error)
}

// errNoImage means an image step found nothing and the next one should run.
var errNoImage = errors.New("no image")

// Extractor pulls text and an image out of the slide parts of one package.
// It holds no state beyond the archive it was built for.
type Extractor struct {
	archive  *Archive
	renderer Renderer
	media    []string
}

func NewExtractor(a *Archive, r Renderer) *Extractor {
	return &Extractor{archive: a, renderer: r, media: a.List("ppt/")}
}

type slidePart struct {
	ref  SlideRef
	doc  *xmlquery.Node
	text string
}

type imageStep func(*slidePart) (string, Source, error)

// Extract reads one slide. Every error wraps ErrSlideSkipped.
func (e *Extractor) Extract(ref SlideRef) (*Slide, error) {
	raw, err := e.archive.ReadText(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: slide %d: %v", ErrSlideSkipped, ref.Number, err)
	}
	doc, err := parseXML(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: slide %d: parse %s: %v", ErrSlideSkipped, ref.Number, ref.Path, err)
	}
	sp := &slidePart{ref: ref, doc: doc, text: ExtractText(doc)}

	steps := []imageStep{
		e.targetedMedia,
		e.slideScopedMedia,
		e.renderGeometry,
		e.knownThumbnail,
		e.renderText,
	}
	for _, step := range steps {
		url, src, err := step(sp)
		if errors.Is(err, errNoImage) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: slide %d: %v", ErrSlideSkipped, ref.Number, err)
		}
		return &Slide{
			Number:   ref.Number,
			Path:     ref.Path,
			Text:     sp.text,
			ImageURL: url,
			Source:   src,
		}, nil
	}
	return nil, fmt.Errorf("%w: slide %d: no image could be produced", ErrSlideSkipped, ref.Number)
}

// ExtractText joins every text run of a slide part in document order.
func ExtractText(doc *xmlquery.Node) string {
	var runs []string
	for _, t := range descendants(doc, "t") {
		runs = append(runs, t.InnerText())
	}
	return JoinText(runs)
}

// JoinText trims each run, drops the empty ones and joins the rest with
// single spaces.
func JoinText(runs []string) string {
	kept := make([]string, 0, len(runs))
	for _, r := range runs {
		if r = strings.TrimSpace(r); r != "" {
			kept = append(kept, r)
		}
	}
	return strings.Join(kept, " ")
}

func (e *Extractor) embed(name string, src Source) (string, Source, error) {
	data, err := e.archive.ReadBinary(name)
	if err != nil || len(data) == 0 {
		return "", "", errNoImage
	}
	return DataURI(MIMEType(name, data), data), src, nil
}

func (e *Extractor) targetedMedia(sp *slidePart) (string, Source, error) {
	name := targetedMedia(e.media, sp.ref.Number)
	if name == "" {
		return "", "", errNoImage
	}
	return e.embed(name, SourceMedia)
}

func (e *Extractor) slideScopedMedia(sp *slidePart) (string, Source, error) {
	name := slideScopedMedia(e.media)
	if name == "" {
		return "", "", errNoImage
	}
	return e.embed(name, SourceMedia)
}

func (e *Extractor) renderGeometry(sp *slidePart) (string, Source, error) {
	if e.renderer == nil {
		return "", "", errNoImage
	}
	info := ExtractInfo(sp.doc)
	if len(info.TextElements) == 0 {
		return "", "", errNoImage
	}
	url, err := e.renderer.RenderSlide(info, sp.ref.Number)
	if err != nil {
		return "", "", err
	}
	return url, SourceSynthetic, nil
}

func (e *Extractor) knownThumbnail(sp *slidePart) (string, Source, error) {
	for _, name := range thumbnailPaths(sp.ref.Number) {
		if e.archive.Has(name) {
			if url, src, err := e.embed(name, SourceThumbnail); err == nil {
				return url, src, nil
			}
		}
	}
	return "", "", errNoImage
}

func (e *Extractor) renderText(sp *slidePart) (string, Source, error) {
	if e.renderer == nil {
		return "", "", errNoImage
	}
	url, err := e.renderer.RenderText(sp.text, sp.ref.Number)
	if err != nil {
		return "", "", err
	}
	return url, SourceSynthetic, nil
}
