package pptx

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/thywilljoshua/pptx-to-slides/internal/pptx/pptxtest"
)

// stubRenderer encodes its inputs into the returned URI so tests can see
// which path produced the image.
type stubRenderer struct {
	slides []SlideInfo
	texts  []string
	err    error
}

func (s *stubRenderer) RenderSlide(info SlideInfo, number int) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.slides = append(s.slides, info)
	return DataURI("image/png", []byte(fmt.Sprintf("layout:%d:%s", number, info.Title))), nil
}

func (s *stubRenderer) RenderText(text string, number int) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.texts = append(s.texts, text)
	return DataURI("image/png", []byte(fmt.Sprintf("plain:%d:%s", number, text))), nil
}

func extractAll(t *testing.T, deck pptxtest.Deck, r Renderer) ([]*Slide, []error) {
	t.Helper()
	a := openDeck(t, deck.Package())
	refs, err := Resolve(a)
	require.NoError(t, err)
	ex := NewExtractor(a, r)
	var slides []*Slide
	var errs []error
	for _, ref := range refs {
		s, err := ex.Extract(ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		slides = append(slides, s)
	}
	return slides, errs
}

func decoded(t *testing.T, uri string) (string, string) {
	t.Helper()
	mime, data, err := DecodeDataURI(uri)
	require.NoError(t, err)
	return mime, string(data)
}

func TestJoinText(t *testing.T) {
	assert.Equal(t, "Hello World", JoinText([]string{"  Hello  ", "", "World"}))
	assert.Equal(t, "", JoinText(nil))
	assert.Equal(t, "", JoinText([]string{" ", "\t\n"}))
	assert.Equal(t, "a b  c", JoinText([]string{"a", " b  c "}))
}

func TestJoinTextProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		words := rapid.SliceOf(rapid.StringMatching(`[A-Za-z0-9]{0,6}`)).Draw(rt, "words")
		pads := rapid.SliceOfN(rapid.StringMatching(`[ \t\n]{0,3}`), len(words), len(words)).Draw(rt, "pads")
		runs := make([]string, len(words))
		var want []string
		for i, w := range words {
			runs[i] = pads[i] + w + pads[len(pads)-1-i]
			if w != "" {
				want = append(want, w)
			}
		}
		got := JoinText(runs)
		if got != strings.Join(want, " ") {
			rt.Fatalf("JoinText(%q) = %q", runs, got)
		}
	})
}

func TestExtractText(t *testing.T) {
	slide := pptxtest.Slide{Shapes: []pptxtest.Shape{
		{Paragraphs: [][]pptxtest.Run{{{Text: "  Hello  "}, {Text: ""}}, {{Text: "World"}}}},
		{Paragraphs: [][]pptxtest.Run{{{Text: "again & more"}}}},
	}}
	doc, err := parseXML(slide.XML())
	require.NoError(t, err)
	assert.Equal(t, "Hello World again & more", ExtractText(doc))
}

func TestExtractPrefersTargetedMediaWithShortestName(t *testing.T) {
	deck := pptxtest.Deck{
		Slides: []pptxtest.Slide{pptxtest.Text("first"), pptxtest.Text("second")},
		Media: []pptxtest.Entry{
			{Name: "ppt/media/slide2_large.png", Data: []byte("large")},
			{Name: "ppt/media/Slide2.png", Data: []byte("direct")},
			{Name: "ppt/media/image12.png", Data: []byte("other")},
			{Name: "ppt/media/slide2.xml", Data: []byte("not an image")},
		},
	}
	r := &stubRenderer{}
	slides, errs := extractAll(t, deck, r)
	require.Empty(t, errs)
	require.Len(t, slides, 2)

	assert.Equal(t, SourceSynthetic, slides[0].Source)
	assert.Equal(t, SourceMedia, slides[1].Source)
	mime, body := decoded(t, slides[1].ImageURL)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "direct", body)
	assert.Equal(t, "second", slides[1].Text)
}

func TestExtractNumberBoundary(t *testing.T) {
	deck := pptxtest.Deck{
		Slides: []pptxtest.Slide{pptxtest.Text("only")},
		Media:  []pptxtest.Entry{{Name: "ppt/media/slide10.png", Data: []byte("ten")}},
	}
	slides, errs := extractAll(t, deck, &stubRenderer{})
	require.Empty(t, errs)
	require.Len(t, slides, 1)
	assert.Equal(t, SourceSynthetic, slides[0].Source)
}

func TestExtractSlideScopedMedia(t *testing.T) {
	deck := pptxtest.Deck{
		Slides: []pptxtest.Slide{pptxtest.Text("x")},
		Media: []pptxtest.Entry{
			{Name: "ppt/media/logo.png", Data: []byte("logo")},
			{Name: "ppt/slides/media/export.jpg", Data: []byte("jpeg")},
		},
	}
	slides, errs := extractAll(t, deck, &stubRenderer{})
	require.Empty(t, errs)
	require.Len(t, slides, 1)
	assert.Equal(t, SourceMedia, slides[0].Source)
	mime, body := decoded(t, slides[0].ImageURL)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, "jpeg", body)
}

func TestExtractToleratesPartNameCase(t *testing.T) {
	p := pptxtest.Deck{Slides: []pptxtest.Slide{pptxtest.Text("Upper"), pptxtest.Text()}}.Package()
	for i, e := range p.Entries {
		switch e.Name {
		case "ppt/slides/slide1.xml":
			p.Entries[i].Name = "ppt/Slides/Slide1.xml"
		case "ppt/slides/slide2.xml":
			p.Entries[i].Name = "PPT/SLIDES/SLIDE2.XML"
		}
	}
	p.Add("ppt/Slides/Media/Export.PNG", []byte("exported"))

	a := openDeck(t, p)
	refs, err := Resolve(a)
	require.NoError(t, err)
	ex := NewExtractor(a, &stubRenderer{})

	var got []*Slide
	for _, ref := range refs {
		s, err := ex.Extract(ref)
		require.NoError(t, err, ref.Path)
		got = append(got, s)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "Upper", got[0].Text)
	assert.Equal(t, SourceMedia, got[1].Source, "slide-scoped media is found under mixed-case directories")
	mime, body := decoded(t, got[1].ImageURL)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "exported", body)
}

func TestExtractRendersGeometry(t *testing.T) {
	deck := pptxtest.Deck{Slides: []pptxtest.Slide{{
		Shapes: []pptxtest.Shape{
			{Placeholder: "title", Paragraphs: [][]pptxtest.Run{{{Text: "Quarterly Review"}}}},
			{Paragraphs: [][]pptxtest.Run{{{Text: "Revenue grew", Size: 1800}}}},
		},
	}}}
	r := &stubRenderer{}
	slides, errs := extractAll(t, deck, r)
	require.Empty(t, errs)
	require.Len(t, slides, 1)
	require.Len(t, r.slides, 1)
	assert.Empty(t, r.texts)
	assert.Equal(t, "Quarterly Review", r.slides[0].Title)
	assert.Equal(t, []string{"Revenue grew"}, r.slides[0].Content)
	_, body := decoded(t, slides[0].ImageURL)
	assert.Equal(t, "layout:1:Quarterly Review", body)
	assert.Equal(t, "Quarterly Review Revenue grew", slides[0].Text)
}

func TestExtractEmptySlide(t *testing.T) {
	deck := pptxtest.Deck{Slides: []pptxtest.Slide{pptxtest.Text(), pptxtest.Text("  ")}}
	r := &stubRenderer{}
	slides, errs := extractAll(t, deck, r)
	require.Empty(t, errs)
	require.Len(t, slides, 2)
	for _, s := range slides {
		assert.Equal(t, "", s.Text)
		assert.Equal(t, SourceSynthetic, s.Source)
		assert.NotEmpty(t, s.ImageURL)
	}
	assert.Equal(t, []string{"", ""}, r.texts)
}

func TestExtractPackageThumbnailForEmptyFirstSlide(t *testing.T) {
	deck := pptxtest.Deck{
		Slides: []pptxtest.Slide{pptxtest.Text(), pptxtest.Text()},
		Media:  []pptxtest.Entry{{Name: "docProps/thumbnail.jpeg", Data: []byte("thumb")}},
	}
	r := &stubRenderer{}
	slides, errs := extractAll(t, deck, r)
	require.Empty(t, errs)
	require.Len(t, slides, 2)
	assert.Equal(t, SourceThumbnail, slides[0].Source)
	mime, body := decoded(t, slides[0].ImageURL)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, "thumb", body)
	assert.Equal(t, SourceSynthetic, slides[1].Source)
}

func TestExtractSkipsBrokenSlides(t *testing.T) {
	deck := pptxtest.Deck{Slides: []pptxtest.Slide{pptxtest.Text("ok"), pptxtest.Text("gone"), pptxtest.Text("bad")}}
	p := deck.Package()
	var kept []pptxtest.Entry
	for _, e := range p.Entries {
		switch e.Name {
		case "ppt/slides/slide2.xml":
			continue
		case "ppt/slides/slide3.xml":
			e.Data = []byte(`<p:sld><p:cSld>`)
		}
		kept = append(kept, e)
	}
	p.Entries = kept

	a := openDeck(t, p)
	refs, err := Resolve(a)
	require.NoError(t, err)
	require.Len(t, refs, 3)

	ex := NewExtractor(a, &stubRenderer{})
	s, err := ex.Extract(refs[0])
	require.NoError(t, err)
	assert.Equal(t, "ok", s.Text)

	for _, ref := range refs[1:] {
		_, err := ex.Extract(ref)
		assert.ErrorIs(t, err, ErrSlideSkipped, "slide %d", ref.Number)
	}
}

func TestExtractRendererFailureSkipsSlide(t *testing.T) {
	deck := pptxtest.Deck{Slides: []pptxtest.Slide{pptxtest.Text("text")}}
	_, errs := extractAll(t, deck, &stubRenderer{err: errors.New("no surface")})
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrSlideSkipped)
}

func TestDataURIRoundTrip(t *testing.T) {
	uri := DataURI("image/gif", []byte("GIF89a"))
	assert.True(t, strings.HasPrefix(uri, "data:image/gif;base64,"))
	mime, data, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", mime)
	assert.Equal(t, []byte("GIF89a"), data)

	for _, bad := range []string{"", "http://x/y.png", "data:image/png,raw", "data:image/png;base64,@@@"} {
		_, _, err := DecodeDataURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestMIMEType(t *testing.T) {
	assert.Equal(t, "image/jpeg", MIMEType("a/b/photo.JPG", nil))
	assert.Equal(t, "image/svg+xml", MIMEType("x.svg", nil))
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, "image/png", MIMEType("ppt/media/blob.bin", png))
}
