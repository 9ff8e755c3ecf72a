// Package pptxtest builds small presentation packages in memory for tests.
package pptxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

const (
	relsNS  = "http://schemas.openxmlformats.org/package/2006/relationships"
	slideRT = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	themeRT = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
)

// Entry is one file of the package.
type Entry struct {
	Name string
	Data []byte
}

// Package is an ordered list of entries. Order is the physical ZIP order.
type Package struct {
	Entries []Entry
}

func (p *Package) Add(name string, data []byte) *Package {
	p.Entries = append(p.Entries, Entry{Name: name, Data: data})
	return p
}

func (p *Package) AddText(name, text string) *Package {
	return p.Add(name, []byte(text))
}

// Shuffle permutes the physical entry order.
func (p *Package) Shuffle(seed int64) *Package {
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(p.Entries), func(i, j int) {
		p.Entries[i], p.Entries[j] = p.Entries[j], p.Entries[i]
	})
	return p
}

// Reverse flips the physical entry order.
func (p *Package) Reverse() *Package {
	for i, j := 0, len(p.Entries)-1; i < j; i, j = i+1, j-1 {
		p.Entries[i], p.Entries[j] = p.Entries[j], p.Entries[i]
	}
	return p
}

// Bytes writes the package as a ZIP archive.
func (p *Package) Bytes(tb testing.TB) []byte {
	tb.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range p.Entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			tb.Fatalf("create %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			tb.Fatalf("write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// Run is a text run with optional formatting. Size is in hundredths of a point.
type Run struct {
	Text  string
	Size  int
	Color string
	Font  string
}

// Shape is a text box. A zero Frame omits the transform.
type Shape struct {
	Placeholder string
	Frame       [4]int64
	Paragraphs  [][]Run
}

// Slide is a slide part described by its shapes and background color.
type Slide struct {
	Background string
	Shapes     []Shape
}

// Text returns a one-paragraph, one-run shape per string.
func Text(texts ...string) Slide {
	var s Slide
	for _, t := range texts {
		s.Shapes = append(s.Shapes, Shape{Paragraphs: [][]Run{{{Text: t}}}})
	}
	return s
}

// XML renders the slide part.
func (s Slide) XML() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld>`)
	if s.Background != "" {
		fmt.Fprintf(&b, `<p:bg><p:bgPr><a:solidFill><a:srgbClr val="%s"/></a:solidFill></p:bgPr></p:bg>`, s.Background)
	}
	b.WriteString(`<p:spTree>`)
	for i, sh := range s.Shapes {
		fmt.Fprintf(&b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Shape %d"/><p:cNvSpPr/><p:nvPr>`, i+2, i+1)
		if sh.Placeholder != "" {
			fmt.Fprintf(&b, `<p:ph type="%s"/>`, sh.Placeholder)
		}
		b.WriteString(`</p:nvPr></p:nvSpPr><p:spPr>`)
		if sh.Frame != [4]int64{} {
			fmt.Fprintf(&b, `<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`,
				sh.Frame[0], sh.Frame[1], sh.Frame[2], sh.Frame[3])
		}
		b.WriteString(`</p:spPr><p:txBody><a:bodyPr/>`)
		for _, para := range sh.Paragraphs {
			b.WriteString(`<a:p>`)
			for _, r := range para {
				b.WriteString(`<a:r>`)
				writeRunProps(&b, r)
				fmt.Fprintf(&b, `<a:t>%s</a:t></a:r>`, escape(r.Text))
			}
			b.WriteString(`</a:p>`)
		}
		b.WriteString(`</p:txBody></p:sp>`)
	}
	b.WriteString(`</p:spTree></p:cSld></p:sld>`)
	return b.String()
}

func writeRunProps(b *strings.Builder, r Run) {
	if r.Size == 0 && r.Color == "" && r.Font == "" {
		return
	}
	b.WriteString(`<a:rPr lang="en-US"`)
	if r.Size > 0 {
		fmt.Fprintf(b, ` sz="%d"`, r.Size)
	}
	b.WriteString(`>`)
	if r.Color != "" {
		fmt.Fprintf(b, `<a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, r.Color)
	}
	if r.Font != "" {
		fmt.Fprintf(b, `<a:latin typeface="%s"/>`, r.Font)
	}
	b.WriteString(`</a:rPr>`)
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// Deck describes a whole presentation. Slide i is stored as
// ppt/slides/slide<i+1>.xml with relationship id rId<i+10>.
type Deck struct {
	Slides []Slide
	// Unrelated lists 1-based slide positions whose relationship entry is left out.
	Unrelated []int
	// Media is added verbatim, in order, after the slide parts.
	Media []Entry
}

func RelID(position int) string { return fmt.Sprintf("rId%d", position+9) }

// Package assembles the deck into entries in conventional order.
func (d Deck) Package() *Package {
	p := &Package{}
	p.AddText("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`)
	p.AddText("ppt/presentation.xml", d.presentationXML())
	p.AddText("ppt/_rels/presentation.xml.rels", d.relsXML())
	for i, s := range d.Slides {
		p.AddText(fmt.Sprintf("ppt/slides/slide%d.xml", i+1), s.XML())
	}
	for _, m := range d.Media {
		p.Add(m.Name, m.Data)
	}
	return p
}

func (d Deck) Bytes(tb testing.TB) []byte {
	tb.Helper()
	return d.Package().Bytes(tb)
}

func (d Deck) presentationXML() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:sldIdLst>`)
	for i := range d.Slides {
		fmt.Fprintf(&b, `<p:sldId id="%d" r:id="%s"/>`, 256+i, RelID(i+1))
	}
	b.WriteString(`</p:sldIdLst><p:sldSz cx="9144000" cy="6858000"/></p:presentation>`)
	return b.String()
}

func (d Deck) relsXML() string {
	skip := make(map[int]bool, len(d.Unrelated))
	for _, n := range d.Unrelated {
		skip[n] = true
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Relationships xmlns="%s">`, relsNS)
	fmt.Fprintf(&b, `<Relationship Id="rId1" Type="%s" Target="theme/theme1.xml"/>`, themeRT)
	for i := range d.Slides {
		if skip[i+1] {
			continue
		}
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="slides/slide%d.xml"/>`, RelID(i+1), slideRT, i+1)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}
