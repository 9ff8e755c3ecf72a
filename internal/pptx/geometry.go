package pptx

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

var titlePlaceholders = map[string]bool{
	"title":    true,
	"ctrTitle": true,
	"subTitle": true,
}

// titleFontSize is the size in points above which a paragraph reads as a title.
const titleFontSize = 20

var hexColor = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// ExtractInfo recovers text positions, styles and the title from a parsed
// slide part.
func ExtractInfo(doc *xmlquery.Node) SlideInfo {
	info := SlideInfo{Background: background(doc)}
	first := true
	for _, p := range descendants(doc, "p") {
		text := paragraphText(p)
		if text == "" {
			continue
		}
		shape := ancestor(p, "sp", "graphicFrame")
		style, sized := paragraphStyle(p)
		el := TextElement{
			Text:     text,
			Position: shapeGeometry(shape),
			Style:    style,
			IsTitle:  isTitle(shape, style, sized, first),
		}
		first = false
		info.TextElements = append(info.TextElements, el)
	}
	if len(info.TextElements) == 0 {
		return info
	}

	titleIdx := -1
	for i, el := range info.TextElements {
		if el.IsTitle {
			titleIdx = i
			break
		}
	}
	if titleIdx < 0 {
		titleIdx = 0
		info.TextElements[0].IsTitle = true
	}
	info.Title = info.TextElements[titleIdx].Text
	// Secondary title elements are neither the title nor content; the
	// renderer skips them too.
	for _, el := range info.TextElements {
		if !el.IsTitle {
			info.Content = append(info.Content, el.Text)
		}
	}
	return info
}

// paragraphText concatenates the paragraph's runs as stored; runs split a
// word freely, so no separator is inserted.
func paragraphText(p *xmlquery.Node) string {
	var b strings.Builder
	for _, t := range descendants(p, "t") {
		b.WriteString(t.InnerText())
	}
	return strings.TrimSpace(b.String())
}

func isTitle(shape *xmlquery.Node, style TextStyle, sized, first bool) bool {
	if ph := child(shape, "nvSpPr", "nvPr", "ph"); ph != nil {
		if typ, _ := attr(ph, "type"); titlePlaceholders[typ] {
			return true
		}
	}
	if sized && style.FontSize > titleFontSize {
		return true
	}
	return first
}

func shapeGeometry(shape *xmlquery.Node) Geometry {
	if shape == nil {
		return DefaultGeometry
	}
	xfrm := firstDescendant(shape, "xfrm")
	off := child(xfrm, "off")
	ext := child(xfrm, "ext")
	if off == nil || ext == nil {
		return DefaultGeometry
	}
	g := DefaultGeometry
	var ok bool
	if g.X, ok = int64Attr(off, "x", g.X); !ok {
		return DefaultGeometry
	}
	g.Y, _ = int64Attr(off, "y", g.Y)
	g.Width, _ = int64Attr(ext, "cx", g.Width)
	g.Height, _ = int64Attr(ext, "cy", g.Height)
	return g
}

func int64Attr(n *xmlquery.Node, name string, def int64) (int64, bool) {
	s, ok := attr(n, name)
	if !ok {
		return def, false
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return def, false
	}
	return v, true
}

// paragraphStyle reads the paragraph's first run properties. The second return
// value reports whether the font size was declared rather than defaulted.
func paragraphStyle(p *xmlquery.Node) (TextStyle, bool) {
	style := DefaultTextStyle
	rPr := firstDescendant(p, "rPr")
	if rPr == nil {
		rPr = firstDescendant(p, "endParaRPr")
	}
	if rPr == nil {
		return style, false
	}
	sized := false
	if sz, ok := attr(rPr, "sz"); ok {
		if v, err := strconv.Atoi(strings.TrimSpace(sz)); err == nil && v > 0 {
			style.FontSize = float64(v) / 100
			sized = true
		}
	}
	if c := srgb(child(rPr, "solidFill", "srgbClr")); c != "" {
		style.Color = c
	}
	if latin := child(rPr, "latin"); latin != nil {
		if face, _ := attr(latin, "typeface"); face != "" && !strings.HasPrefix(face, "+") {
			style.FontFamily = face
		}
	}
	return style, sized
}

func background(doc *xmlquery.Node) string {
	bg := firstDescendant(doc, "bg")
	if c := srgb(child(bg, "bgPr", "solidFill", "srgbClr")); c != "" {
		return c
	}
	return DefaultBackground
}

func srgb(n *xmlquery.Node) string {
	val, ok := attr(n, "val")
	if !ok || !hexColor.MatchString(val) {
		return ""
	}
	return "#" + strings.ToLower(val)
}
