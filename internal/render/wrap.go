package render

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const ellipsis = "…"

// wrapText greedily breaks text into lines no wider than maxWidth pixels as
// measured with face. Newlines start a new line; a word wider than a whole
// line is split between runes.
func wrapText(face font.Face, text string, maxWidth int) []string {
	limit := fixed.I(maxWidth)
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			for _, piece := range splitWord(face, word, limit) {
				if line == "" {
					line = piece
					continue
				}
				if font.MeasureString(face, line+" "+piece) > limit {
					lines = append(lines, line)
					line = piece
					continue
				}
				line += " " + piece
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func splitWord(face font.Face, word string, limit fixed.Int26_6) []string {
	if font.MeasureString(face, word) <= limit {
		return []string{word}
	}
	var parts []string
	var cur []rune
	for _, r := range word {
		if len(cur) > 0 && font.MeasureString(face, string(cur)+string(r)) > limit {
			parts = append(parts, string(cur))
			cur = cur[:0]
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}

// truncateLines keeps at most maxLines lines. When lines are dropped the last
// kept line is shortened until it fits with an ellipsis appended.
func truncateLines(face font.Face, lines []string, maxLines, maxWidth int) []string {
	if len(lines) <= maxLines {
		return lines
	}
	if maxLines <= 0 {
		return nil
	}
	out := append([]string(nil), lines[:maxLines]...)
	last := []rune(out[maxLines-1])
	limit := fixed.I(maxWidth)
	for len(last) > 0 && font.MeasureString(face, string(last)+ellipsis) > limit {
		last = last[:len(last)-1]
	}
	out[maxLines-1] = strings.TrimRight(string(last), " ") + ellipsis
	return out
}
