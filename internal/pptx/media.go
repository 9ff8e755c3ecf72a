package pptx

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var imageMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".emf":  "image/emf",
	".wmf":  "image/wmf",
}

func isImage(name string) bool {
	_, ok := imageMIME[strings.ToLower(path.Ext(name))]
	return ok
}

// MIMEType derives the MIME type from the file extension, sniffing the
// content when the extension is unknown.
func MIMEType(name string, data []byte) string {
	if mt, ok := imageMIME[strings.ToLower(path.Ext(name))]; ok {
		return mt
	}
	return mimetype.Detect(data).String()
}

// DataURI embeds data as a base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

var errBadDataURI = errors.New("pptx: malformed data uri")

// DecodeDataURI is the inverse of DataURI.
func DecodeDataURI(uri string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errBadDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errBadDataURI
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: not base64", errBadDataURI)
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", errBadDataURI, err)
	}
	return mime, data, nil
}

func inMediaDir(name string) bool {
	for _, seg := range strings.Split(path.Dir(name), "/") {
		if strings.EqualFold(seg, "media") {
			return true
		}
	}
	return false
}

func mediaPattern(n int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?i)(?:slide[-_]?|image|media)%d(?:[^0-9]|$)`, n))
}

// targetedMedia picks the media image whose file name carries the slide
// number. Shorter names win: they tend to be direct per-slide exports.
func targetedMedia(entries []string, n int) string {
	re := mediaPattern(n)
	var matches []string
	for _, name := range entries {
		if !inMediaDir(name) || !isImage(name) {
			continue
		}
		if re.MatchString(path.Base(name)) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return ""
	}
	sort.SliceStable(matches, func(i, j int) bool {
		bi, bj := path.Base(matches[i]), path.Base(matches[j])
		if len(bi) != len(bj) {
			return len(bi) < len(bj)
		}
		return bi < bj
	})
	return matches[0]
}

// slideScopedMedia returns the first image stored in a media directory below
// ppt/slides/, in archive order.
func slideScopedMedia(entries []string) string {
	for _, name := range entries {
		if strings.HasPrefix(strings.ToLower(name), "ppt/slides/") && inMediaDir(name) && isImage(name) {
			return name
		}
	}
	return ""
}

// packageThumbnail is the package-level preview, which shows the first slide.
const packageThumbnail = "docProps/thumbnail.jpeg"

func thumbnailPaths(n int) []string {
	paths := []string{
		fmt.Sprintf("ppt/media/slide%d.png", n),
		fmt.Sprintf("ppt/media/slide%d.jpg", n),
		fmt.Sprintf("ppt/slides/media/slide%d.png", n),
		fmt.Sprintf("ppt/slides/media/slide%d.jpg", n),
	}
	if n == 1 {
		paths = append(paths, packageThumbnail)
	}
	return paths
}
