package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/thywilljoshua/pptx-to-slides/internal/pptx"
)

// WriteImages decodes every record's image into dir as slide-NNN.<ext> and
// returns the written paths in record order.
func WriteImages(dir string, recs []Record) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(recs))
	for _, rec := range recs {
		mime, data, err := pptx.DecodeDataURI(rec.ImageURL)
		if err != nil {
			return paths, fmt.Errorf("%s: %w", rec.ID, err)
		}
		name := fmt.Sprintf("slide-%03d%s", rec.SlideNumber, extension(mime, data))
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("%s: %w", rec.ID, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func extension(mime string, data []byte) string {
	if m := mimetype.Lookup(mime); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return mimetype.Detect(data).Extension()
}
