// Package pptx reads OOXML presentation packages: the ZIP container, the
// relationship and order manifests, per-slide text, embedded media and the
// text geometry needed to draw a placeholder when no bitmap exists.
package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// maxEntrySize caps a single decompressed part.
const maxEntrySize = 256 << 20

// Archive is an opened presentation package. Part names compare
// case-insensitively; files is keyed by partKey while order keeps the stored
// names. It is not safe for concurrent use and must be closed once extraction
// is done.
type Archive struct {
	files  map[string]*zip.File
	order  []string
	closed bool
}

// Open parses data as a ZIP container.
func Open(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	a := &Archive{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		name := normalizeName(f.Name)
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		key := partKey(name)
		if _, dup := a.files[key]; dup {
			continue
		}
		a.files[key] = f
		a.order = append(a.order, name)
	}
	return a, nil
}

func normalizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.TrimPrefix(name, "/")
}

func partKey(name string) string {
	return strings.ToLower(normalizeName(name))
}

// Has reports whether the package holds an entry with the given path.
func (a *Archive) Has(path string) bool {
	if a.closed {
		return false
	}
	_, ok := a.files[partKey(path)]
	return ok
}

// ReadBinary returns the decompressed bytes of an entry.
func (a *Archive) ReadBinary(path string) ([]byte, error) {
	if a.closed {
		return nil, ErrClosed
	}
	f, ok := a.files[partKey(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, path)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(b) > maxEntrySize {
		return nil, fmt.Errorf("read %s: entry exceeds %d bytes", path, maxEntrySize)
	}
	return b, nil
}

// ReadText returns an entry decoded as UTF-8.
func (a *Archive) ReadText(path string) (string, error) {
	b, err := a.ReadBinary(path)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))), nil
}

// List returns the entries whose path starts with prefix, ignoring case, in
// archive order. Archive order says nothing about presentation order.
func (a *Archive) List(prefix string) []string {
	if a.closed {
		return nil
	}
	prefix = partKey(prefix)
	var out []string
	for _, name := range a.order {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			out = append(out, name)
		}
	}
	return out
}

// Close releases the package. Further reads return ErrClosed.
func (a *Archive) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.files = nil
	a.order = nil
	return nil
}
