package rasterize

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	rpdf "rsc.io/pdf"
)

// LibreOffice converts the package to PDF with soffice, then rasterizes every
// page with pdftoppm. Both binaries must be installed.
type LibreOffice struct {
	Soffice  string
	Pdftoppm string
	DPI      int
	// TempDir is the parent of the per-call work directory; empty means os.TempDir.
	TempDir string
}

func NewLibreOffice() *LibreOffice {
	return &LibreOffice{Soffice: "soffice", Pdftoppm: "pdftoppm", DPI: 96}
}

func (l *LibreOffice) Name() string { return "libreoffice" }

// waitDelay bounds Wait after a kill; soffice forks children that can keep
// the output pipe open.
const waitDelay = 5 * time.Second

const macSoffice = "/Applications/LibreOffice.app/Contents/MacOS/soffice"

func (l *LibreOffice) lookup() (soffice, pdftoppm string, err error) {
	soffice, err = exec.LookPath(l.Soffice)
	if err != nil {
		if _, statErr := os.Stat(macSoffice); statErr != nil || l.Soffice != "soffice" {
			return "", "", fmt.Errorf("%w: %s not found", ErrUnavailable, l.Soffice)
		}
		soffice = macSoffice
	}
	pdftoppm, err = exec.LookPath(l.Pdftoppm)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s not found", ErrUnavailable, l.Pdftoppm)
	}
	return soffice, pdftoppm, nil
}

func (l *LibreOffice) Rasterize(ctx context.Context, data []byte) (Result, error) {
	soffice, pdftoppm, err := l.lookup()
	if err != nil {
		return Result{}, err
	}
	dir, err := os.MkdirTemp(l.TempDir, "pptx2slides-")
	if err != nil {
		return Result{}, fmt.Errorf("work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "deck.pptx")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return Result{}, fmt.Errorf("write input: %w", err)
	}

	cmd := exec.CommandContext(ctx, soffice, "--headless", "--convert-to", "pdf", "--outdir", dir, in)
	cmd.WaitDelay = waitDelay
	if out, err := cmd.CombinedOutput(); err != nil {
		return Result{}, fmt.Errorf("libreoffice conversion to pdf failed: %w, output: %s", err, strings.TrimSpace(string(out)))
	}
	pdfPath := filepath.Join(dir, "deck.pdf")
	pages, err := pdfPageCount(pdfPath)
	if err != nil {
		return Result{}, err
	}
	if pages == 0 {
		return Result{}, fmt.Errorf("%w: pdf has no pages", errUnusable)
	}

	dpi := l.DPI
	if dpi <= 0 {
		dpi = 96
	}
	prefix := filepath.Join(dir, "slide")
	cmd = exec.CommandContext(ctx, pdftoppm, "-png", "-r", strconv.Itoa(dpi), pdfPath, prefix)
	cmd.WaitDelay = waitDelay
	if out, err := cmd.CombinedOutput(); err != nil {
		return Result{}, fmt.Errorf("pdftoppm conversion failed: %w, output: %s", err, strings.TrimSpace(string(out)))
	}

	files, err := pageImages(dir, "slide", ".png")
	if err != nil {
		return Result{}, err
	}
	if len(files) != pages {
		return Result{}, fmt.Errorf("pdftoppm produced %d images for %d pages", len(files), pages)
	}
	res := Result{Images: make([]Image, 0, len(files))}
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return Result{}, err
		}
		res.Images = append(res.Images, Image{MIME: "image/png", Data: b})
	}
	return res, nil
}

// pdfPageCount reads the page tree count of a PDF file.
func pdfPageCount(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("read pdf %s: %v", filepath.Base(path), r)
		}
	}()
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	doc, err := rpdf.NewReader(f, st.Size())
	if err != nil {
		return 0, fmt.Errorf("read pdf %s: %w", filepath.Base(path), err)
	}
	return doc.NumPage(), nil
}

// pageImages lists prefix-N.ext files in dir ordered by N. pdftoppm pads N
// to the width of the page count, so lexical order is not enough.
func pageImages(dir, prefix, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ext) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		return trailingNumber(files[i]) < trailingNumber(files[j])
	})
	return files, nil
}

func trailingNumber(s string) int {
	base := filepath.Base(s)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	end := len(name)
	for end > 0 && name[end-1] >= '0' && name[end-1] <= '9' {
		end--
	}
	if end == len(name) {
		return 0
	}
	v, _ := strconv.Atoi(name[end:])
	return v
}
