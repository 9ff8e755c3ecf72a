// Package rasterize renders a whole presentation to one image per slide with
// an engine of higher fidelity than the built-in placeholder renderer.
package rasterize

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable means the backend cannot serve this request at all: it is not
// configured, not installed, or reported itself unavailable.
var ErrUnavailable = errors.New("rasterize: backend unavailable")

// errUnusable marks a result that arrived but cannot be used per slide.
var errUnusable = errors.New("rasterize: unusable result")

// Image is one encoded slide image.
type Image struct {
	MIME string
	Data []byte
}

// Result holds slide images in presentation order.
type Result struct {
	Images []Image
	// Combined reports that the backend produced a single image for the
	// whole deck instead of one per slide.
	Combined bool
}

// Rasterizer answers with ordered per-slide images, ErrUnavailable, or an
// error. It never returns a partial deck.
type Rasterizer interface {
	Name() string
	Rasterize(ctx context.Context, data []byte) (Result, error)
}

// Noop is the rasterizer used when no backend is configured.
type Noop struct{}

func (Noop) Name() string { return "none" }

func (Noop) Rasterize(context.Context, []byte) (Result, error) {
	return Result{}, ErrUnavailable
}

// Chain tries each backend in order and returns the first usable result.
type Chain []Rasterizer

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, r := range c {
		names[i] = r.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

func (c Chain) Rasterize(ctx context.Context, data []byte) (Result, error) {
	var errs []error
	for _, r := range c {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res, err := r.Rasterize(ctx, data)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
		case len(res.Images) == 0:
			errs = append(errs, fmt.Errorf("%s: %w: no images", r.Name(), errUnusable))
		case res.Combined:
			errs = append(errs, fmt.Errorf("%s: %w: combined image", r.Name(), errUnusable))
		default:
			return res, nil
		}
	}
	if len(errs) == 0 {
		return Result{}, ErrUnavailable
	}
	return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
}
