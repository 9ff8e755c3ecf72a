package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	goppt "github.com/VantageDataChat/GoPPT"
)

// GoPPT rasterizes in process. Width is the output width in pixels; zero keeps
// the library default.
type GoPPT struct {
	Width int
}

func (GoPPT) Name() string { return "goppt" }

func (g GoPPT) Rasterize(ctx context.Context, data []byte) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("goppt panic: %v", r)
		}
	}()

	pres, err := goppt.ReadFrom(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("goppt read: %w", err)
	}
	defer pres.Close()

	slides := pres.Slides()
	if len(slides) == 0 {
		return Result{}, nil
	}

	opts := goppt.DefaultRenderOptions()
	if g.Width > 0 {
		opts.Width = g.Width
	}
	opts.FontCache = goppt.NewFontCache()

	rendered, renderErr := pres.SlidesToImages(opts)
	res.Images = make([]Image, 0, len(slides))
	for i := range slides {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		var img image.Image
		if renderErr == nil && i < len(rendered) {
			img = rendered[i]
		} else {
			// Batch rendering failed; retry this slide alone.
			if img, err = pres.SlideToImage(i, opts); err != nil {
				return Result{}, fmt.Errorf("goppt slide %d: %w", i+1, err)
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return Result{}, fmt.Errorf("goppt slide %d: encode: %w", i+1, err)
		}
		res.Images = append(res.Images, Image{MIME: "image/png", Data: buf.Bytes()})
	}
	return res, nil
}
