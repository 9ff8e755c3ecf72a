// Package convert turns a presentation package into timed slide records. It
// tries a rasterizer backend first and falls back to parsing the package.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pptx-to-slides/internal/pptx"
	"github.com/thywilljoshua/pptx-to-slides/internal/rasterize"
	"github.com/thywilljoshua/pptx-to-slides/internal/render"
)

// errSkip means a strategy declined and the next one should run.
var errSkip = errors.New("strategy skipped")

type strategy struct {
	name string
	run  func(ctx context.Context, p *pipeline) ([]Record, error)
}

var strategies = []strategy{
	{name: "remote", run: func(ctx context.Context, p *pipeline) ([]Record, error) { return p.remote(ctx) }},
	{name: "direct", run: func(_ context.Context, p *pipeline) ([]Record, error) { return p.parse() }},
}

// pipeline is the state of one Run call.
type pipeline struct {
	data []byte
	cfg  Config
	log  *zap.Logger

	parsed    bool
	parsedErr error
	slides    []Record
}

// RunFile reads path and calls Run.
func RunFile(ctx context.Context, path string, cfg Config) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Run(ctx, data, cfg)
}

// Run extracts one record per slide, in manifest order. Every record has an
// image. Timing is applied last.
func Run(ctx context.Context, data []byte, cfg Config) ([]Record, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.SlideDuration <= 0 {
		cfg.SlideDuration = DefaultSlideDuration
	}
	if cfg.Renderer == nil {
		r, err := render.New(render.Options{})
		if err != nil {
			return nil, err
		}
		cfg.Renderer = r
	}
	p := &pipeline{data: data, cfg: cfg, log: cfg.Logger}

	var fatal error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log := p.log.With(zap.String("strategy", s.name))
		recs, err := s.run(ctx, p)
		switch {
		case errors.Is(err, errSkip):
			log.Info("strategy skipped", zap.Error(err))
			continue
		case err != nil:
			log.Warn("strategy failed", zap.Error(err))
			fatal = err
			continue
		case len(recs) == 0:
			log.Info("strategy produced no slides")
			continue
		}
		log.Info("strategy succeeded", zap.Int("slides", len(recs)))
		p.enhance(ctx, recs)
		finalize(recs, cfg)
		return recs, nil
	}
	if fatal != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPresentation, fatal)
	}
	return nil, fmt.Errorf("%w: no slides could be extracted", ErrInvalidPresentation)
}

func (p *pipeline) remote(ctx context.Context) ([]Record, error) {
	if p.cfg.Rasterizer == nil {
		return nil, fmt.Errorf("%w: no rasterizer configured", errSkip)
	}
	rctx := ctx
	if p.cfg.RemoteTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, p.cfg.RemoteTimeout)
		defer cancel()
	}
	res, err := p.rasterize(rctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errSkip, p.cfg.Rasterizer.Name(), err)
	}
	if len(res.Images) == 0 {
		return nil, fmt.Errorf("%w: %s returned no images", errSkip, p.cfg.Rasterizer.Name())
	}
	if res.Combined {
		return nil, fmt.Errorf("%w: %s returned a combined image", errSkip, p.cfg.Rasterizer.Name())
	}

	// Text and numbering still come from the package.
	slides, err := p.parse()
	if err != nil {
		p.log.Warn("slide text unavailable for rasterized images", zap.Error(err))
	}
	if len(res.Images) == 1 && len(slides) > 1 {
		return nil, fmt.Errorf("%w: one image for %d slides", errSkip, len(slides))
	}

	recs := make([]Record, len(res.Images))
	last := 0
	for i, img := range res.Images {
		rec := Record{
			ImageURL:    pptx.DataURI(img.MIME, img.Data),
			SlideNumber: last + 1,
			Source:      SourceRemote,
		}
		if i < len(slides) {
			rec.Text = slides[i].Text
			rec.SlideNumber = slides[i].SlideNumber
		}
		last = rec.SlideNumber
		recs[i] = rec
	}
	return recs, nil
}

type rasterized struct {
	res rasterize.Result
	err error
}

// rasterize returns when ctx is done even if the backend ignores it. A late
// result is dropped.
func (p *pipeline) rasterize(ctx context.Context) (rasterize.Result, error) {
	done := make(chan rasterized, 1)
	go func() {
		res, err := p.cfg.Rasterizer.Rasterize(ctx, p.data)
		done <- rasterized{res, err}
	}()
	select {
	case r := <-done:
		return r.res, r.err
	case <-ctx.Done():
		return rasterize.Result{}, ctx.Err()
	}
}

// parse runs direct extraction once per Run; both strategies share it.
func (p *pipeline) parse() ([]Record, error) {
	if !p.parsed {
		p.parsed = true
		p.slides, p.parsedErr = p.extract()
	}
	return p.slides, p.parsedErr
}

func (p *pipeline) extract() ([]Record, error) {
	a, err := pptx.Open(p.data)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	refs, err := pptx.Resolve(a)
	if err != nil {
		return nil, err
	}
	p.log.Info("slide list resolved", zap.Int("slides", len(refs)))

	ex := pptx.NewExtractor(a, p.cfg.Renderer)
	recs := make([]Record, 0, len(refs))
	for _, ref := range refs {
		s, err := ex.Extract(ref)
		if err != nil {
			p.log.Warn("slide skipped", zap.Int("slide", ref.Number), zap.String("path", ref.Path), zap.Error(err))
			continue
		}
		p.log.Debug("slide extracted", zap.Int("slide", s.Number), zap.String("path", s.Path), zap.String("source", string(s.Source)))
		recs = append(recs, Record{
			ImageURL:    s.ImageURL,
			Text:        s.Text,
			SlideNumber: s.Number,
			Source:      string(s.Source),
		})
	}
	return recs, nil
}

// enhance asks the enhancer for the text of real bitmaps that came without
// any. Synthetic images only show text we already have.
func (p *pipeline) enhance(ctx context.Context, recs []Record) {
	if p.cfg.Enhancer == nil {
		return
	}
	for i := range recs {
		rec := &recs[i]
		if rec.Text != "" || (rec.Source != SourceRemote && rec.Source != string(pptx.SourceMedia)) {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		mime, data, err := pptx.DecodeDataURI(rec.ImageURL)
		if err != nil {
			continue
		}
		text, err := p.cfg.Enhancer.RecoverText(ctx, mime, data)
		if err != nil {
			p.log.Warn("text recovery failed", zap.Int("slide", rec.SlideNumber), zap.Error(err))
			continue
		}
		rec.Text = pptx.JoinText([]string{text})
	}
}

func finalize(recs []Record, cfg Config) {
	for i := range recs {
		if cfg.Renumber {
			recs[i].SlideNumber = i + 1
		}
		recs[i].ID = fmt.Sprintf("slide-%d", recs[i].SlideNumber)
		recs[i].StartTime = float64(i) * cfg.SlideDuration
		recs[i].Duration = cfg.SlideDuration
	}
}
