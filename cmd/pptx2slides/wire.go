package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pptx-to-slides/internal/ai"
	"github.com/thywilljoshua/pptx-to-slides/internal/config"
	"github.com/thywilljoshua/pptx-to-slides/internal/convert"
	"github.com/thywilljoshua/pptx-to-slides/internal/logger"
	"github.com/thywilljoshua/pptx-to-slides/internal/rasterize"
	"github.com/thywilljoshua/pptx-to-slides/internal/render"
)

// wire builds the logger and the pipeline collaborators from cfg.
func wire(ctx context.Context, cfg config.Config) (*zap.Logger, convert.Config, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, convert.Config{}, fmt.Errorf("logger: %w", err)
	}

	r, err := render.New(render.Options{
		Width:   cfg.Render.Width,
		Height:  cfg.Render.Height,
		Footer:  cfg.Render.Footer,
		Lighten: &cfg.Render.Lighten,
	})
	if err != nil {
		return nil, convert.Config{}, err
	}

	conv := convert.Config{
		Rasterizer:    rasterizers(cfg),
		RemoteTimeout: cfg.Remote.Timeout,
		Renderer:      r,
		Enhancer:      ai.Noop{},
		Logger:        log,
		SlideDuration: cfg.Slides.Duration,
		Renumber:      cfg.Slides.Renumber,
	}
	if conv.Rasterizer != nil {
		log.Info("rasterizers enabled", zap.String("chain", conv.Rasterizer.Name()))
	}

	if cfg.Gemini.Enabled {
		g, err := ai.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			log.Warn("gemini disabled", zap.Error(err))
		} else {
			conv.Enhancer = g
		}
	}
	return log, conv, nil
}

// rasterizers returns the enabled backends in fidelity order, or nil.
func rasterizers(cfg config.Config) rasterize.Rasterizer {
	var chain rasterize.Chain
	if cfg.Remote.Endpoint != "" {
		chain = append(chain, rasterize.NewHTTP(cfg.Remote.Endpoint, cfg.Remote.Timeout, cfg.Remote.MaxResponseBytes))
	}
	if cfg.LibreOffice.Enabled {
		lo := rasterize.NewLibreOffice()
		lo.Soffice = cfg.LibreOffice.Soffice
		lo.Pdftoppm = cfg.LibreOffice.Pdftoppm
		lo.DPI = cfg.LibreOffice.DPI
		chain = append(chain, lo)
	}
	if cfg.GoPPT.Enabled {
		chain = append(chain, rasterize.GoPPT{Width: cfg.GoPPT.Width})
	}
	if len(chain) == 0 {
		return nil
	}
	return chain
}
