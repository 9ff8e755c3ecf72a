package convert

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pptx-to-slides/internal/ai"
	"github.com/thywilljoshua/pptx-to-slides/internal/pptx"
	"github.com/thywilljoshua/pptx-to-slides/internal/rasterize"
)

// ErrInvalidPresentation is returned when no strategy yields any slide. It
// wraps the fatal parse error when there was one.
var ErrInvalidPresentation = errors.New("invalid or unsupported presentation")

// SourceRemote marks images produced by a rasterizer backend. The other
// sources come from pptx.Source.
const SourceRemote = "remote"

// DefaultSlideDuration is the seconds each slide is shown for.
const DefaultSlideDuration = 10.0

// Record is one slide of the output, in the shape video export consumes.
type Record struct {
	ID          string  `json:"id"`
	ImageURL    string  `json:"imageUrl"`
	StartTime   float64 `json:"startTime"`
	Duration    float64 `json:"duration"`
	Text        string  `json:"text"`
	SlideNumber int     `json:"slideNumber"`
	Source      string  `json:"source"`
}

type Config struct {
	// Rasterizer is tried before direct parsing. Nil skips that strategy.
	Rasterizer    rasterize.Rasterizer
	RemoteTimeout time.Duration
	// Renderer draws placeholder images. Nil uses render defaults.
	Renderer pptx.Renderer
	Enhancer ai.Enhancer
	Logger   *zap.Logger

	SlideDuration float64
	// Renumber replaces manifest positions with 1..n in output order.
	Renumber bool
}
