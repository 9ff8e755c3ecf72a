package pptx

// EMUPerInch is the number of absolute length units in one inch.
const EMUPerInch = 914400

// Geometry is a text element's frame in EMU.
type Geometry struct {
	X      int64 `json:"x"`
	Y      int64 `json:"y"`
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

// TextStyle is the first run's formatting of a text element.
type TextStyle struct {
	FontSize   float64 `json:"fontSize"` // points
	Color      string  `json:"color"`    // #rrggbb
	FontFamily string  `json:"fontFamily"`
}

type TextElement struct {
	Text     string    `json:"text"`
	Position Geometry  `json:"position"`
	Style    TextStyle `json:"style"`
	IsTitle  bool      `json:"isTitle"`
}

// SlideInfo is the layout recovered from one slide part. It drives the
// synthetic renderer and is discarded afterwards.
type SlideInfo struct {
	Background   string        `json:"background"`
	Title        string        `json:"title"`
	Content      []string      `json:"content"`
	TextElements []TextElement `json:"textElements"`
}

var (
	DefaultGeometry  = Geometry{X: 100, Y: 100, Width: 800, Height: 100}
	DefaultTextStyle = TextStyle{FontSize: 32, Color: "#1e293b", FontFamily: "Arial"}
)

const DefaultBackground = "#ffffff"

// Source names the step that produced a slide image.
type Source string

const (
	SourceMedia     Source = "media"
	SourceThumbnail Source = "thumbnail"
	SourceSynthetic Source = "synthetic"
)

// Slide is the extraction result for one slide part.
type Slide struct {
	Number   int
	Path     string
	Text     string
	ImageURL string
	Source   Source
}
