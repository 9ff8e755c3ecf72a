// Package config loads pptx2slides settings from defaults, an optional YAML
// file, PPTX2SLIDES_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment variable; "remote.timeout" is read
// from PPTX2SLIDES_REMOTE_TIMEOUT.
const EnvPrefix = "PPTX2SLIDES"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Slides      SlidesConfig      `mapstructure:"slides"`
	Render      RenderConfig      `mapstructure:"render"`
	Remote      RemoteConfig      `mapstructure:"remote"`
	LibreOffice LibreOfficeConfig `mapstructure:"libreoffice"`
	GoPPT       GoPPTConfig       `mapstructure:"goppt"`
	Gemini      GeminiConfig      `mapstructure:"gemini"`
	Log         LogConfig         `mapstructure:"log"`
}

type SlidesConfig struct {
	Duration float64 `mapstructure:"duration"` // seconds per slide
	Renumber bool    `mapstructure:"renumber"`
}

type RenderConfig struct {
	Width   int     `mapstructure:"width"`
	Height  int     `mapstructure:"height"`
	Footer  string  `mapstructure:"footer"`
	Lighten float64 `mapstructure:"lighten"`
}

type RemoteConfig struct {
	Endpoint         string        `mapstructure:"endpoint"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxResponseBytes int64         `mapstructure:"max_response_bytes"`
}

type LibreOfficeConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Soffice  string `mapstructure:"soffice"`
	Pdftoppm string `mapstructure:"pdftoppm"`
	DPI      int    `mapstructure:"dpi"`
}

type GoPPTConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Width   int  `mapstructure:"width"`
}

type GeminiConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // console or json
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers every key. Keys without a default are invisible to
// Unmarshal, so optional strings default to "".
func SetDefaults(v *viper.Viper) {
	v.SetDefault("slides.duration", 10.0)
	v.SetDefault("slides.renumber", false)

	v.SetDefault("render.width", 1920)
	v.SetDefault("render.height", 1080)
	v.SetDefault("render.footer", "Generated by pptx2slides")
	v.SetDefault("render.lighten", 0.35)

	v.SetDefault("remote.endpoint", "")
	v.SetDefault("remote.timeout", 60*time.Second)
	v.SetDefault("remote.max_response_bytes", int64(256<<20))

	v.SetDefault("libreoffice.enabled", false)
	v.SetDefault("libreoffice.soffice", "soffice")
	v.SetDefault("libreoffice.pdftoppm", "pdftoppm")
	v.SetDefault("libreoffice.dpi", 96)

	v.SetDefault("goppt.enabled", false)
	v.SetDefault("goppt.width", 1920)

	v.SetDefault("gemini.enabled", false)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.filename", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)
}

// Load reads file (when not empty) into v and decodes the merged settings.
func Load(v *viper.Viper, file string) (Config, error) {
	var cfg Config
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config file failed: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Slides.Duration <= 0 {
		errs = append(errs, fmt.Errorf("slides.duration must be positive, got %v", c.Slides.Duration))
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		errs = append(errs, fmt.Errorf("render size must be positive, got %dx%d", c.Render.Width, c.Render.Height))
	}
	if c.Render.Lighten < 0 || c.Render.Lighten > 1 {
		errs = append(errs, fmt.Errorf("render.lighten must be within [0,1], got %v", c.Render.Lighten))
	}
	if c.Remote.Timeout < 0 {
		errs = append(errs, fmt.Errorf("remote.timeout must not be negative, got %s", c.Remote.Timeout))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %v", err))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if c.Gemini.Enabled && c.Gemini.APIKey == "" {
		errs = append(errs, errors.New("gemini.enabled requires gemini.api_key or GOOGLE_API_KEY"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
