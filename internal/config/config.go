// Package config loads the moon page settings from YAML. Command-line flags
// are applied on top by cmd/moon.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/moon/internal/moon"
	"github.com/taigrr/moon/pkg/render"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config is the full set of settings.
type Config struct {
	FPS                 int               `yaml:"fps"`
	PixelRatio          float64           `yaml:"pixel_ratio"`
	TextureURL          string            `yaml:"texture_url"`
	AssetBase           string            `yaml:"asset_base"`
	Assets              map[string]string `yaml:"assets,omitempty"`
	ResizeDebounce      time.Duration     `yaml:"resize_debounce"`
	VisibilityThreshold float64           `yaml:"visibility_threshold"`
	RotationSpeed       float64           `yaml:"rotation_speed"`
	MaxTextureSize      int               `yaml:"max_texture_size"`
	Log                 Log               `yaml:"log"`
}

// Log configures the file logger. The terminal owns stdout, so logs never
// go there.
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the stock settings.
func Default() Config {
	mc := moon.DefaultConfig()
	return Config{
		FPS:                 60,
		PixelRatio:          2,
		TextureURL:          mc.TextureURL,
		AssetBase:           ".",
		ResizeDebounce:      mc.ResizeDebounce,
		VisibilityThreshold: mc.VisibilityThreshold,
		RotationSpeed:       mc.RotationSpeed,
		MaxTextureSize:      render.DefaultMaxTextureSize,
		Log: Log{
			Level: "info",
			File:  "moon.log",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := Decode(f, &cfg); err != nil {
		return cfg, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML from r into cfg and validates the result. Keys missing
// from the document keep their current values.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return cfg.Validate()
}

// Encode writes cfg as YAML.
func (c Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// Validate reports every out-of-range field.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.FPS <= 0 || c.FPS > 240 {
		bad("fps %d not in 1..240", c.FPS)
	}
	if c.PixelRatio <= 0 {
		bad("pixel_ratio %v must be positive", c.PixelRatio)
	}
	if c.TextureURL == "" {
		bad("texture_url is empty")
	}
	if c.ResizeDebounce < 0 {
		bad("resize_debounce %v is negative", c.ResizeDebounce)
	}
	if c.VisibilityThreshold < 0 || c.VisibilityThreshold > 1 {
		bad("visibility_threshold %v not in 0..1", c.VisibilityThreshold)
	}
	if c.MaxTextureSize < 0 {
		bad("max_texture_size %d is negative", c.MaxTextureSize)
	}
	if _, err := c.LogLevel(); err != nil {
		bad("log.level: %v", err)
	}
	return errors.Join(errs...)
}

// LogLevel parses Log.Level.
func (c Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return lvl, nil
}

// Moon returns the settings for moon.Start.
func (c Config) Moon() moon.Config {
	mc := moon.DefaultConfig()
	mc.TextureURL = c.TextureURL
	mc.RotationSpeed = c.RotationSpeed
	mc.ResizeDebounce = c.ResizeDebounce
	mc.VisibilityThreshold = c.VisibilityThreshold
	return mc
}
