// Package config loads conversion profiles.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/sumo-czml/core"
	"github.com/signalsfoundry/sumo-czml/model"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Document variants.
const (
	ModePoints = "points"
	ModeModels = "models"
)

// DefaultStart is the document epoch used when none is configured.
var DefaultStart = time.Date(2023, time.June, 26, 12, 0, 0, 0, time.UTC)

// DefaultCurrentOffset positions the playback clock three minutes in.
const DefaultCurrentOffset = 180 * time.Second

// Config is the converter profile, loaded from YAML and overridden by flags.
type Config struct {
	Document   DocumentConfig   `yaml:"document"`
	Input      InputConfig      `yaml:"input"`
	Appearance AppearanceConfig `yaml:"appearance"`
	Workers    int              `yaml:"workers"`
}

// DocumentConfig selects the document variant, its frame and its clock.
type DocumentConfig struct {
	Name          string        `yaml:"name"`
	Mode          string        `yaml:"mode"`
	Frame         string        `yaml:"frame"`
	Start         time.Time     `yaml:"start"`
	CurrentOffset time.Duration `yaml:"current_offset"`
	Multiplier    float64       `yaml:"multiplier"`
}

// InputConfig describes how the FCD export is read.
type InputConfig struct {
	Delimiter string `yaml:"delimiter"`
	// Types restricts the models variant to these vehicle classes.
	Types []string `yaml:"types"`
}

// AppearanceConfig overrides per-class colors and glTF links and sizes the
// point graphics.
type AppearanceConfig struct {
	Colors            map[string][]int  `yaml:"colors"`
	Models            map[string]string `yaml:"models"`
	PointPixelSize    float64           `yaml:"point_pixel_size"`
	PointOutlineWidth float64           `yaml:"point_outline_width"`
}

// Default returns the built-in profile.
func Default() Config {
	return Config{
		Document: DocumentConfig{
			Mode:          ModePoints,
			Frame:         string(core.FrameCartographic),
			Start:         DefaultStart,
			CurrentOffset: DefaultCurrentOffset,
			Multiplier:    1,
		},
		Input: InputConfig{
			Delimiter: ",",
			Types:     append([]string(nil), model.DefaultModelTypes...),
		},
		Appearance: AppearanceConfig{
			PointPixelSize:    10,
			PointOutlineWidth: 2,
		},
		Workers: runtime.NumCPU(),
	}
}

// Load reads a YAML profile from path on top of Default and validates it.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML profile on top of Default and validates it. Keys
// absent from the profile keep their default values.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate normalises enum fields and checks value ranges.
func (c *Config) Validate() error {
	c.Document.Mode = strings.ToLower(strings.TrimSpace(c.Document.Mode))
	switch c.Document.Mode {
	case "":
		c.Document.Mode = ModePoints
	case ModePoints, ModeModels:
	default:
		return fmt.Errorf("%w: document.mode must be %q or %q, got %q", ErrInvalid, ModePoints, ModeModels, c.Document.Mode)
	}

	if _, err := core.NewPositionModel(c.Document.Frame); err != nil {
		return fmt.Errorf("%w: document.frame: %v", ErrInvalid, err)
	}
	if c.Document.Start.IsZero() {
		return fmt.Errorf("%w: document.start is required", ErrInvalid)
	}
	if c.Document.CurrentOffset < 0 {
		return fmt.Errorf("%w: document.current_offset must not be negative", ErrInvalid)
	}
	if c.Document.Multiplier <= 0 {
		return fmt.Errorf("%w: document.multiplier must be positive", ErrInvalid)
	}

	if utf8.RuneCountInString(c.Input.Delimiter) != 1 {
		return fmt.Errorf("%w: input.delimiter must be a single character, got %q", ErrInvalid, c.Input.Delimiter)
	}
	if d := c.Delimiter(); d == '"' || d == '\r' || d == '\n' || d == utf8.RuneError {
		return fmt.Errorf("%w: input.delimiter %q is not usable", ErrInvalid, c.Input.Delimiter)
	}

	for class, rgba := range c.Appearance.Colors {
		if _, err := colorFrom(rgba); err != nil {
			return fmt.Errorf("%w: appearance.colors.%s: %v", ErrInvalid, class, err)
		}
	}
	for class, uri := range c.Appearance.Models {
		if strings.TrimSpace(uri) == "" {
			return fmt.Errorf("%w: appearance.models.%s is empty", ErrInvalid, class)
		}
	}
	if c.Appearance.PointPixelSize <= 0 || c.Appearance.PointOutlineWidth < 0 {
		return fmt.Errorf("%w: point sizes must be positive", ErrInvalid)
	}

	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalid)
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	return nil
}

// Delimiter returns the configured field separator.
func (c Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Input.Delimiter)
	return r
}

// AppearanceTable converts the overrides into the model's lookup table.
// It assumes Validate has run: colors without 3 or 4 components in 0-255
// are dropped silently.
func (c Config) AppearanceTable() model.Appearance {
	a := model.Appearance{
		Colors: make(map[string]model.Color, len(c.Appearance.Colors)),
		Models: make(map[string]string, len(c.Appearance.Models)),
	}
	for class, rgba := range c.Appearance.Colors {
		col, err := colorFrom(rgba)
		if err != nil {
			continue
		}
		a.Colors[class] = col
	}
	for class, uri := range c.Appearance.Models {
		a.Models[class] = uri
	}
	return a
}

func colorFrom(rgba []int) (model.Color, error) {
	if len(rgba) != 3 && len(rgba) != 4 {
		return model.Color{}, fmt.Errorf("want 3 or 4 components, got %d", len(rgba))
	}
	var out [4]uint8
	out[3] = 255
	for i, v := range rgba {
		if v < 0 || v > 255 {
			return model.Color{}, fmt.Errorf("component %d out of range: %d", i, v)
		}
		out[i] = uint8(v)
	}
	return model.Color{R: out[0], G: out[1], B: out[2], A: out[3]}, nil
}
