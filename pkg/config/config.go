// Package config loads shatter settings from a JSON file and merges them
// with command-line flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chazu/shatter/pkg/engine"
	"github.com/chazu/shatter/pkg/geom"
	"github.com/chazu/shatter/pkg/preview"
	"github.com/chazu/shatter/pkg/scene"
)

// Config holds the engine tolerances and output settings.
type Config struct {
	// Geometry
	Epsilon         float64 `json:"epsilon"`
	MarginThreshold float64 `json:"margin_threshold"`
	MinVolume       float64 `json:"min_volume"`
	MergeCoplanar   *bool   `json:"merge_coplanar"`
	RemoveColinear  *bool   `json:"remove_colinear"`
	EvalTimeout     string  `json:"eval_timeout"` // time.ParseDuration syntax

	// Output
	OutputDir     string `json:"output_dir"`
	PreviewSize   int    `json:"preview_size"`
	Supersample   int    `json:"supersample"`
	PreviewFormat string `json:"preview_format"`
	WriteSTL      bool   `json:"stl"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	OutputDir string
	Format    string
	Size      int
	Epsilon   float64
	STL       bool
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) error {
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Format != "" {
		c.PreviewFormat = flags.Format
	}
	if flags.Size > 0 {
		c.PreviewSize = flags.Size
	}
	if flags.Epsilon > 0 {
		c.Epsilon = flags.Epsilon
	}
	if flags.STL {
		c.WriteSTL = true
	}

	if c.Epsilon <= 0 {
		c.Epsilon = geom.DefaultEpsilon
	}
	if c.MarginThreshold <= 0 {
		c.MarginThreshold = scene.DefaultMarginThreshold
	}
	if c.MinVolume < 0 {
		c.MinVolume = 0
	}
	if c.MergeCoplanar == nil {
		c.MergeCoplanar = boolPtr(true)
	}
	if c.RemoveColinear == nil {
		c.RemoveColinear = boolPtr(true)
	}
	if c.EvalTimeout == "" {
		c.EvalTimeout = engine.EvalTimeout.String()
	}
	if _, err := time.ParseDuration(c.EvalTimeout); err != nil {
		return fmt.Errorf("config: eval_timeout: %w", err)
	}

	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	c.OutputDir = filepath.Clean(c.OutputDir)
	if c.PreviewSize <= 0 {
		c.PreviewSize = preview.DefaultSize
	}
	if c.Supersample <= 0 {
		c.Supersample = preview.DefaultSupersample
	}
	c.PreviewFormat = strings.ToLower(c.PreviewFormat)
	switch c.PreviewFormat {
	case "":
		c.PreviewFormat = preview.FormatWebP
	case preview.FormatWebP, preview.FormatTGA:
	default:
		return fmt.Errorf("config: unknown preview format %q", c.PreviewFormat)
	}
	return nil
}

// Defaults returns the scene defaults described by c. Call Resolve first.
func (c Config) Defaults() scene.Defaults {
	return scene.Defaults{
		Epsilon:         c.Epsilon,
		MarginThreshold: c.MarginThreshold,
		MinVolume:       c.MinVolume,
		MergeCoplanar:   c.MergeCoplanar == nil || *c.MergeCoplanar,
		RemoveColinear:  c.RemoveColinear == nil || *c.RemoveColinear,
	}
}

// Timeout returns the parsed evaluation timeout, or engine.EvalTimeout
// when unset or malformed.
func (c Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.EvalTimeout)
	if err != nil || d <= 0 {
		return engine.EvalTimeout
	}
	return d
}

// PreviewOptions returns the renderer options described by c.
func (c Config) PreviewOptions() preview.Options {
	return preview.Options{Size: c.PreviewSize, Supersample: c.Supersample}
}

// PreviewPath is where the preview image is written.
func (c Config) PreviewPath() string {
	return filepath.Join(c.OutputDir, "preview."+c.PreviewFormat)
}

func boolPtr(b bool) *bool { return &b }
