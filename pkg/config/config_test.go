package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/shatter/pkg/engine"
	"github.com/chazu/shatter/pkg/geom"
	"github.com/chazu/shatter/pkg/preview"
	"github.com/chazu/shatter/pkg/scene"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shatter.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"epsilon": 1e-5,
		"min_volume": 0.25,
		"merge_coplanar": false,
		"eval_timeout": "2s",
		"preview_format": "tga",
		"stl": true
	}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Epsilon != 1e-5 || cfg.MinVolume != 0.25 || !cfg.WriteSTL {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.MergeCoplanar == nil || *cfg.MergeCoplanar {
		t.Error("merge_coplanar should be an explicit false")
	}
	if cfg.RemoveColinear != nil {
		t.Error("remove_colinear should be unset")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }},
		{"bad json", func(t *testing.T) string { return writeConfig(t, `{"epsilon":`) }},
		{"wrong type", func(t *testing.T) string { return writeConfig(t, `{"epsilon":"small"}`) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path(t)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResolveDefaults(t *testing.T) {
	var cfg Config
	if err := cfg.Resolve(Flags{}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	d := cfg.Defaults()
	want := scene.Defaults{
		Epsilon:         geom.DefaultEpsilon,
		MarginThreshold: scene.DefaultMarginThreshold,
		MergeCoplanar:   true,
		RemoveColinear:  true,
	}
	if d != want {
		t.Errorf("Defaults() = %+v, want %+v", d, want)
	}
	if cfg.Timeout() != engine.EvalTimeout {
		t.Errorf("Timeout() = %v", cfg.Timeout())
	}
	if cfg.PreviewSize != preview.DefaultSize || cfg.Supersample != preview.DefaultSupersample {
		t.Errorf("preview defaults %d/%d", cfg.PreviewSize, cfg.Supersample)
	}
	if got := cfg.PreviewPath(); got != filepath.Join("out", "preview.webp") {
		t.Errorf("PreviewPath() = %s", got)
	}
}

func TestResolveFlagsOverride(t *testing.T) {
	cfg := Config{OutputDir: "from-file", PreviewFormat: "webp", PreviewSize: 128, Epsilon: 1e-4}
	err := cfg.Resolve(Flags{OutputDir: "from-flag", Format: "TGA", Size: 64, STL: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.OutputDir != "from-flag" || cfg.PreviewFormat != preview.FormatTGA || cfg.PreviewSize != 64 {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Epsilon != 1e-4 {
		t.Errorf("zero flag epsilon should keep file value, got %v", cfg.Epsilon)
	}
	if !cfg.WriteSTL {
		t.Error("stl flag not applied")
	}
}

func TestResolveKeepsExplicitFalse(t *testing.T) {
	f := false
	cfg := Config{RemoveColinear: &f, EvalTimeout: "250ms"}
	if err := cfg.Resolve(Flags{}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	d := cfg.Defaults()
	if d.RemoveColinear || !d.MergeCoplanar {
		t.Errorf("Defaults() = %+v", d)
	}
	if cfg.Timeout() != 250*time.Millisecond {
		t.Errorf("Timeout() = %v", cfg.Timeout())
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad timeout", Config{EvalTimeout: "soon"}},
		{"bad format", Config{PreviewFormat: "gif"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Resolve(Flags{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
