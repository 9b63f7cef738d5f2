package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/shatter/pkg/config"
	"github.com/chazu/shatter/pkg/kernel/sdfx"
	"github.com/chazu/shatter/pkg/preview"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	script := flag.String("script", "", "Path to the shatter script to evaluate (default: stdin)")
	outputDir := flag.String("output", "", "Output directory (default: out)")
	format := flag.String("format", "", "Preview format: webp or tga (default: webp)")
	size := flag.Int("size", 0, "Preview size in pixels (default: 512)")
	epsilon := flag.Float64("epsilon", 0, "Vertex merge tolerance (default: 1e-6)")
	stl := flag.Bool("stl", false, "Also write one STL file per fragment")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	err := cfg.Resolve(config.Flags{
		OutputDir: *outputDir,
		Format:    *format,
		Size:      *size,
		Epsilon:   *epsilon,
		STL:       *stl,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	source, err := readScript(*script)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading script: %v\n", err)
		os.Exit(1)
	}

	if err := run(os.Stdout, cfg, string(source)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func readScript(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// run evaluates source, prints the fragment table and writes the outputs
// named by cfg.
func run(w io.Writer, cfg config.Config, source string) error {
	app := NewApp(cfg)
	result := app.Evaluate(source)
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			if e.Line > 0 {
				fmt.Fprintf(w, "error: line %d: %s\n", e.Line, e.Message)
			} else {
				fmt.Fprintf(w, "error: %s\n", e.Message)
			}
		}
		return fmt.Errorf("evaluation failed with %d errors", len(result.Errors))
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "warning: %s: %s\n", warn.Fragment, warn.Message)
	}

	s := result.Scene()
	fmt.Fprintf(w, "%-24s %-10s %12s  %s\n", "FRAGMENT", "COLOR", "VOLUME", "TRIANGLES")
	for _, m := range result.Meshes {
		fmt.Fprintf(w, "%-24s %-10s %12.4f  %d\n", m.PartName, m.Color, m.Volume, len(m.Indices)/3)
	}
	fmt.Fprintf(w, "%d fragments, total volume %.4f, %d cuts\n", s.Len(), s.TotalVolume(), len(s.History))

	img := preview.Render(result.KernelMeshes(), cfg.PreviewOptions())
	path := cfg.PreviewPath()
	if err := preview.WriteFile(path, img, cfg.PreviewFormat); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	fmt.Fprintf(w, "Wrote %s\n", path)

	if !cfg.WriteSTL {
		return nil
	}
	for _, m := range result.KernelMeshes() {
		stlPath := filepath.Join(cfg.OutputDir, stlName(m.PartName))
		if err := sdfx.WriteSTL(stlPath, m); err != nil {
			return fmt.Errorf("write %s: %w", stlPath, err)
		}
		fmt.Fprintf(w, "Wrote %s\n", stlPath)
	}
	return nil
}

// stlName maps a fragment name to a file name.
func stlName(fragment string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", " ", "_")
	return r.Replace(fragment) + ".stl"
}
