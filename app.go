package main

import (
	"log"

	"github.com/chazu/shatter/pkg/config"
	"github.com/chazu/shatter/pkg/engine"
	"github.com/chazu/shatter/pkg/kernel"
	"github.com/chazu/shatter/pkg/preview"
	"github.com/chazu/shatter/pkg/scene"
	"github.com/chazu/shatter/pkg/tessellate"
)

// App evaluates shatter scripts into renderable fragment meshes.
type App struct {
	engine *engine.Engine
	cfg    config.Config
}

// MeshData is the JSON-serializable mesh format for one fragment.
type MeshData struct {
	Vertices []float32  `json:"vertices"`
	Normals  []float32  `json:"normals"`
	Indices  []uint32   `json:"indices"`
	PartName string     `json:"partName"`
	Color    string     `json:"color"`
	Offset   [3]float32 `json:"offset"`
	Volume   float64    `json:"volume"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	Message  string `json:"message"`
	Fragment string `json:"fragment,omitempty"`
}

// EvalResult is the full result of one evaluation.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`

	scene  *scene.Scene
	meshes []*kernel.Mesh
}

// Scene returns the evaluated scene, or nil if evaluation failed.
func (r EvalResult) Scene() *scene.Scene { return r.scene }

// KernelMeshes returns the tessellated meshes in fragment order.
func (r EvalResult) KernelMeshes() []*kernel.Mesh { return r.meshes }

// NewApp creates a new App whose engine uses the tolerances in cfg.
// cfg should already be resolved.
func NewApp(cfg config.Config) *App {
	e := engine.NewEngine()
	e.Defaults = cfg.Defaults()
	e.Timeout = cfg.Timeout()
	return &App{engine: e, cfg: cfg}
}

// DefaultApp creates an App with default settings.
func DefaultApp() *App {
	var cfg config.Config
	if err := cfg.Resolve(config.Flags{}); err != nil {
		log.Printf("config defaults: %v", err)
	}
	return NewApp(cfg)
}

// Evaluate takes Lisp source and returns mesh data + errors.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a scene.
	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 3: Validate. Structural problems are errors, geometry is a warning.
	vr := scene.ValidateAll(s)
	for _, e := range vr.Errors {
		result.Errors = append(result.Errors, EvalErrorData{Message: e.Error(), Fragment: e.Name})
	}
	for _, w := range vr.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.Message, Fragment: w.Name})
	}
	if len(result.Errors) > 0 {
		log.Printf("scene validation failed with %d errors", len(result.Errors))
		return result
	}

	// Step 4: Tessellate every fragment into a triangle mesh.
	meshes, err := tessellate.Tessellate(s)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	// Step 5: Convert kernel meshes to MeshData.
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    preview.Hex(preview.ColorFor(i)),
			Offset:   m.Offset,
			Volume:   m.Volume,
		})
	}
	result.scene = s
	result.meshes = meshes

	return result
}
