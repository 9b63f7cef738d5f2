package main

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// 1. Empty editor: empty string -> 0 meshes, 0 errors.
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	app := DefaultApp()
	result := app.Evaluate("")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected 0 warnings for empty source, got %d", len(result.Warnings))
	}
	// Ensure slices are non-nil (JSON should serialize as [] not null).
	if result.Meshes == nil {
		t.Error("Meshes should be non-nil empty slice, got nil")
	}
	if result.Errors == nil {
		t.Error("Errors should be non-nil empty slice, got nil")
	}
	if result.Warnings == nil {
		t.Error("Warnings should be non-nil empty slice, got nil")
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax errors: unmatched parens -> eval error, 0 meshes.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"second line", "(+ 1 2)\n(defsolid \"test\""},
		{"single line", "(+ 1 2"},
		{"unbalanced cut", "(defsolid \"a\" (box 1 1 1))\n(cut (plane :normal (vec3 1 0 0))"},
	}
	app := DefaultApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := app.Evaluate(tt.source)
			if len(result.Errors) == 0 {
				t.Fatal("expected at least one eval error")
			}
			if len(result.Meshes) != 0 {
				t.Errorf("expected 0 meshes on syntax error, got %d", len(result.Meshes))
			}
			e := result.Errors[0]
			if e.Message == "" {
				t.Error("syntax error should have a non-empty message")
			}
			t.Logf("syntax error: line=%d, col=%d, message=%q", e.Line, e.Col, e.Message)
		})
	}
}

// ---------------------------------------------------------------------------
// 3. Undefined fragment reference: (solid "nonexistent") -> eval error.
// ---------------------------------------------------------------------------

func TestE2EUndefinedFragmentReference(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"solid", `(defsolid "shelf" (box 600 300 18))
(defsolid "copy" (place (solid "nonexistent") :at (vec3 0 0 0)))`},
		{"volume", `(volume "nonexistent")`},
		{"cut only", `(defsolid "shelf" (box 600 300 18))
(cut (plane :normal (vec3 1 0 0)) :only "nonexistent")`},
	}
	app := DefaultApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := app.Evaluate(tt.source)
			if len(result.Errors) == 0 {
				t.Fatal("expected eval error for undefined fragment")
			}
			found := false
			for _, e := range result.Errors {
				if strings.Contains(e.Message, "nonexistent") {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected error mentioning 'nonexistent', got: %v", result.Errors)
			}
			if len(result.Meshes) != 0 {
				t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
			}
		})
	}
}

// ---------------------------------------------------------------------------
// 4. Bad dimensions -> eval error.
// ---------------------------------------------------------------------------

func TestE2EBadDimensions(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"zero width", `(defsolid "flat" (box 600 0 18))`},
		{"all zero", `(defsolid "none" (box 0 0 0))`},
		{"negative", `(defsolid "neg" (box -100 300 18))`},
		{"zero radius", `(defsolid "rod" (cylinder :height 10 :radius 0))`},
		{"flat hull", `(defsolid "h" (hull (vec3 0 0 0) (vec3 1 0 0) (vec3 0 1 0) (vec3 1 1 0)))`},
	}
	app := DefaultApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := app.Evaluate(tt.source)
			if len(result.Errors) == 0 {
				t.Error("expected eval error")
			}
			if len(result.Meshes) != 0 {
				t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
			}
		})
	}
}

// ---------------------------------------------------------------------------
// 5. Rapid re-evaluation on one App.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	// Simulates debounce: rapid sequential calls to Evaluate on the same App.
	// Calls are sequential because zygomys has internal global state that is
	// not safe for concurrent sandbox creation.
	app := DefaultApp()

	sources := []string{
		`(defsolid "a" (box 100 50 10))`,
		`(defsolid "b" (box 200 100 20)) (cut (plane :normal (vec3 0 1 0) :point (vec3 0 50 0)))`,
		`(+ 1 2)`,
		``,
		`(defsolid "c" (cylinder :height 30 :radius 15))`,
		`(defsolid "d" (box 400 200 18)) (random-cuts 3 :seed 2 :spread 50)`,
		`(+ 100 200)`,
		``,
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked: %v", i, r)
				}
			}()
			result := app.Evaluate(source)
			if len(result.Errors) > 0 {
				t.Errorf("iteration %d: unexpected errors %v", i, result.Errors)
			}
		}()
	}
}

// ---------------------------------------------------------------------------
// 6. Large coordinates keep volume after a cut.
// ---------------------------------------------------------------------------

func TestE2ELargeDimensions(t *testing.T) {
	app := DefaultApp()
	source := `
(defsolid "big" (place (box 10000 5000 200) :at (vec3 100000 0 0)))
(cut (plane :point (vec3 103000 0 0) :normal (vec3 1 0 0)))
`
	result := app.Evaluate(source)
	requireNoErrors(t, result)

	if len(result.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(result.Meshes))
	}
	want := 10000.0 * 5000 * 200
	if got := totalVolume(result); math.Abs(got-want) > 1e-6*want {
		t.Errorf("total volume %v, want %v", got, want)
	}
}

// ---------------------------------------------------------------------------
// 7. Plane that misses every fragment leaves the scene unchanged.
// ---------------------------------------------------------------------------

func TestE2EPlaneMisses(t *testing.T) {
	app := DefaultApp()
	source := `
(defsolid "a" (box 1 1 1))
(def created (cut (plane :point (vec3 5 0 0) :normal (vec3 1 0 0))))
`
	result := app.Evaluate(source)
	requireNoErrors(t, result)

	if len(result.Meshes) != 1 || result.Meshes[0].PartName != "a" {
		t.Errorf("expected the untouched fragment a, got %d meshes", len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 8. Comments and whitespace only.
// ---------------------------------------------------------------------------

func TestE2ECommentsAndWhitespace(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"comments", "; just a comment\n;; another one\n"},
		{"indented comments", "\n  ;; leading whitespace\n  ; tabs\teverywhere\n"},
		{"whitespace", "   \n\t\n   "},
	}
	app := DefaultApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := app.Evaluate(tt.source)
			if len(result.Errors) > 0 {
				t.Errorf("unexpected errors: %v", result.Errors)
			}
			if len(result.Meshes) != 0 {
				t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
			}
		})
	}
}

// ---------------------------------------------------------------------------
// 9. Arithmetic in definitions.
// ---------------------------------------------------------------------------

func TestE2ENestedArithmeticDef(t *testing.T) {
	app := DefaultApp()

	source := `
(def w (* 2 150))
(def half (/ w 2))
(defsolid "wide-shelf" (box w 200 18))
(cut (plane :point (vec3 half 0 0) :normal (vec3 1 0 0)))
`
	result := app.Evaluate(source)
	requireNoErrors(t, result)

	if len(result.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(result.Meshes))
	}
	for _, m := range result.Meshes {
		if !strings.HasPrefix(m.PartName, "wide-shelf.") {
			t.Errorf("unexpected part name %q", m.PartName)
		}
		if math.Abs(m.Volume-150*200*18) > 1e-3 {
			t.Errorf("part %q volume %v", m.PartName, m.Volume)
		}
	}
}

// ---------------------------------------------------------------------------
// 10. Structural mistakes in defsolid.
// ---------------------------------------------------------------------------

func TestE2EDefsolidMistakes(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"missing body", `(defsolid "empty")`},
		{"not a solid", `(defsolid "num" 42)`},
		{"duplicate name", `(defsolid "a" (box 1 1 1)) (defsolid "a" (box 2 2 2))`},
	}
	app := DefaultApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := app.Evaluate(tt.source)
			if len(result.Errors) == 0 {
				t.Error("expected eval error")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// 11. Palette wraps when there are more fragments than colors.
// ---------------------------------------------------------------------------

func TestE2EColorPaletteWrapping(t *testing.T) {
	app := DefaultApp()

	var b strings.Builder
	for i := range 9 {
		fmt.Fprintf(&b, "(defsolid \"p%d\" (place (box 100 50 10) :at (vec3 %d 0 0)))\n", i+1, i*110)
	}
	result := app.Evaluate(b.String())
	requireNoErrors(t, result)

	if len(result.Meshes) != 9 {
		t.Fatalf("expected 9 meshes, got %d", len(result.Meshes))
	}
	if result.Meshes[0].Color != result.Meshes[8].Color {
		t.Errorf("palette should wrap: %s vs %s", result.Meshes[0].Color, result.Meshes[8].Color)
	}
	for _, m := range result.Meshes {
		if m.Color == "" {
			t.Errorf("mesh %q should have a color assigned", m.PartName)
		}
	}
}
