package scene

import (
	"fmt"

	"github.com/chazu/shatter/pkg/geom"
)

// SliverRatio is the smallest-to-largest bounding box extent ratio under
// which a fragment is reported as a sliver.
const SliverRatio = 1e-2

// ValidationSeverity indicates whether a validation finding blocks further
// cuts or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks further cuts
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Fragment FragmentID         // which fragment has the problem (zero if scene-level)
	Name     string             // fragment name, if known
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Fragment == 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] fragment %s: %s", e.Severity, e.Name, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	Fragment FragmentID
	Name     string
	Message  string
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the structural checks on the scene and every fragment's
// mesh. An empty slice means the scene is valid. Validate never mutates the
// scene.
func Validate(s *Scene) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateOrder(s)...)
	errs = append(errs, validateNames(s)...)
	errs = append(errs, validateMeshes(s)...)
	return errs
}

// ValidateAll runs the structural checks and the geometric advisories.
func ValidateAll(s *Scene) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(s) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Fragment: e.Fragment,
				Name:     e.Name,
				Message:  e.Message,
			})
			continue
		}
		result.Errors = append(result.Errors, e)
	}
	result.Warnings = append(result.Warnings, validateGeometry(s)...)
	return result
}

// validateOrder checks that Order and Pieces hold the same fragments.
func validateOrder(s *Scene) []ValidationError {
	var errs []ValidationError
	seen := make(map[FragmentID]bool, len(s.Order))
	for _, id := range s.Order {
		if seen[id] {
			errs = append(errs, ValidationError{
				Fragment: id,
				Message:  fmt.Sprintf("fragment %d appears more than once in the scene order", id),
				Severity: SeverityError,
			})
			continue
		}
		seen[id] = true
		if _, ok := s.Pieces[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("scene order references missing fragment %d", id),
				Severity: SeverityError,
			})
		}
	}
	for id, f := range s.Pieces {
		if !seen[id] {
			errs = append(errs, ValidationError{
				Fragment: id,
				Name:     f.Name,
				Message:  "fragment is not in the scene order",
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateNames checks that the name index and the fragments agree.
func validateNames(s *Scene) []ValidationError {
	var errs []ValidationError
	for name, id := range s.NameIndex {
		f, ok := s.Pieces[id]
		if !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name %q references missing fragment %d", name, id),
				Severity: SeverityError,
			})
			continue
		}
		if f.Name != name {
			errs = append(errs, ValidationError{
				Fragment: id,
				Name:     f.Name,
				Message:  fmt.Sprintf("indexed as %q", name),
				Severity: SeverityError,
			})
		}
	}
	for id, f := range s.Pieces {
		if f.Name == "" {
			errs = append(errs, ValidationError{
				Fragment: id,
				Message:  "fragment has no name",
				Severity: SeverityWarning,
			})
			continue
		}
		if s.NameIndex[f.Name] != id {
			errs = append(errs, ValidationError{
				Fragment: id,
				Name:     f.Name,
				Message:  "fragment name is not indexed",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validateMeshes runs the half-edge invariant check on every fragment.
func validateMeshes(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, f := range s.Fragments() {
		if f.Mesh == nil {
			errs = append(errs, ValidationError{
				Fragment: f.ID,
				Name:     f.Name,
				Message:  "fragment has no mesh",
				Severity: SeverityError,
			})
			continue
		}
		for _, v := range f.Mesh.Check() {
			errs = append(errs, ValidationError{
				Fragment: f.ID,
				Name:     f.Name,
				Message:  v.Error(),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateGeometry reports degenerate, tiny and sliver fragments.
func validateGeometry(s *Scene) []ValidationWarning {
	var warnings []ValidationWarning
	for _, f := range s.Fragments() {
		if f.Mesh == nil {
			continue
		}
		mass := f.Mesh.Mass()
		if mass.Degenerate {
			warnings = append(warnings, ValidationWarning{
				Fragment: f.ID,
				Name:     f.Name,
				Message:  fmt.Sprintf("volume %.3g is too small to locate a center of mass", mass.Volume),
			})
			continue
		}
		if s.Defaults.MinVolume > 0 && mass.Volume < s.Defaults.MinVolume {
			warnings = append(warnings, ValidationWarning{
				Fragment: f.ID,
				Name:     f.Name,
				Message:  fmt.Sprintf("volume %.4g is below the minimum %.4g", mass.Volume, s.Defaults.MinVolume),
			})
		}
		bb := geom.Bounds(f.Mesh.Vertices())
		size := bb.Size()
		lo := min(size.X, size.Y, size.Z)
		hi := max(size.X, size.Y, size.Z)
		if hi > 0 && lo/hi < SliverRatio {
			warnings = append(warnings, ValidationWarning{
				Fragment: f.ID,
				Name:     f.Name,
				Message:  fmt.Sprintf("sliver: thinnest extent %.3g is under %g of the largest %.3g", lo, SliverRatio, hi),
			})
		}
	}
	return warnings
}
