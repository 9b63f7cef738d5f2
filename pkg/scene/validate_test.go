package scene

import (
	"strings"
	"testing"
)

func TestValidate_Clean(t *testing.T) {
	s := New()
	mustAdd(t, s, "a", boxFaces(0, 1, 1, 1))
	if errs := Validate(s); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
	r := ValidateAll(s)
	if !r.OK() || len(r.Warnings) != 0 {
		t.Errorf("expected clean result, got %+v", r)
	}
}

func TestValidate_Structure(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(s *Scene)
		want    string
	}{
		{
			name:    "dangling name",
			corrupt: func(s *Scene) { s.NameIndex["ghost"] = 99 },
			want:    "missing fragment",
		},
		{
			name:    "missing from order",
			corrupt: func(s *Scene) { s.Order = nil },
			want:    "not in the scene order",
		},
		{
			name:    "dangling order",
			corrupt: func(s *Scene) { s.Order = append(s.Order, 42) },
			want:    "missing fragment 42",
		},
		{
			name:    "duplicate order",
			corrupt: func(s *Scene) { s.Order = append(s.Order, s.Order[0]) },
			want:    "more than once",
		},
		{
			name: "mismatched name",
			corrupt: func(s *Scene) {
				id := s.NameIndex["a"]
				s.NameIndex["b"] = id
			},
			want: `indexed as "b"`,
		},
		{
			name:    "no mesh",
			corrupt: func(s *Scene) { s.Lookup("a").Mesh = nil },
			want:    "no mesh",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			mustAdd(t, s, "a", boxFaces(0, 1, 1, 1))
			tt.corrupt(s)
			errs := Validate(s)
			found := false
			for _, e := range errs {
				if strings.Contains(e.Error(), tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an error containing %q, got %v", tt.want, errs)
			}
			if ValidateAll(s).OK() {
				t.Error("expected ValidateAll to report errors")
			}
		})
	}
}

func TestValidateAll_Warnings(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, s *Scene)
		want  string
	}{
		{
			name: "below minimum volume",
			setup: func(t *testing.T, s *Scene) {
				s.Defaults.MinVolume = 2
				mustAdd(t, s, "a", boxFaces(0, 1, 1, 1))
			},
			want: "below the minimum",
		},
		{
			name: "sliver",
			setup: func(t *testing.T, s *Scene) {
				mustAdd(t, s, "a", boxFaces(0, 0.005, 1, 1))
			},
			want: "sliver",
		},
		{
			name: "sliver left by a cut",
			setup: func(t *testing.T, s *Scene) {
				mustAdd(t, s, "a", boxFaces(0, 1, 1, 1))
				if _, err := s.Cut(xPlane(t, 0.005), CutOptions{}); err != nil {
					t.Fatal(err)
				}
			},
			want: "sliver",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			tt.setup(t, s)
			r := ValidateAll(s)
			if !r.OK() {
				t.Fatalf("unexpected errors: %v", r.Errors)
			}
			found := false
			for _, w := range r.Warnings {
				if strings.Contains(w.Message, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected a warning containing %q, got %+v", tt.want, r.Warnings)
			}
		})
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Message: "boom", Severity: SeverityError}
	if got := e.Error(); got != "[error] boom" {
		t.Errorf("Error() = %q", got)
	}
	e = ValidationError{Fragment: 3, Name: "a.1", Message: "boom", Severity: SeverityWarning}
	if got := e.Error(); got != "[warning] fragment a.1: boom" {
		t.Errorf("Error() = %q", got)
	}
	if got := ValidationSeverity(7).String(); got != "ValidationSeverity(7)" {
		t.Errorf("String() = %q", got)
	}
}
