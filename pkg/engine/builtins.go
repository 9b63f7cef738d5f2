package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/shatter/pkg/dcel"
	"github.com/chazu/shatter/pkg/geom"
	"github.com/chazu/shatter/pkg/kernel"
	"github.com/chazu/shatter/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// Defaults for builtins whose arguments are optional.
const (
	defaultSegments = 16
	defaultSpread   = 0.5
	defaultSeed     = 1
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a point or direction.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps a kernel solid that has not been added to the scene yet.
type sexpSolid struct {
	solid kernel.Solid
	desc  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s)", s.desc)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpFragment refers to a live scene fragment by name.
type sexpFragment struct {
	name string
}

func (f *sexpFragment) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(solid %q)", f.name)
}
func (f *sexpFragment) Type() *zygo.RegisteredType { return nil }

// sexpPlane wraps a cutting plane.
type sexpPlane struct {
	plane geom.Plane
}

func (p *sexpPlane) SexpString(ps *zygo.PrintState) string {
	return "(" + p.plane.String() + ")"
}
func (p *sexpPlane) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// float returns the keyword argument key as a number, or def when absent.
func (a kwArgs) float(key string, def float64) (float64, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// vec returns the keyword argument key as a vec3.
func (a kwArgs) vec(key string) (v3.Vec, bool, error) {
	v, ok := a.kw[key]
	if !ok {
		return v3.Vec{}, false, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return v3.Vec{}, false, fmt.Errorf("%s: %w", key, err)
	}
	return vec, true, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a vector from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toSolid extracts an unplaced solid from a sexpSolid.
func toSolid(s zygo.Sexp) (*sexpSolid, error) {
	if sol, ok := s.(*sexpSolid); ok {
		return sol, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toPlane extracts a plane from a sexpPlane.
func toPlane(s zygo.Sexp) (geom.Plane, error) {
	if p, ok := s.(*sexpPlane); ok {
		return p.plane, nil
	}
	return geom.Plane{}, fmt.Errorf("expected plane, got %T (%s)", s, s.SexpString(nil))
}

// toFragmentName accepts a fragment reference or a plain name.
func toFragmentName(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *sexpFragment:
		return v.name, nil
	case *zygo.SexpStr:
		return v.S, nil
	}
	return "", fmt.Errorf("expected fragment or name, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// stringList builds a Lisp list of strings.
func stringList(items []string) zygo.Sexp {
	out := make([]zygo.Sexp, len(items))
	for i, s := range items {
		out[i] = &zygo.SexpStr{S: s}
	}
	return zygo.MakeList(out)
}

// fragmentNames returns the names of the given fragment IDs.
func fragmentNames(s *scene.Scene, ids []scene.FragmentID) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if f := s.Get(id); f != nil {
			names = append(names, f.Name)
		}
	}
	return names
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the shatter builtins into a zygomys environment.
// Solids are built with k; defsolid, cut and the other scene builtins
// operate on s during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *scene.Scene, k kernel.Kernel) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (box 4 1 1) or (box :size (vec3 4 1 1))
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var size v3.Vec
		switch {
		case len(pa.positional) == 3:
			var c [3]float64
			for i, a := range pa.positional {
				f, err := toFloat64(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("box: dimension %d: %w", i+1, err)
				}
				c[i] = f
			}
			size = v3.Vec{X: c[0], Y: c[1], Z: c[2]}
		default:
			v, ok, err := pa.vec("size")
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: %w", err)
			}
			if !ok {
				return zygo.SexpNull, fmt.Errorf("box requires three dimensions or :size")
			}
			size = v
		}
		if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
			return zygo.SexpNull, fmt.Errorf("box: dimensions must be positive, got %g x %g x %g", size.X, size.Y, size.Z)
		}
		return &sexpSolid{
			solid: k.Box(size.X, size.Y, size.Z),
			desc:  fmt.Sprintf("box %g %g %g", size.X, size.Y, size.Z),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :height 2 :radius 0.5 :segments 24)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		height, err := pa.float("height", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		radius, err := pa.float("radius", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		segments, err := pa.float("segments", defaultSegments)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		if height <= 0 || radius <= 0 {
			return zygo.SexpNull, fmt.Errorf("cylinder: :height and :radius must be positive")
		}
		if segments < 3 {
			return zygo.SexpNull, fmt.Errorf("cylinder: :segments must be at least 3, got %g", segments)
		}
		return &sexpSolid{
			solid: k.Cylinder(height, radius, int(segments)),
			desc:  fmt.Sprintf("cylinder %g %g", height, radius),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (hull (vec3 0 0 0) (vec3 1 0 0) ...) or (hull (list ...))
	// -----------------------------------------------------------------------
	env.AddFunction("hull", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		items := args
		if len(args) == 1 {
			list, err := sexpListToSlice(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("hull: %w", err)
			}
			items = list
		}
		points := make([]v3.Vec, 0, len(items))
		for i, item := range items {
			p, err := toVec3(item)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("hull: point %d: %w", i+1, err)
			}
			points = append(points, p)
		}
		solid, err := k.Hull(points)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("hull: %w", err)
		}
		return &sexpSolid{solid: solid, desc: fmt.Sprintf("hull of %d points", len(points))}, nil
	})

	// -----------------------------------------------------------------------
	// (place (box 1 1 1) :at (vec3 0 0 2) :rotate (vec3 0 0 45))
	// Rotation (degrees) is applied before translation.
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a solid as first argument")
		}
		src, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}
		solid := src.solid
		if rot, ok, err := pa.vec("rotate"); err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		} else if ok {
			solid = k.Rotate(solid, rot.X, rot.Y, rot.Z)
		}
		if at, ok, err := pa.vec("at"); err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		} else if ok {
			solid = k.Translate(solid, at.X, at.Y, at.Z)
		}
		return &sexpSolid{solid: solid, desc: "placed " + src.desc}, nil
	})

	// -----------------------------------------------------------------------
	// (defsolid "name" (box ...))
	// -----------------------------------------------------------------------
	env.AddFunction("defsolid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("defsolid requires a name and a solid expression")
		}
		solidName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: name: %w", err)
		}
		src, err := toSolid(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: %w", err)
		}
		faces := src.solid.Faces()
		mf := make([]dcel.Face, len(faces))
		for i, f := range faces {
			mf[i] = dcel.Face(f)
		}
		if _, err := s.AddSolid(solidName, mf); err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: %w", err)
		}
		return &sexpFragment{name: solidName}, nil
	})

	// -----------------------------------------------------------------------
	// (solid "name")
	// -----------------------------------------------------------------------
	env.AddFunction("solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("solid requires a name argument")
		}
		fragName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: name: %w", err)
		}
		if s.Lookup(fragName) == nil {
			return zygo.SexpNull, fmt.Errorf("solid: no fragment named %q", fragName)
		}
		return &sexpFragment{name: fragName}, nil
	})

	// -----------------------------------------------------------------------
	// (plane :point (vec3 0.5 0 0) :normal (vec3 1 0 0))
	// (plane (vec3 0.5 0 0) (vec3 1 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var point, normal v3.Vec
		if len(pa.positional) == 2 {
			var err error
			if point, err = toVec3(pa.positional[0]); err != nil {
				return zygo.SexpNull, fmt.Errorf("plane: point: %w", err)
			}
			if normal, err = toVec3(pa.positional[1]); err != nil {
				return zygo.SexpNull, fmt.Errorf("plane: normal: %w", err)
			}
		} else {
			var ok bool
			var err error
			if point, _, err = pa.vec("point"); err != nil {
				return zygo.SexpNull, fmt.Errorf("plane: %w", err)
			}
			if normal, ok, err = pa.vec("normal"); err != nil {
				return zygo.SexpNull, fmt.Errorf("plane: %w", err)
			} else if !ok {
				return zygo.SexpNull, fmt.Errorf("plane requires :normal")
			}
		}
		p, err := geom.NewPlane(point, normal, s.Defaults.Epsilon)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plane: %w", err)
		}
		return &sexpPlane{plane: p}, nil
	})

	// -----------------------------------------------------------------------
	// (cut plane :margin 0.01 :only (list "a" (solid "b")))
	// Returns the names of the fragments the cut created.
	// -----------------------------------------------------------------------
	env.AddFunction("cut", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("cut requires a plane")
		}
		p, err := toPlane(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cut: %w", err)
		}
		var opts scene.CutOptions
		if opts.Margin, err = pa.float("margin", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("cut: %w", err)
		}
		if v, ok := pa.kw["only"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				// A single fragment is allowed in place of a list.
				items = []zygo.Sexp{v}
			}
			for _, item := range items {
				n, err := toFragmentName(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("cut: only: %w", err)
				}
				opts.Only = append(opts.Only, n)
			}
		}
		report, err := s.Cut(p, opts)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cut: %w", err)
		}
		return stringList(fragmentNames(s, report.Created)), nil
	})

	// -----------------------------------------------------------------------
	// (random-cuts 5 :seed 7 :spread 0.5)
	// Returns the number of fragments afterwards.
	// -----------------------------------------------------------------------
	env.AddFunction("random_cuts", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("random-cuts requires a count")
		}
		n, err := toFloat64(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("random-cuts: count: %w", err)
		}
		if n < 0 {
			return zygo.SexpNull, fmt.Errorf("random-cuts: count must not be negative")
		}
		seed, err := pa.float("seed", defaultSeed)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("random-cuts: %w", err)
		}
		spread, err := pa.float("spread", defaultSpread)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("random-cuts: %w", err)
		}
		if _, err := s.RandomCuts(int(n), int64(seed), spread); err != nil {
			return zygo.SexpNull, fmt.Errorf("random-cuts: %w", err)
		}
		return &zygo.SexpInt{Val: int64(s.Len())}, nil
	})

	// -----------------------------------------------------------------------
	// (discard-below 0.01)
	// Returns the names of the discarded fragments.
	// -----------------------------------------------------------------------
	env.AddFunction("discard_below", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("discard-below requires a volume")
		}
		limit, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("discard-below: %w", err)
		}
		return stringList(s.DiscardBelow(limit)), nil
	})

	// -----------------------------------------------------------------------
	// (fragments)
	// -----------------------------------------------------------------------
	env.AddFunction("fragments", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		frags := s.Fragments()
		names := make([]string, len(frags))
		for i, f := range frags {
			names[i] = f.Name
		}
		return stringList(names), nil
	})

	// -----------------------------------------------------------------------
	// (volume) or (volume "name") or (volume (solid "name"))
	// -----------------------------------------------------------------------
	env.AddFunction("volume", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 0 {
			return &zygo.SexpFloat{Val: s.TotalVolume()}, nil
		}
		fragName, err := toFragmentName(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("volume: %w", err)
		}
		f := s.Lookup(fragName)
		if f == nil {
			return zygo.SexpNull, fmt.Errorf("volume: no fragment named %q", fragName)
		}
		return &zygo.SexpFloat{Val: f.Volume()}, nil
	})

	// -----------------------------------------------------------------------
	// (set-epsilon 1e-5)
	// Must come before the first defsolid.
	// -----------------------------------------------------------------------
	env.AddFunction("set_epsilon", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("set-epsilon requires a value")
		}
		eps, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("set-epsilon: %w", err)
		}
		if eps <= 0 {
			return zygo.SexpNull, fmt.Errorf("set-epsilon: epsilon must be positive, got %g", eps)
		}
		if s.Len() > 0 {
			return zygo.SexpNull, fmt.Errorf("set-epsilon must come before any defsolid")
		}
		s.Defaults.Epsilon = eps
		return &zygo.SexpFloat{Val: eps}, nil
	})
}
