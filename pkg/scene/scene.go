package scene

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/chazu/shatter/pkg/dcel"
	"github.com/chazu/shatter/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultMarginThreshold is the smallest distance a cut plane must leave on
// both sides of a fragment before the fragment is cut.
const DefaultMarginThreshold = 1e-3

// FragmentID identifies a fragment within one scene. IDs are never reused.
type FragmentID uint64

// Defaults contains scene-wide settings applied to every mesh.
type Defaults struct {
	Epsilon         float64 `json:"epsilon"`
	MarginThreshold float64 `json:"margin_threshold"`
	MinVolume       float64 `json:"min_volume"` // warn below this volume
	MergeCoplanar   bool    `json:"merge_coplanar"`
	RemoveColinear  bool    `json:"remove_colinear"`
}

// Fragment is one closed solid in the scene.
type Fragment struct {
	ID         FragmentID `json:"id"`
	Name       string     `json:"name"`
	Parent     FragmentID `json:"parent,omitempty"` // zero for solids added directly
	Generation int        `json:"generation"`       // number of cuts since the root solid
	Mesh       *dcel.Mesh `json:"-"`
}

// Volume returns the fragment's enclosed volume.
func (f *Fragment) Volume() float64 { return f.Mesh.Volume() }

// CutOptions selects how a cut is applied.
type CutOptions struct {
	// Margin overrides Defaults.MarginThreshold when positive.
	Margin float64
	// Only restricts the cut to the named fragments. Empty means all.
	Only []string
}

// CutReport summarises one cut across the scene.
type CutReport struct {
	Plane   geom.Plane   `json:"plane"`
	Cut     int          `json:"cut"`     // fragments the plane went through
	Split   int          `json:"split"`   // pieces those fragments became
	Skipped int          `json:"skipped"` // fragments left whole
	Created []FragmentID `json:"created,omitempty"`
}

// Scene is the set of live fragments. Fragments keep the order in which they
// were added; pieces take the place of the fragment they were cut from.
type Scene struct {
	Pieces    map[FragmentID]*Fragment `json:"pieces"`
	Order     []FragmentID             `json:"order"`
	NameIndex map[string]FragmentID    `json:"name_index"`
	Defaults  Defaults                 `json:"defaults"`
	History   []CutReport              `json:"history"`
	Version   uint64                   `json:"version"`

	nextID FragmentID
}

// New creates an empty scene with default settings.
func New() *Scene {
	return &Scene{
		Pieces:    make(map[FragmentID]*Fragment),
		NameIndex: make(map[string]FragmentID),
		Defaults: Defaults{
			Epsilon:         geom.DefaultEpsilon,
			MarginThreshold: DefaultMarginThreshold,
			MergeCoplanar:   true,
			RemoveColinear:  true,
		},
	}
}

func (s *Scene) meshOptions() []dcel.Option {
	return []dcel.Option{
		dcel.WithEpsilon(s.Defaults.Epsilon),
		dcel.WithMergeCoplanar(s.Defaults.MergeCoplanar),
		dcel.WithRemoveColinear(s.Defaults.RemoveColinear),
	}
}

// AddSolid builds a mesh from faces and adds it under name. An empty name is
// replaced by a generated one.
func (s *Scene) AddSolid(name string, faces []dcel.Face) (*Fragment, error) {
	if name == "" {
		name = s.uniqueName(fmt.Sprintf("solid%d", s.nextID+1))
	} else if _, taken := s.NameIndex[name]; taken {
		return nil, fmt.Errorf("scene: fragment %q already exists", name)
	}
	m, err := dcel.New(faces, s.meshOptions()...)
	if err != nil {
		return nil, fmt.Errorf("scene: add %q: %w", name, err)
	}
	f := s.insert(name, m, 0, 0)
	s.Order = append(s.Order, f.ID)
	return f, nil
}

// insert registers a fragment without placing it in Order.
func (s *Scene) insert(name string, m *dcel.Mesh, parent FragmentID, gen int) *Fragment {
	s.nextID++
	f := &Fragment{ID: s.nextID, Name: name, Parent: parent, Generation: gen, Mesh: m}
	s.Pieces[f.ID] = f
	s.NameIndex[name] = f.ID
	return f
}

func (s *Scene) remove(id FragmentID) {
	f, ok := s.Pieces[id]
	if !ok {
		return
	}
	delete(s.Pieces, id)
	if s.NameIndex[f.Name] == id {
		delete(s.NameIndex, f.Name)
	}
}

// uniqueName returns base, or base with a numeric suffix if base is taken.
func (s *Scene) uniqueName(base string) string {
	name := base
	for i := 1; ; i++ {
		if _, taken := s.NameIndex[name]; !taken {
			return name
		}
		name = fmt.Sprintf("%s~%d", base, i)
	}
}

// Lookup returns the fragment with the given name, or nil.
func (s *Scene) Lookup(name string) *Fragment {
	id, ok := s.NameIndex[name]
	if !ok {
		return nil
	}
	return s.Pieces[id]
}

// MustLookup returns the fragment with the given name, or panics.
func (s *Scene) MustLookup(name string) *Fragment {
	f := s.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("scene: no fragment named %q", name))
	}
	return f
}

// Get returns the fragment with the given ID, or nil.
func (s *Scene) Get(id FragmentID) *Fragment {
	return s.Pieces[id]
}

// Fragments returns the live fragments in scene order.
func (s *Scene) Fragments() []*Fragment {
	out := make([]*Fragment, 0, len(s.Order))
	for _, id := range s.Order {
		if f := s.Pieces[id]; f != nil {
			out = append(out, f)
		}
	}
	return out
}

// Len returns the number of live fragments.
func (s *Scene) Len() int {
	return len(s.Pieces)
}

// TotalVolume sums the volume of every live fragment.
func (s *Scene) TotalVolume() float64 {
	var v float64
	for _, f := range s.Pieces {
		v += f.Volume()
	}
	return v
}

// Center returns the volume-weighted center of mass of the scene, or the
// origin when the scene is empty or has no volume.
func (s *Scene) Center() v3.Vec {
	var sum v3.Vec
	var vol float64
	for _, f := range s.Fragments() {
		v := f.Volume()
		sum = sum.Add(f.Mesh.CenterOfMass().MulScalar(v))
		vol += v
	}
	if vol <= 0 {
		return v3.Vec{}
	}
	return sum.DivScalar(vol)
}

// targets resolves CutOptions.Only into fragment IDs in scene order.
func (s *Scene) targets(only []string) ([]FragmentID, error) {
	if len(only) == 0 {
		return append([]FragmentID(nil), s.Order...), nil
	}
	want := make(map[FragmentID]bool, len(only))
	for _, name := range only {
		id, ok := s.NameIndex[name]
		if !ok {
			return nil, fmt.Errorf("scene: no fragment named %q", name)
		}
		want[id] = true
	}
	var ids []FragmentID
	for _, id := range s.Order {
		if want[id] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Cut slices the selected fragments with p and replaces each fragment the
// plane goes through by its pieces, named after the fragment with an index
// suffix. A fragment whose mesh fails to cut is restored from its faces and
// the error is returned; fragments cut before it stay cut.
func (s *Scene) Cut(p geom.Plane, opts CutOptions) (CutReport, error) {
	report := CutReport{Plane: p}
	ids, err := s.targets(opts.Only)
	if err != nil {
		return report, err
	}
	margin := s.Defaults.MarginThreshold
	if opts.Margin > 0 {
		margin = opts.Margin
	}

	pieces := make(map[FragmentID][]FragmentID)
	defer func() {
		s.History = append(s.History, report)
		s.reorder(pieces)
	}()

	for _, id := range ids {
		f := s.Pieces[id]
		before, err := f.Mesh.Faces()
		if err != nil {
			return report, fmt.Errorf("scene: cut %q: %w", f.Name, err)
		}
		cut, err := f.Mesh.Cut(p, margin)
		if err != nil {
			if m, rerr := dcel.New(before, s.meshOptions()...); rerr == nil {
				f.Mesh = m
			}
			return report, fmt.Errorf("scene: cut %q: %w", f.Name, err)
		}
		if !cut {
			report.Skipped++
			continue
		}
		report.Cut++

		children, err := f.Mesh.Split()
		if err != nil {
			if m, rerr := dcel.New(before, s.meshOptions()...); rerr == nil {
				f.Mesh = m
			}
			return report, fmt.Errorf("scene: split %q: %w", f.Name, err)
		}
		if len(children) == 1 && children[0].IsCut() {
			// Both sides stayed connected; rebuild so the piece can be cut again.
			m, err := s.rebuild(children[0])
			if err != nil {
				return report, fmt.Errorf("scene: split %q: %w", f.Name, err)
			}
			children[0] = m
		}
		s.remove(id)
		for i, m := range children {
			c := s.insert(s.uniqueName(fmt.Sprintf("%s.%d", f.Name, i)), m, f.ID, f.Generation+1)
			pieces[id] = append(pieces[id], c.ID)
			report.Created = append(report.Created, c.ID)
		}
		report.Split += len(children)
	}
	return report, nil
}

func (s *Scene) rebuild(m *dcel.Mesh) (*dcel.Mesh, error) {
	faces, err := m.Faces()
	if err != nil {
		return nil, err
	}
	return dcel.New(faces, s.meshOptions()...)
}

// reorder puts every replaced fragment's pieces in its place.
func (s *Scene) reorder(pieces map[FragmentID][]FragmentID) {
	if len(pieces) == 0 {
		return
	}
	order := make([]FragmentID, 0, len(s.Order)+len(pieces))
	for _, id := range s.Order {
		if ps, ok := pieces[id]; ok {
			order = append(order, ps...)
			continue
		}
		order = append(order, id)
	}
	s.Order = order
}

// RandomCuts applies n cuts with random orientation. Normal components are
// drawn from [-0.5, 0.5] and the plane passes within spread of the scene
// center along its normal. The same seed gives the same cuts.
func (s *Scene) RandomCuts(n int, seed int64, spread float64) ([]CutReport, error) {
	rng := rand.New(rand.NewSource(seed))
	reports := make([]CutReport, 0, n)
	for range n {
		var normal v3.Vec
		for normal.Length() < 1e-3 {
			normal = v3.Vec{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5, Z: rng.Float64() - 0.5}
		}
		offset := 2 * (rng.Float64() - 0.5) * spread
		point := s.Center().Add(normal.Normalize().MulScalar(offset))
		p, err := geom.NewPlane(point, normal, s.Defaults.Epsilon)
		if err != nil {
			return reports, err
		}
		r, err := s.Cut(p, CutOptions{})
		reports = append(reports, r)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// DiscardBelow removes every fragment with a volume under min and returns
// the removed names in scene order.
func (s *Scene) DiscardBelow(min float64) []string {
	var removed []string
	order := s.Order[:0]
	for _, id := range s.Order {
		f, ok := s.Pieces[id]
		if !ok {
			continue
		}
		if math.Abs(f.Volume()) < min {
			removed = append(removed, f.Name)
			s.remove(id)
			continue
		}
		order = append(order, id)
	}
	s.Order = order
	return removed
}
