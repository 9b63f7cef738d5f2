// Package preview renders fragment meshes to a still image with a fixed
// three-quarter orthographic camera, and encodes it as WebP or TGA.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/chazu/shatter/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Defaults for Options fields left at zero.
const (
	DefaultSize        = 512
	DefaultSupersample = 2
)

// Palette assigns distinct colors to fragments; fragment i uses
// Palette[i%len(Palette)].
var Palette = []color.NRGBA{
	{0x4A, 0x90, 0xD9, 0xFF},
	{0xE6, 0x7E, 0x22, 0xFF},
	{0x2E, 0xCC, 0x71, 0xFF},
	{0x9B, 0x59, 0xB6, 0xFF},
	{0xE7, 0x4C, 0x3C, 0xFF},
	{0x1A, 0xBC, 0x9C, 0xFF},
	{0xF3, 0x9C, 0x12, 0xFF},
	{0x34, 0x98, 0xDB, 0xFF},
}

// Hex formats a palette color as #RRGGBB.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ColorFor returns the palette color of fragment i.
func ColorFor(i int) color.NRGBA {
	return Palette[i%len(Palette)]
}

// Options controls the rendered image.
type Options struct {
	Size        int // output width and height in pixels
	Supersample int // render at Size*Supersample, then downsample
}

func (o Options) resolve() Options {
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if o.Supersample <= 0 {
		o.Supersample = DefaultSupersample
	}
	return o
}

// camera is an orthographic view looking at center from the eye direction.
type camera struct {
	center       v3.Vec
	right, up    v3.Vec
	eye          v3.Vec // unit vector from center toward the viewer
	scale        float64
	halfW, halfH float64
}

// view direction and light, Z up.
var (
	eyeDir   = v3.Vec{X: 1, Y: -1.2, Z: 0.9}.Normalize()
	lightDir = v3.Vec{X: 0.4, Y: -0.8, Z: 1}.Normalize()
	worldUp  = v3.Vec{Z: 1}
)

func newCamera(lo, hi v3.Vec, size int) camera {
	fwd := eyeDir.MulScalar(-1)
	right := fwd.Cross(worldUp).Normalize()
	c := camera{
		center: lo.Add(hi).MulScalar(0.5),
		right:  right,
		up:     right.Cross(fwd),
		eye:    eyeDir,
		halfW:  float64(size) / 2,
		halfH:  float64(size) / 2,
	}
	// Fit the projected bounding box corners with a 5% margin.
	var extent float64
	for i := range 8 {
		p := v3.Vec{X: lo.X, Y: lo.Y, Z: lo.Z}
		if i&1 != 0 {
			p.X = hi.X
		}
		if i&2 != 0 {
			p.Y = hi.Y
		}
		if i&4 != 0 {
			p.Z = hi.Z
		}
		d := p.Sub(c.center)
		extent = max(extent, math.Abs(d.Dot(c.right)), math.Abs(d.Dot(c.up)))
	}
	c.scale = 1
	if extent > 0 {
		c.scale = 0.95 * c.halfW / extent
	}
	return c
}

func (c camera) project(p v3.Vec) screenVertex {
	d := p.Sub(c.center)
	return screenVertex{
		X: c.halfW + d.Dot(c.right)*c.scale,
		Y: c.halfH - d.Dot(c.up)*c.scale,
		Z: d.Dot(c.eye),
	}
}

// worldBounds returns the combined world bounds of meshes.
func worldBounds(meshes []*kernel.Mesh) (lo, hi v3.Vec, ok bool) {
	for _, m := range meshes {
		if m == nil || m.IsEmpty() {
			continue
		}
		mn, mx := m.WorldBounds()
		a := v3.Vec{X: float64(mn[0]), Y: float64(mn[1]), Z: float64(mn[2])}
		b := v3.Vec{X: float64(mx[0]), Y: float64(mx[1]), Z: float64(mx[2])}
		if !ok {
			lo, hi, ok = a, b, true
			continue
		}
		lo = v3.Vec{X: min(lo.X, a.X), Y: min(lo.Y, a.Y), Z: min(lo.Z, a.Z)}
		hi = v3.Vec{X: max(hi.X, b.X), Y: max(hi.Y, b.Y), Z: max(hi.Z, b.Z)}
	}
	return lo, hi, ok
}

// Render draws meshes, each in its palette color, onto a transparent
// square image.
func Render(meshes []*kernel.Mesh, opts Options) *image.NRGBA {
	opts = opts.resolve()
	full := opts.Size * opts.Supersample
	fb := NewFrameBuffer(full, full)

	lo, hi, ok := worldBounds(meshes)
	if !ok {
		return Downsample(fb.Image(), opts.Size)
	}
	cam := newCamera(lo, hi, full)

	for i, m := range meshes {
		if m == nil {
			continue
		}
		col := ColorFor(i)
		off := v3.Vec{X: float64(m.Offset[0]), Y: float64(m.Offset[1]), Z: float64(m.Offset[2])}
		at := func(idx uint32) v3.Vec {
			return v3.Vec{
				X: float64(m.Vertices[3*idx]),
				Y: float64(m.Vertices[3*idx+1]),
				Z: float64(m.Vertices[3*idx+2]),
			}.Add(off)
		}
		for t := 0; t+2 < len(m.Indices); t += 3 {
			a, b, c := at(m.Indices[t]), at(m.Indices[t+1]), at(m.Indices[t+2])
			n := b.Sub(a).Cross(c.Sub(a))
			if n.Length() == 0 {
				continue
			}
			n = n.Normalize()
			shade := 0.35 + 0.65*math.Abs(n.Dot(lightDir))
			RasterizeTriangle(fb, [3]screenVertex{cam.project(a), cam.project(b), cam.project(c)}, col, shade)
		}
	}
	return Downsample(fb.Image(), opts.Size)
}
