package preview

import (
	"image/color"
	"math"
)

// screenVertex is a projected vertex: pixel coordinates plus depth.
type screenVertex struct {
	X, Y, Z float64
}

// RasterizeTriangle fills one triangle with a flat color scaled by shade,
// keeping the nearest surface per pixel. Either winding is accepted.
func RasterizeTriangle(fb *FrameBuffer, v [3]screenVertex, c color.NRGBA, shade float64) {
	x0, y0, z0 := v[0].X, v[0].Y, v[0].Z
	x1, y1, z1 := v[1].X, v[1].Y, v[1].Z
	x2, y2, z2 := v[2].X, v[2].Y, v[2].Z

	minX := max(int(math.Floor(min(x0, x1, x2))), 0)
	maxX := min(int(math.Ceil(max(x0, x1, x2))), fb.Width-1)
	minY := max(int(math.Floor(min(y0, y1, y2))), 0)
	maxY := min(int(math.Ceil(max(y0, y1, y2))), fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	r := clamp8(float64(c.R) * shade)
	g := clamp8(float64(c.G) * shade)
	b := clamp8(float64(c.B) * shade)

	for sy := minY; sy <= maxY; sy++ {
		// Sample at pixel centers.
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}
			fb.ZBuf[zIdx] = z

			ci := zIdx * 4
			fb.Color[ci] = r
			fb.Color[ci+1] = g
			fb.Color[ci+2] = b
			fb.Color[ci+3] = c.A
		}
	}
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
