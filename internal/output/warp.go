package output

import "math"

// SampleWarp returns the environment-space UV that should be sampled for
// a given normalized point (u, v) inside a slice's output rect, applying
// rotation/flip first and then the slice's warp mode, mirroring the
// warp.frag.glsl reference comment in gpu/shaders.go. CPU-side: used by
// RenderScreen and by tests that verify warp geometry; nothing bakes a
// warp-mesh texture from it.
func (s *Slice) SampleWarp(u, v float64) (float64, float64) {
	u, v = applyRotationFlip(u, v, s.RotationCW, s.FlipH, s.FlipV)

	switch s.Warp {
	case WarpQuadrilateral:
		u, v = s.sampleQuad(u, v)
	case WarpMesh:
		u, v = s.sampleMesh(u, v)
	default:
		// Identity: output rect maps linearly onto input rect.
	}

	return s.InputRect.X + u*s.InputRect.W, s.InputRect.Y + v*s.InputRect.H
}

func applyRotationFlip(u, v float64, rotationCW int, flipH, flipV bool) (float64, float64) {
	switch ((rotationCW % 360) + 360) % 360 {
	case 90:
		u, v = v, 1-u
	case 180:
		u, v = 1-u, 1-v
	case 270:
		u, v = 1-v, u
	}
	if flipH {
		u = 1 - u
	}
	if flipV {
		v = 1 - v
	}
	return u, v
}

// sampleQuad bilinearly displaces (u, v) by the four corner offsets,
// interpolating each corner's weight by distance from the opposite corner.
func (s *Slice) sampleQuad(u, v float64) (float64, float64) {
	tl, tr, br, bl := s.Quad[0], s.Quad[1], s.Quad[2], s.Quad[3]
	top := lerp2(tl, tr, u)
	bot := lerp2(bl, br, u)
	dx, dy := lerp1(top, bot, v)
	return clamp01(u + dx), clamp01(v + dy)
}

func lerp2(a, b [2]float64, t float64) [2]float64 {
	return [2]float64{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

func lerp1(a, b [2]float64, t float64) (float64, float64) {
	return a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t
}

// sampleMesh bilinearly interpolates the control-point displacement grid.
func (s *Slice) sampleMesh(u, v float64) (float64, float64) {
	m := s.Mesh
	if m.Cols < 2 || m.Rows < 2 || len(m.Points) != m.Cols*m.Rows {
		return u, v
	}
	fx := clamp01(u) * float64(m.Cols-1)
	fy := clamp01(v) * float64(m.Rows-1)
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	x1 := minInt(x0+1, m.Cols-1)
	y1 := minInt(y0+1, m.Rows-1)
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	p := func(x, y int) [2]float64 { return m.Points[y*m.Cols+x] }
	top := lerp2(p(x0, y0), p(x1, y0), tx)
	bot := lerp2(p(x0, y1), p(x1, y1), tx)
	dx, dy := lerp1(top, bot, ty)
	return clamp01(u + dx), clamp01(v + dy)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
