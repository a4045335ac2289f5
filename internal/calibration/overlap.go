package calibration

import "math"

// BlendWeight evaluates the chosen falloff curve at t in [0,1], where t
// is the normalized position across an overlap region (0 = this
// projector's own edge, 1 = the neighbor's edge).
func BlendWeight(curve BlendCurve, t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	switch curve {
	case CurveGamma:
		const gamma = 2.2
		return math.Pow(t, 1/gamma)
	case CurveCosine:
		return 0.5 - 0.5*math.Cos(math.Pi*t)
	case CurveSmoothstep:
		return t * t * (3 - 2*t)
	default: // CurveLinear
		return t
	}
}

// OverlapRegion describes the shared-edge camera support between two
// adjacent projectors and the per-pixel blend weight each contributes.
type OverlapRegion struct {
	ProjectorA, ProjectorB int
	Width, Height          int
	WeightA, WeightB       []float64 // width*height, WeightA[i]+WeightB[i] == 1 inside the region
}

// DetectOverlap finds the camera-pixel support shared by two projectors'
// correspondence sets (both indexed in the same camera frame). A pixel
// is "shared" if both decoders produced a correspondence at the same
// camera coordinate; the blend weight is computed from each pixel's
// normalized position across the overlap region's horizontal extent.
func DetectOverlap(a, b []Correspondence, camWidth, camHeight int, curve BlendCurve) OverlapRegion {
	region := OverlapRegion{
		Width:  camWidth,
		Height: camHeight,
		WeightA: make([]float64, camWidth*camHeight),
		WeightB: make([]float64, camWidth*camHeight),
	}

	setA := make(map[[2]int]bool, len(a))
	for _, c := range a {
		setA[[2]int{int(c.Camera.X), int(c.Camera.Y)}] = true
	}

	var minX, maxX = camWidth, 0
	shared := make(map[[2]int]bool)
	for _, c := range b {
		key := [2]int{int(c.Camera.X), int(c.Camera.Y)}
		if setA[key] {
			shared[key] = true
			if key[0] < minX {
				minX = key[0]
			}
			if key[0] > maxX {
				maxX = key[0]
			}
		}
	}

	span := float64(maxX - minX)
	if span <= 0 {
		span = 1
	}

	for key := range shared {
		x, y := key[0], key[1]
		t := float64(x-minX) / span
		wb := BlendWeight(curve, t)
		wa := 1 - wb
		idx := y*camWidth + x
		region.WeightA[idx] = wa
		region.WeightB[idx] = wb
	}
	return region
}
