package calibration

import (
	"math"
	"math/rand/v2"
)

// Homography is a 3x3 projective transform, row-major, mapping camera
// pixels to projector pixels: [x' y' w]^T = H * [x y 1]^T, (X,Y) =
// (x'/w, y'/w).
type Homography [9]float64

// Apply maps a camera point through H to a projector point.
func (h Homography) Apply(p Point2D) Point2D {
	x := h[0]*p.X + h[1]*p.Y + h[2]
	y := h[3]*p.X + h[4]*p.Y + h[5]
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return Point2D{}
	}
	return Point2D{X: x / w, Y: y / w}
}

// normalization holds the similarity transform used to condition point
// coordinates before the DLT solve, and its inverse to undo it after.
type normalization struct {
	scale              float64
	meanX, meanY       float64
}

func normalize(pts []Point2D) (normalization, []Point2D) {
	var mx, my float64
	for _, p := range pts {
		mx += p.X
		my += p.Y
	}
	n := float64(len(pts))
	mx /= n
	my /= n

	var meanDist float64
	for _, p := range pts {
		dx, dy := p.X-mx, p.Y-my
		meanDist += math.Hypot(dx, dy)
	}
	meanDist /= n
	scale := 1.0
	if meanDist > 1e-9 {
		scale = math.Sqrt2 / meanDist
	}

	out := make([]Point2D, len(pts))
	for i, p := range pts {
		out[i] = Point2D{X: (p.X - mx) * scale, Y: (p.Y - my) * scale}
	}
	return normalization{scale: scale, meanX: mx, meanY: my}, out
}

// FitHomography solves for the homography mapping cam[i] -> proj[i]
// using normalized-DLT: fix h33=1, accumulate the normal equations for
// the remaining 8 unknowns over all correspondences, and solve by
// Gaussian elimination; no external linear-algebra dependency is pulled
// in for an 8x8 solve.
func FitHomography(correspondences []Correspondence) (Homography, bool) {
	if len(correspondences) < 4 {
		return Homography{}, false
	}

	camPts := make([]Point2D, len(correspondences))
	projPts := make([]Point2D, len(correspondences))
	for i, c := range correspondences {
		camPts[i] = c.Camera
		projPts[i] = c.Projector
	}

	camNorm, camN := normalize(camPts)
	projNorm, projN := normalize(projPts)

	h, ok := solveDLT(camN, projN)
	if !ok {
		return Homography{}, false
	}

	return denormalizeHomography(h, camNorm, projNorm), true
}

// solveDLT builds the 8x8 normal-equation system A^T A h = A^T b for
// h33=1 and solves it with Gauss-Jordan elimination.
func solveDLT(cam, proj []Point2D) (Homography, bool) {
	var ata [8][8]float64
	var atb [8]float64

	addRow := func(row [8]float64, b float64) {
		for i := 0; i < 8; i++ {
			atb[i] += row[i] * b
			for j := 0; j < 8; j++ {
				ata[i][j] += row[i] * row[j]
			}
		}
	}

	for i := range cam {
		x, y := cam[i].X, cam[i].Y
		xp, yp := proj[i].X, proj[i].Y

		rowX := [8]float64{x, y, 1, 0, 0, 0, -x * xp, -y * xp}
		addRow(rowX, xp)

		rowY := [8]float64{0, 0, 0, x, y, 1, -x * yp, -y * yp}
		addRow(rowY, yp)
	}

	sol, ok := gaussJordan(ata, atb)
	if !ok {
		return Homography{}, false
	}
	return Homography{sol[0], sol[1], sol[2], sol[3], sol[4], sol[5], sol[6], sol[7], 1}, true
}

// gaussJordan solves a x = b for an 8x8 system via Gauss-Jordan
// elimination with partial pivoting.
func gaussJordan(a [8][8]float64, b [8]float64) ([8]float64, bool) {
	const n = 8
	var aug [n][n + 1]float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			aug[i][j] = a[i][j]
		}
		aug[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		best := math.Abs(aug[col][col])
		for r := col + 1; r < n; r++ {
			if v := math.Abs(aug[r][col]); v > best {
				pivot, best = r, v
			}
		}
		if best < 1e-12 {
			return [8]float64{}, false
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		pv := aug[col][col]
		for j := col; j <= n; j++ {
			aug[col][j] /= pv
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			if factor == 0 {
				continue
			}
			for j := col; j <= n; j++ {
				aug[r][j] -= factor * aug[col][j]
			}
		}
	}

	var out [8]float64
	for i := 0; i < n; i++ {
		out[i] = aug[i][n]
	}
	return out, true
}

// denormalizeHomography undoes the similarity transforms normalize()
// applied before the DLT solve: H = T_proj^-1 * H_n * T_cam.
func denormalizeHomography(hn Homography, camNorm, projNorm normalization) Homography {
	// T_cam: x_n = scale*(x - meanX)
	tCam := Homography{
		camNorm.scale, 0, -camNorm.scale * camNorm.meanX,
		0, camNorm.scale, -camNorm.scale * camNorm.meanY,
		0, 0, 1,
	}
	// T_proj^-1: x = x_n/scale + meanX
	tProjInv := Homography{
		1 / projNorm.scale, 0, projNorm.meanX,
		0, 1 / projNorm.scale, projNorm.meanY,
		0, 0, 1,
	}
	return matMul(matMul(tProjInv, hn), tCam)
}

func matMul(a, b Homography) Homography {
	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[r*3+k] * b[k*3+c]
			}
			out[r*3+c] = sum
		}
	}
	return out
}

// RANSACOptions configures FitHomographyRANSAC.
type RANSACOptions struct {
	Iterations      int
	ThresholdPixels float64
}

func defaultRANSACOptions() RANSACOptions {
	return RANSACOptions{Iterations: 500, ThresholdPixels: 2.0}
}

// FitHomographyRANSAC repeatedly fits a homography from a random
// 4-point sample, scores it by reprojection inlier count, then refits
// from the best sample's full inlier set. It returns the refined
// homography together with that inlier subset (not the full input set);
// with fewer than 4 correspondences, or no sample reaching 4 inliers, it
// returns ok=false and nil inliers.
func FitHomographyRANSAC(correspondences []Correspondence, opts *RANSACOptions) (Homography, []Correspondence, bool) {
	o := defaultRANSACOptions()
	if opts != nil {
		o = *opts
	}
	if len(correspondences) < 4 {
		return Homography{}, nil, false
	}

	var bestH Homography
	var bestInliers []Correspondence
	rng := rand.New(rand.NewPCG(1, 2))

	for iter := 0; iter < o.Iterations; iter++ {
		sample := sampleFour(correspondences, rng)
		h, ok := FitHomography(sample)
		if !ok {
			continue
		}
		inliers := inliersOf(h, correspondences, o.ThresholdPixels)
		if len(inliers) > len(bestInliers) {
			bestInliers = inliers
			bestH = h
		}
	}

	if len(bestInliers) < 4 {
		return Homography{}, nil, false
	}

	refined, ok := FitHomography(bestInliers)
	if !ok {
		refined = bestH
	}
	return refined, bestInliers, true
}

func sampleFour(cs []Correspondence, rng *rand.Rand) []Correspondence {
	idx := rng.Perm(len(cs))[:4]
	out := make([]Correspondence, 4)
	for i, j := range idx {
		out[i] = cs[j]
	}
	return out
}

func inliersOf(h Homography, cs []Correspondence, threshold float64) []Correspondence {
	var out []Correspondence
	for _, c := range cs {
		p := h.Apply(c.Camera)
		dx, dy := p.X-c.Projector.X, p.Y-c.Projector.Y
		if math.Hypot(dx, dy) <= threshold {
			out = append(out, c)
		}
	}
	return out
}
