package calibration

import (
	"math"
	"testing"
)

func TestGrayCodeRoundTrip(t *testing.T) {
	for n := uint32(0); n < 4096; n++ {
		g := GrayEncode(n)
		if back := GrayDecode(g); back != n {
			t.Fatalf("GrayDecode(GrayEncode(%d)) = %d, want %d", n, back, n)
		}
	}
}

func TestBitsNeeded(t *testing.T) {
	cases := map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 1024: 10, 1023: 10}
	for in, want := range cases {
		if got := BitsNeeded(in); got != want {
			t.Errorf("BitsNeeded(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestPatternCount(t *testing.T) {
	// ceil(log2(1024))=10, ceil(log2(768))=10 -> (10+10)*2+2 = 42
	if got := PatternCount(1024, 768); got != 42 {
		t.Fatalf("PatternCount(1024,768) = %d, want 42", got)
	}
}

func TestGeneratePatternsOrderAndCount(t *testing.T) {
	patterns := GeneratePatterns(8, 4) // bitsX=3, bitsY=2
	if len(patterns) != 2*(3+2) {
		t.Fatalf("expected %d patterns, got %d", 2*(3+2), len(patterns))
	}
	// First pattern is the highest vertical bit, positive.
	if patterns[0].Direction != DirectionVertical || patterns[0].Bit != 2 || patterns[0].Inverted {
		t.Fatalf("unexpected first pattern: %+v", patterns[0])
	}
	// Its very next entry must be the same bit, inverted.
	if patterns[1].Bit != 2 || patterns[1].Direction != DirectionVertical || !patterns[1].Inverted {
		t.Fatalf("unexpected second pattern: %+v", patterns[1])
	}
}

func identityLikeHomography() Homography {
	// A known planar homography: scale 2x in X, translate by (10, 5).
	return Homography{2, 0, 10, 0, 1, 5, 0, 0, 1}
}

func TestFitHomographyRecoversKnownTransform(t *testing.T) {
	h := identityLikeHomography()
	var correspondences []Correspondence
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			cam := Point2D{X: float64(x) * 10, Y: float64(y) * 10}
			proj := h.Apply(cam)
			correspondences = append(correspondences, Correspondence{Camera: cam, Projector: proj})
		}
	}

	fitted, ok := FitHomography(correspondences)
	if !ok {
		t.Fatal("FitHomography reported failure on consistent data")
	}

	for _, c := range correspondences[:5] {
		got := fitted.Apply(c.Camera)
		if math.Abs(got.X-c.Projector.X) > 1e-6 || math.Abs(got.Y-c.Projector.Y) > 1e-6 {
			t.Fatalf("fitted homography mismatch: got %+v want %+v", got, c.Projector)
		}
	}
}

func TestFitHomographyRejectsTooFewPoints(t *testing.T) {
	if _, ok := FitHomography(make([]Correspondence, 3)); ok {
		t.Fatal("expected failure with < 4 correspondences")
	}
}

func TestFitHomographyRANSACToleratesOutliers(t *testing.T) {
	h := identityLikeHomography()
	var correspondences []Correspondence
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			cam := Point2D{X: float64(x) * 10, Y: float64(y) * 10}
			proj := h.Apply(cam)
			correspondences = append(correspondences, Correspondence{Camera: cam, Projector: proj})
		}
	}
	// Inject gross outliers.
	for i := 0; i < 20; i++ {
		correspondences = append(correspondences, Correspondence{
			Camera:    Point2D{X: float64(i), Y: float64(i)},
			Projector: Point2D{X: 9999, Y: -9999},
		})
	}

	fitted, inliers, ok := FitHomographyRANSAC(correspondences, &RANSACOptions{Iterations: 200, ThresholdPixels: 1.0})
	if !ok {
		t.Fatal("expected RANSAC to succeed despite outliers")
	}
	if len(inliers) < 100 {
		t.Fatalf("expected most of the 100 consistent points to be inliers, got %d", len(inliers))
	}
	sample := correspondences[0]
	got := fitted.Apply(sample.Camera)
	if math.Abs(got.X-sample.Projector.X) > 0.5 {
		t.Fatalf("RANSAC-fitted homography too far off: got %+v want %+v", got, sample.Projector)
	}
}

func TestBlendWeightBoundsAndMonotonicity(t *testing.T) {
	for _, curve := range []BlendCurve{CurveLinear, CurveGamma, CurveCosine, CurveSmoothstep} {
		prev := BlendWeight(curve, 0)
		for i := 1; i <= 10; i++ {
			frac := float64(i) / 10
			w := BlendWeight(curve, frac)
			if w < 0 || w > 1 {
				t.Fatalf("curve %v out of [0,1] at t=%v: %v", curve, frac, w)
			}
			if w < prev-1e-9 {
				t.Fatalf("curve %v not monotonic at t=%v: prev=%v now=%v", curve, frac, prev, w)
			}
			prev = w
		}
		if got := BlendWeight(curve, 0); math.Abs(got-0) > 1e-9 {
			t.Errorf("curve %v at t=0 expected 0, got %v", curve, got)
		}
		if got := BlendWeight(curve, 1); math.Abs(got-1) > 1e-9 {
			t.Errorf("curve %v at t=1 expected 1, got %v", curve, got)
		}
	}
}

func TestDecoderRequiresContrast(t *testing.T) {
	d := NewDecoder(4, 4)
	flat := Frame{Width: 2, Height: 2, Pix: []float64{10, 10, 10, 10}}
	d.SetReference(flat, flat) // zero contrast everywhere
	for _, p := range GeneratePatterns(4, 4) {
		d.AddCapture(p, flat)
	}
	if got := d.Decode(); len(got) != 0 {
		t.Fatalf("expected no correspondences below contrast threshold, got %d", len(got))
	}
}
