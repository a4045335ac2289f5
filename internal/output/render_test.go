package output

import "testing"

func solidEnv(w, h int, r, g, b, a byte) []byte {
	buf := make([]byte, w*h*4)
	for i := 0; i < len(buf); i += 4 {
		buf[i] = r
		buf[i+1] = g
		buf[i+2] = b
		buf[i+3] = a
	}
	return buf
}

func TestRenderScreenIdentitySlicePassesColorThrough(t *testing.T) {
	env := solidEnv(4, 4, 200, 100, 50, 255)
	screen := NewScreen("main", 8, 8)
	screen.Slices = []Slice{{
		InputRect:  Rect{0, 0, 1, 1},
		OutputRect: Rect{0, 0, 1, 1},
		Warp:       WarpIdentity,
	}}

	out := RenderScreen(env, 4, 4, screen)
	idx := (4*8 + 4) * 4
	if out[idx] < 190 || out[idx+1] < 90 || out[idx+2] < 40 {
		t.Fatalf("expected source color to pass through near-identity, got %v", out[idx:idx+4])
	}
}

func TestRenderScreenDisabledProducesBlackFrame(t *testing.T) {
	env := solidEnv(2, 2, 255, 255, 255, 255)
	screen := NewScreen("off", 4, 4)
	screen.Enabled = false
	out := RenderScreen(env, 2, 2, screen)
	for _, b := range out {
		if b != 0 {
			t.Fatalf("expected all-zero output for disabled screen, got non-zero byte")
		}
	}
}

func TestEdgeBlendAttenuationIdentityWhenNoEdgesEnabled(t *testing.T) {
	cfg := EdgeBlendConfig{}
	if got := cfg.EdgeAttenuation(0, 0); got != 1 {
		t.Fatalf("expected attenuation 1 with no edges enabled, got %v", got)
	}
	if got := cfg.EdgeAttenuation(0.01, 0.99); got != 1 {
		t.Fatalf("expected attenuation 1 with no edges enabled, got %v", got)
	}
}

func TestEdgeBlendAttenuationZeroAtBoundaryRisesToOne(t *testing.T) {
	cfg := EdgeBlendConfig{Left: EdgeRegion{Enabled: true, Width: 0.2, Power: 1, Gamma: 1, BlackLevel: 0}}
	atBoundary := cfg.EdgeAttenuation(0, 0.5)
	atEdgeOfRegion := cfg.EdgeAttenuation(0.2, 0.5)
	beyond := cfg.EdgeAttenuation(0.5, 0.5)

	if atBoundary != 0 {
		t.Fatalf("expected 0 attenuation at screen edge, got %v", atBoundary)
	}
	if atEdgeOfRegion != 1 {
		t.Fatalf("expected 1 attenuation at end of blend region, got %v", atEdgeOfRegion)
	}
	if beyond != 1 {
		t.Fatalf("expected 1 attenuation outside blend region, got %v", beyond)
	}
}

func TestEdgeBlendBlackLevelLiftsMinimum(t *testing.T) {
	cfg := EdgeBlendConfig{Left: EdgeRegion{Enabled: true, Width: 0.2, Power: 1, Gamma: 1, BlackLevel: 0.25}}
	atBoundary := cfg.EdgeAttenuation(0, 0.5)
	if atBoundary != 0.25 {
		t.Fatalf("expected attenuation lifted to black level 0.25 at screen edge, got %v", atBoundary)
	}
}

func TestSampleWarpIdentityIsPassthrough(t *testing.T) {
	s := Slice{InputRect: Rect{0.25, 0.25, 0.5, 0.5}, Warp: WarpIdentity}
	u, v := s.SampleWarp(0.5, 0.5)
	wantU, wantV := 0.25+0.5*0.5, 0.25+0.5*0.5
	if u != wantU || v != wantV {
		t.Fatalf("expected (%v,%v), got (%v,%v)", wantU, wantV, u, v)
	}
}

func TestSampleWarpRotation180FlipsBothAxes(t *testing.T) {
	s := Slice{InputRect: Rect{0, 0, 1, 1}, Warp: WarpIdentity, RotationCW: 180}
	u, v := s.SampleWarp(0.1, 0.2)
	if u != 0.9 || v != 0.8 {
		t.Fatalf("expected (0.9,0.8) after 180 rotation, got (%v,%v)", u, v)
	}
}

func TestSampleWarpQuadDisplacesTowardCorner(t *testing.T) {
	s := Slice{
		InputRect: Rect{0, 0, 1, 1},
		Warp:      WarpQuadrilateral,
		Quad:      Corners{{0.1, 0}, {0, 0}, {0, 0}, {0, 0}},
	}
	u, _ := s.SampleWarp(0, 0)
	if u <= 0 {
		t.Fatalf("expected top-left corner displacement to shift sample right, got u=%v", u)
	}
}

func TestSampleWarpMeshFallsBackToIdentityWhenGridIncomplete(t *testing.T) {
	s := Slice{InputRect: Rect{0, 0, 1, 1}, Warp: WarpMesh}
	u, v := s.SampleWarp(0.3, 0.4)
	if u != 0.3 || v != 0.4 {
		t.Fatalf("expected passthrough for incomplete mesh grid, got (%v,%v)", u, v)
	}
}

func TestColorPipelineOpacityScalesAlpha(t *testing.T) {
	p := DefaultColorPipeline()
	p.Opacity = 0.5
	_, _, _, a := p.Apply(1, 1, 1, 1)
	if a != 0.5 {
		t.Fatalf("expected alpha 0.5, got %v", a)
	}
}
