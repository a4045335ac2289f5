package compositor

import (
	"math"

	"github.com/immersive-av/immersive-server/internal/composition"
)

// sampleTransform maps an environment-space UV into clip-texture UV
// space per the transform shader contract documented as a GLSL comment
// in internal/gpu/shaders.go: centered = fragUV - position -
// anchor*sizeScale; rotated = rotate(-rotation)*centered; uv =
// rotated/(sizeScale*scale) + anchor. Returns ok=false for samples
// outside the clip's domain (no wrap), matching "samples outside the
// clip domain are fully transparent".
func sampleTransform(envU, envV float64, xf composition.Transform2D, sizeScaleX, sizeScaleY float64) (u, v float64, ok bool) {
	posX := xf.PosX
	posY := xf.PosY

	centeredX := envU - posX - xf.AnchorX*sizeScaleX
	centeredY := envV - posY - xf.AnchorY*sizeScaleY

	c := math.Cos(-xf.RotationRad)
	s := math.Sin(-xf.RotationRad)
	rotatedX := c*centeredX - s*centeredY
	rotatedY := s*centeredX + c*centeredY

	scaleX := sizeScaleX * xf.ScaleX
	scaleY := sizeScaleY * xf.ScaleY
	if scaleX == 0 || scaleY == 0 {
		return 0, 0, false
	}

	u = rotatedX/scaleX + xf.AnchorX
	v = rotatedY/scaleY + xf.AnchorY

	if u < 0 || u > 1 || v < 0 || v > 1 {
		return 0, 0, false
	}
	return u, v, true
}
