package compositor

import "github.com/immersive-av/immersive-server/internal/composition"

// blendPixel composites one RGBA8 source sample (already weighted by the
// fade/layer opacity `a`) onto one destination pixel in `dst[idx:idx+4]`.
// Add folds alpha directly into its formula (`src*a + dst`); Multiply
// and Screen have no alpha term of their own, so opacity there is
// applied as a mix between the unweighted destination and the blended
// result.
func blendPixel(dst []byte, idx int, r, g, b, a float64, mode composition.BlendMode) {
	if a <= 0 {
		return
	}
	dr := float64(dst[idx]) / 255
	dg := float64(dst[idx+1]) / 255
	db := float64(dst[idx+2]) / 255
	da := float64(dst[idx+3]) / 255

	var outR, outG, outB, outA float64

	switch mode {
	case composition.BlendAdd:
		outR = clamp01(r*a + dr)
		outG = clamp01(g*a + dg)
		outB = clamp01(b*a + db)
		outA = clamp01(a + da)
	case composition.BlendMultiply:
		outR = mix(dr, r*dr, a)
		outG = mix(dg, g*dg, a)
		outB = mix(db, b*db, a)
		outA = clamp01(a + da*(1-a))
	case composition.BlendScreen:
		outR = mix(dr, r+dr-r*dr, a)
		outG = mix(dg, g+dg-g*dg, a)
		outB = mix(db, b+db-b*db, a)
		outA = clamp01(a + da*(1-a))
	case composition.BlendOverlay:
		outR = mix(dr, overlayChannel(dr, r), a)
		outG = mix(dg, overlayChannel(dg, g), a)
		outB = mix(db, overlayChannel(db, b), a)
		outA = clamp01(a + da*(1-a))
	default: // BlendNormal: straight (non-premultiplied) alpha-over
		outA = a + da*(1-a)
		if outA <= 0 {
			outR, outG, outB = 0, 0, 0
		} else {
			outR = (r*a + dr*da*(1-a)) / outA
			outG = (g*a + dg*da*(1-a)) / outA
			outB = (b*a + db*da*(1-a)) / outA
		}
	}

	dst[idx] = byte(clamp01(outR) * 255)
	dst[idx+1] = byte(clamp01(outG) * 255)
	dst[idx+2] = byte(clamp01(outB) * 255)
	dst[idx+3] = byte(clamp01(outA) * 255)
}

func overlayChannel(base, blend float64) float64 {
	if base < 0.5 {
		return 2 * base * blend
	}
	return 1 - 2*(1-base)*(1-blend)
}

func mix(a, b, t float64) float64 {
	return a + (b-a)*t
}
