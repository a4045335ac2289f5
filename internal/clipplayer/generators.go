package clipplayer

import (
	"math"
	"math/rand/v2"

	"github.com/immersive-av/immersive-server/internal/composition"
)

// generatorDecoder renders one of the built-in procedural clip sources
// (composition.GeneratorKind) at a caller-chosen render size. Unlike video
// clips, generators have no native resolution of their own — they render
// at whatever size the slot requests, since a generator clip has no
// Width/Height of its own.
type generatorDecoder struct {
	kind          composition.GeneratorKind
	width, height int
	speed         float64
	rng           *rand.Rand
}

// NewGeneratorDecoder builds a FrameDecoder for a procedural clip.
func NewGeneratorDecoder(kind composition.GeneratorKind, width, height int, params map[string]float64) FrameDecoder {
	speed := 1.0
	if params != nil {
		if v, ok := params["speed"]; ok {
			speed = v
		}
	}
	return &generatorDecoder{kind: kind, width: width, height: height, speed: speed, rng: rand.New(rand.NewPCG(1, 2))}
}

func (g *generatorDecoder) NativeSize() (int, int) { return g.width, g.height }
func (g *generatorDecoder) Duration() float64      { return 0 }
func (g *generatorDecoder) Close() error           { return nil }

func (g *generatorDecoder) DecodeAt(pts float64) (*Frame, error) {
	if g.width <= 0 || g.height <= 0 {
		return nil, &ClipPlayerError{Operation: "decode", Details: "generator needs a render size"}
	}
	pix := make([]byte, g.width*g.height*4)
	t := pts * g.speed

	switch g.kind {
	case composition.GeneratorNoise:
		g.renderNoise(pix)
	case composition.GeneratorGradient:
		g.renderGradient(pix, t)
	case composition.GeneratorPlasma:
		g.renderPlasma(pix, t)
	case composition.GeneratorTestPattern:
		g.renderTestPattern(pix)
	case composition.GeneratorColorBars:
		g.renderColorBars(pix)
	default:
		g.renderGradient(pix, t)
	}
	return &Frame{Width: g.width, Height: g.height, Pix: pix, PTS: pts}, nil
}

func (g *generatorDecoder) renderNoise(pix []byte) {
	// Re-seeded per frame so successive frames are independent, matching
	// what a real noise generator would look like (not a static image).
	src := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	for i := 0; i < len(pix); i += 4 {
		v := uint8(src.IntN(256))
		pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 255
	}
}

func (g *generatorDecoder) renderGradient(pix []byte, t float64) {
	for y := 0; y < g.height; y++ {
		fy := float64(y) / float64(g.height)
		for x := 0; x < g.width; x++ {
			fx := float64(x) / float64(g.width)
			shifted := math.Mod(fx+t*0.1, 1.0)
			i := (y*g.width + x) * 4
			pix[i] = uint8(clamp01(shifted) * 255)
			pix[i+1] = uint8(clamp01(fy) * 255)
			pix[i+2] = uint8(clamp01(1-shifted) * 255)
			pix[i+3] = 255
		}
	}
}

func (g *generatorDecoder) renderPlasma(pix []byte, t float64) {
	for y := 0; y < g.height; y++ {
		fy := float64(y) / float64(g.height)
		for x := 0; x < g.width; x++ {
			fx := float64(x) / float64(g.width)
			v := math.Sin(fx*10+t) + math.Sin(fy*10+t*1.3) + math.Sin((fx+fy)*10+t*0.7)
			v = (v + 3) / 6
			i := (y*g.width + x) * 4
			pix[i] = uint8(clamp01(v) * 255)
			pix[i+1] = uint8(clamp01(1-v) * 255)
			pix[i+2] = uint8(clamp01(math.Abs(v-0.5)*2) * 255)
			pix[i+3] = 255
		}
	}
}

func (g *generatorDecoder) renderTestPattern(pix []byte) {
	// Checkerboard plus a center cross, in the spirit of a broadcast
	// test-card: easy to sanity-check alignment against a known grid.
	cell := 32
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			i := (y*g.width + x) * 4
			onCross := x == g.width/2 || y == g.height/2
			checker := ((x/cell)+(y/cell))%2 == 0
			var v uint8
			switch {
			case onCross:
				v = 255
			case checker:
				v = 200
			default:
				v = 40
			}
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 255
		}
	}
}

var colorBarColors = [8][3]uint8{
	{192, 192, 192}, {192, 192, 0}, {0, 192, 192}, {0, 192, 0},
	{192, 0, 192}, {192, 0, 0}, {0, 0, 192}, {0, 0, 0},
}

func (g *generatorDecoder) renderColorBars(pix []byte) {
	bars := len(colorBarColors)
	barWidth := g.width / bars
	if barWidth == 0 {
		barWidth = 1
	}
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			idx := x / barWidth
			if idx >= bars {
				idx = bars - 1
			}
			c := colorBarColors[idx]
			i := (y*g.width + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = c[0], c[1], c[2], 255
		}
	}
}
