package compositor

import (
	"fmt"

	"github.com/immersive-av/immersive-server/internal/clipplayer"
	"github.com/immersive-av/immersive-server/internal/composition"
)

// newDecoderForClip dispatches on the clip's kind to build the right
// clipplayer.FrameDecoder, covering the Video/Image/SolidColor/Generator
// union a Clip payload can hold.
func newDecoderForClip(clip *composition.Clip) (clipplayer.FrameDecoder, error) {
	switch clip.Kind {
	case composition.ClipVideo:
		return clipplayer.NewSyntheticVideoDecoder(clip.Width, clip.Height, clip.DurationS, clip.FPS), nil
	case composition.ClipImage:
		return clipplayer.NewImageDecoder(clip.Path)
	case composition.ClipSolidColor:
		return newSolidColorDecoder(clip.Color, clip.Width, clip.Height), nil
	case composition.ClipGenerator:
		width, height := clip.Width, clip.Height
		if width <= 0 {
			width = 256
		}
		if height <= 0 {
			height = 256
		}
		return clipplayer.NewGeneratorDecoder(clip.GeneratorKind, width, height, clip.Parameters), nil
	default:
		return nil, fmt.Errorf("compositor: unknown clip kind %v", clip.Kind)
	}
}

type solidColorDecoder struct {
	width, height int
	pix           []byte
}

// newSolidColorDecoder returns a FrameDecoder producing one constant
// frame, the simplest member of the Clip union and otherwise handled the
// same as an Image decoder (decode once, return the same buffer forever).
func newSolidColorDecoder(c composition.RGBA, width, height int) clipplayer.FrameDecoder {
	if width <= 0 {
		width = 256
	}
	if height <= 0 {
		height = 256
	}
	pix := make([]byte, width*height*4)
	r := byte(clamp01(c.R) * 255)
	g := byte(clamp01(c.G) * 255)
	b := byte(clamp01(c.B) * 255)
	a := byte(clamp01(c.A) * 255)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, a
	}
	return &solidColorDecoder{width: width, height: height, pix: pix}
}

func (d *solidColorDecoder) NativeSize() (int, int) { return d.width, d.height }
func (d *solidColorDecoder) Duration() float64      { return 0 }
func (d *solidColorDecoder) DecodeAt(pts float64) (*clipplayer.Frame, error) {
	return &clipplayer.Frame{Width: d.width, Height: d.height, Pix: d.pix, PTS: pts}, nil
}
func (d *solidColorDecoder) Close() error { return nil }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
