package clipplayer

import "math"

// syntheticVideoDecoder stands in for a real HAP/MOV decoder: it
// synthesizes a deterministic moving-gradient frame sequence at the
// clip's declared native size, duration and fps, so the surrounding
// PTS/loop/mailbox machinery sees exactly the shape a real codec would
// produce.
type syntheticVideoDecoder struct {
	width, height int
	durationS     float64
	fps           float64
}

// NewSyntheticVideoDecoder builds a FrameDecoder for a declared video clip.
func NewSyntheticVideoDecoder(width, height int, durationS, fps float64) FrameDecoder {
	return &syntheticVideoDecoder{width: width, height: height, durationS: durationS, fps: fps}
}

func (d *syntheticVideoDecoder) NativeSize() (int, int) { return d.width, d.height }
func (d *syntheticVideoDecoder) Duration() float64      { return d.durationS }
func (d *syntheticVideoDecoder) Close() error           { return nil }

func (d *syntheticVideoDecoder) DecodeAt(pts float64) (*Frame, error) {
	if d.width <= 0 || d.height <= 0 {
		return nil, &ClipPlayerError{Operation: "decode", Details: "zero-sized clip"}
	}
	pix := make([]byte, d.width*d.height*4)
	phase := pts // seconds drive the gradient's diagonal shift
	for y := 0; y < d.height; y++ {
		fy := float64(y) / float64(d.height)
		for x := 0; x < d.width; x++ {
			fx := float64(x) / float64(d.width)
			r := uint8(clamp01(0.5+0.5*math.Sin(2*math.Pi*(fx+phase*0.25))) * 255)
			g := uint8(clamp01(0.5+0.5*math.Sin(2*math.Pi*(fy+phase*0.17))) * 255)
			b := uint8(clamp01(0.5+0.5*math.Sin(2*math.Pi*(fx+fy+phase*0.31))) * 255)
			i := (y*d.width + x) * 4
			pix[i] = r
			pix[i+1] = g
			pix[i+2] = b
			pix[i+3] = 255
		}
	}
	return &Frame{Width: d.width, Height: d.height, Pix: pix, PTS: pts}, nil
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
