package calibration

// Frame is one averaged, grayscale camera capture: intensity in [0,255]
// per pixel, row-major, width*height long.
type Frame struct {
	Width, Height int
	Pix           []float64
}

func (f Frame) at(x, y int) float64 {
	return f.Pix[y*f.Width+x]
}

// DefaultContrastThreshold is the minimum white-minus-black intensity a
// camera pixel must clear to be considered decodable.
const DefaultContrastThreshold = 20.0

// Decoder accumulates a projector's reference and Gray-code captures and
// decodes camera→projector correspondences.
type Decoder struct {
	ProjectorWidth, ProjectorHeight int
	Threshold                      float64

	white, black Frame
	positive     map[Pattern]Frame
}

// NewDecoder creates a decoder for a projector of the given resolution.
func NewDecoder(projectorWidth, projectorHeight int) *Decoder {
	return &Decoder{
		ProjectorWidth:  projectorWidth,
		ProjectorHeight: projectorHeight,
		Threshold:       DefaultContrastThreshold,
		positive:        make(map[Pattern]Frame),
	}
}

// SetReference stores the averaged all-white / all-black camera capture.
func (d *Decoder) SetReference(white, black Frame) {
	d.white = white
	d.black = black
}

// AddCapture stores the averaged camera capture for one (possibly
// inverted) pattern. Both p and its inverse must be added before Decode
// runs.
func (d *Decoder) AddCapture(p Pattern, f Frame) {
	d.positive[p] = f
}

// Decode reconstructs camera-to-projector correspondences: per camera
// pixel, require sufficient contrast, then for each bit assign 1 iff the
// positive capture out-intensifies the inverted one; form the Gray code
// per axis, convert to binary, yielding projector (X,Y). Pixels failing
// the contrast test are omitted.
func (d *Decoder) Decode() []Correspondence {
	if d.white.Pix == nil || d.black.Pix == nil {
		return nil
	}
	width, height := d.white.Width, d.white.Height
	bitsX := BitsNeeded(d.ProjectorWidth)
	bitsY := BitsNeeded(d.ProjectorHeight)

	var out []Correspondence
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			contrast := d.white.at(x, y) - d.black.at(x, y)
			if contrast < d.Threshold {
				continue
			}

			px, ok := d.decodeAxis(x, y, DirectionVertical, bitsX)
			if !ok {
				continue
			}
			py, ok := d.decodeAxis(x, y, DirectionHorizontal, bitsY)
			if !ok {
				continue
			}
			out = append(out, Correspondence{
				Camera:    Point2D{X: float64(x), Y: float64(y)},
				Projector: Point2D{X: float64(px), Y: float64(py)},
			})
		}
	}
	return out
}

// decodeAxis reconstructs the binary coordinate for one axis at one
// camera pixel from its accumulated Gray-code bit captures.
func (d *Decoder) decodeAxis(x, y int, dir Direction, bits int) (uint32, bool) {
	var gray uint32
	for bit := bits - 1; bit >= 0; bit-- {
		pos, ok1 := d.positive[Pattern{Bit: bit, Direction: dir, Inverted: false}]
		inv, ok2 := d.positive[Pattern{Bit: bit, Direction: dir, Inverted: true}]
		if !ok1 || !ok2 {
			return 0, false
		}
		bitVal := uint32(0)
		if pos.at(x, y) > inv.at(x, y) {
			bitVal = 1
		}
		gray |= bitVal << uint32(bit)
	}
	return GrayDecode(gray), true
}
