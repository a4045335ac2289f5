package calibration

import "math"

// BitsNeeded returns ceil(log2(maxCoord)), the number of Gray-code bits
// needed to address coordinates [0, maxCoord).
func BitsNeeded(maxCoord int) int {
	if maxCoord <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(maxCoord))))
}

// PatternCount returns the total pattern count for a given resolution:
// ceil(log2(max)) bits x 2 (positive+inverted) x 2 directions + 2
// references.
func PatternCount(maxWidth, maxHeight int) int {
	bitsX := BitsNeeded(maxWidth)
	bitsY := BitsNeeded(maxHeight)
	return (bitsX+bitsY)*2 + 2
}

// GrayEncode converts a binary value to its reflected Gray-code form.
func GrayEncode(n uint32) uint32 {
	return n ^ (n >> 1)
}

// GrayDecode converts a Gray-code value back to binary. It is the
// exact inverse of GrayEncode for every value representable in
// bits<=32.
func GrayDecode(g uint32) uint32 {
	n := g
	for shift := uint32(1); shift < 32; shift <<= 1 {
		n ^= n >> shift
	}
	return n
}

// Pattern describes one projected Gray-code frame.
type Pattern struct {
	Bit       int
	Direction Direction
	Inverted  bool
}

// GeneratePatterns returns the full pattern sequence for a projector of
// the given resolution: first the vertical (X) patterns, then the
// horizontal (Y) ones; within each direction, for each coordinate bit
// from MSB to LSB, the positive pattern then its inverse.
func GeneratePatterns(width, height int) []Pattern {
	bitsX := BitsNeeded(width)
	bitsY := BitsNeeded(height)

	var patterns []Pattern
	for bit := bitsX - 1; bit >= 0; bit-- {
		patterns = append(patterns,
			Pattern{Bit: bit, Direction: DirectionVertical, Inverted: false},
			Pattern{Bit: bit, Direction: DirectionVertical, Inverted: true},
		)
	}
	for bit := bitsY - 1; bit >= 0; bit-- {
		patterns = append(patterns,
			Pattern{Bit: bit, Direction: DirectionHorizontal, Inverted: false},
			Pattern{Bit: bit, Direction: DirectionHorizontal, Inverted: true},
		)
	}
	return patterns
}

// RenderPattern produces the 8-bit grayscale stripe image (white=255,
// black=0) a projector should display for p, sized width x height. The
// Gray-code bit for each column/row is read off p.Bit of that
// coordinate's Gray-encoded value.
func RenderPattern(p Pattern, width, height int) []byte {
	buf := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var coord uint32
			if p.Direction == DirectionVertical {
				coord = uint32(x)
			} else {
				coord = uint32(y)
			}
			bit := (GrayEncode(coord) >> uint32(p.Bit)) & 1
			on := bit == 1
			if p.Inverted {
				on = !on
			}
			v := byte(0)
			if on {
				v = 255
			}
			buf[y*width+x] = v
		}
	}
	return buf
}
