package calibration

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// ExportBlendMask writes weights (one per pixel, 0..1, width*height
// long) as a 16-bit grayscale PNG blend mask.
func ExportBlendMask(path string, width, height int, weights []float64) error {
	if len(weights) != width*height {
		return &Error{Operation: "export blend mask", Details: fmt.Sprintf("weights length %d != %dx%d", len(weights), width, height)}
	}

	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			w := weights[y*width+x]
			if w < 0 {
				w = 0
			}
			if w > 1 {
				w = 1
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(w * 65535)})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return &Error{Operation: "export blend mask", Details: "create file", Err: err}
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := png.Encode(bw, img); err != nil {
		return &Error{Operation: "export blend mask", Details: "encode png", Err: err}
	}
	return bw.Flush()
}
