package clipplayer

import (
	"bytes"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// imageDecoder serves a single still image clip. It decodes once on Open
// and answers every DecodeAt call with the same frame, matching a static
// Image clip's "immutable dimensions, no playback position" semantics.
type imageDecoder struct {
	width, height int
	pix           []byte
}

// NewImageDecoder loads path (png/jpeg/gif/bmp/tiff, chosen by extension)
// into an RGBA frame held for the lifetime of the decoder.
func NewImageDecoder(path string) (FrameDecoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ClipPlayerError{Operation: "open image", Details: path, Err: err}
	}

	img, err := decodeByExtension(path, data)
	if err != nil {
		return nil, &ClipPlayerError{Operation: "decode image", Details: path, Err: err}
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	return &imageDecoder{width: bounds.Dx(), height: bounds.Dy(), pix: rgba.Pix}, nil
}

func decodeByExtension(path string, data []byte) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		return bmp.Decode(bytes.NewReader(data))
	case ".tif", ".tiff":
		return tiff.Decode(bytes.NewReader(data))
	case ".jpg", ".jpeg":
		return jpeg.Decode(bytes.NewReader(data))
	case ".gif":
		return gif.Decode(bytes.NewReader(data))
	default:
		return png.Decode(bytes.NewReader(data))
	}
}

func (d *imageDecoder) NativeSize() (int, int) { return d.width, d.height }
func (d *imageDecoder) Duration() float64      { return 0 }
func (d *imageDecoder) Close() error           { return nil }

func (d *imageDecoder) DecodeAt(pts float64) (*Frame, error) {
	return &Frame{Width: d.width, Height: d.height, Pix: d.pix, PTS: pts}, nil
}
