// Package output renders the environment texture to each configured
// Screen: slice sampling with warp, per-edge blend attenuation, a color
// pipeline, and either windowed/fullscreen presentation or network
// egress via internal/capture.
package output

// DisplayTarget selects where a Screen's pixels end up.
type DisplayTarget int

const (
	TargetVirtualWindow DisplayTarget = iota
	TargetFullscreen
	TargetNetworkEgress
)

// WarpMode selects how a Slice maps environment UVs onto its output rect.
type WarpMode int

const (
	WarpIdentity WarpMode = iota
	WarpQuadrilateral
	WarpMesh
)

// Rect is a normalized (0..1) sub-rectangle.
type Rect struct{ X, Y, W, H float64 }

// ColorPipeline is the per-screen final fullscreen color pass.
type ColorPipeline struct {
	Brightness float64 // -1..1, 0 = unchanged
	Contrast   float64 // 0..2, 1 = unchanged
	GainR      float64
	GainG      float64
	GainB      float64
	Opacity    float64
}

// DefaultColorPipeline returns the identity pipeline.
func DefaultColorPipeline() ColorPipeline {
	return ColorPipeline{Contrast: 1, GainR: 1, GainG: 1, GainB: 1, Opacity: 1}
}

// EdgeRegion is one edge's blend configuration.
type EdgeRegion struct {
	Enabled    bool
	Width      float64 // fraction of screen size
	Power      float64
	Gamma      float64
	BlackLevel float64
}

// EdgeBlendConfig holds all four edges of a screen.
type EdgeBlendConfig struct {
	Left, Right, Top, Bottom EdgeRegion
}

// Corners is the four free corner offsets for Quadrilateral warp,
// expressed as normalized displacement from the slice's own output rect
// corners (TL, TR, BR, BL).
type Corners [4][2]float64

// MeshGrid is an N×M control grid of normalized (u, v) sample
// displacements for Mesh warp, row-major, bilinearly interpolated
// between control points.
type MeshGrid struct {
	Cols, Rows int
	Points     [][2]float64 // len == Cols*Rows
}

// Slice maps a sub-rect of the environment texture onto part of a
// Screen's output surface.
type Slice struct {
	InputRect  Rect
	OutputRect Rect
	Warp       WarpMode
	Quad       Corners
	Mesh       MeshGrid
	RotationCW int // 0, 90, 180, 270
	FlipH      bool
	FlipV      bool
	SoftEdge   float64 // normalized feather width applied at slice boundary
	Mask       []byte  // optional per-pixel alpha mask, OutputRect-sized; nil = no mask
}

// Screen is one physical or virtual output surface.
type Screen struct {
	Name       string
	Target     DisplayTarget
	DisplayID  string // OS-level display identifier, only meaningful for TargetFullscreen
	Width      int
	Height     int
	Enabled    bool
	EdgeBlend  EdgeBlendConfig
	Color      ColorPipeline
	Slices     []Slice
}

// NewScreen returns a Screen with identity color pipeline and no slices.
func NewScreen(name string, width, height int) *Screen {
	return &Screen{Name: name, Width: width, Height: height, Enabled: true, Color: DefaultColorPipeline()}
}
