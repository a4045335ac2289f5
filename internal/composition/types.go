// Package composition holds the layer/column/clip data model described by
// the project format: an ordered grid of layers, each with a fixed number
// of clip slots, plus master render settings.
package composition

import (
	"fmt"

	"github.com/google/uuid"
)

// CompositionError provides detailed error context for composition
// operations.
type CompositionError struct {
	Operation string
	Details   string
	Err       error
}

func (e *CompositionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("composition %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("composition %s failed: %s", e.Operation, e.Details)
}

func (e *CompositionError) Unwrap() error { return e.Err }

// BlendMode selects how a layer's composite is combined into the
// environment texture.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendAdd
	BlendMultiply
	BlendScreen
	BlendOverlay
)

func (b BlendMode) String() string {
	switch b {
	case BlendNormal:
		return "Normal"
	case BlendAdd:
		return "Add"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendOverlay:
		return "Overlay"
	default:
		return "Unknown"
	}
}

// TriggerMode controls how activating a clip slot behaves.
type TriggerMode int

const (
	TriggerToggle TriggerMode = iota
	TriggerFlash
	TriggerOneShot
)

// TransitionKind selects how a layer switches between active slots.
type TransitionKind int

const (
	TransitionCut TransitionKind = iota
	TransitionFade
)

// Transition describes a layer's configured slot-switch behavior.
type Transition struct {
	Kind     TransitionKind
	FadeMS   float64
	progress float64 // 0..1, only meaningful mid-fade
	fromSlot int      // -1 when not mid-transition
	toSlot   int
}

// Transform2D is the layer's placement of its clip content within the
// environment texture.
type Transform2D struct {
	PosX, PosY     float64 // pixels
	ScaleX, ScaleY float64 // unitless, 1.0 = native size
	RotationRad    float64
	AnchorX        float64 // 0..1 normalized
	AnchorY        float64
}

// DefaultTransform returns the identity placement: centered, unscaled,
// unrotated, anchored at the clip's own center.
func DefaultTransform() Transform2D {
	return Transform2D{ScaleX: 1, ScaleY: 1, AnchorX: 0.5, AnchorY: 0.5}
}

// RGBA is a normalized (0..1 per channel) color value.
type RGBA struct{ R, G, B, A float64 }

// LoopMode controls how a video clip behaves past its last frame.
type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopLoop
	LoopPingPong
)

// GeneratorKind enumerates the built-in procedural clip sources.
type GeneratorKind int

const (
	GeneratorNoise GeneratorKind = iota
	GeneratorGradient
	GeneratorPlasma
	GeneratorTestPattern
	GeneratorColorBars
)

// ClipKind tags which payload a Clip carries.
type ClipKind int

const (
	ClipVideo ClipKind = iota
	ClipImage
	ClipSolidColor
	ClipGenerator
)

// Clip is the media payload assigned to a slot. Exactly one of the
// kind-specific fields is meaningful, selected by Kind.
type Clip struct {
	UniqueID uuid.UUID
	Kind     ClipKind

	// Video / Image
	Path   string
	Width  int
	Height int

	// Video only
	DurationS float64
	FPS       float64
	Loop      LoopMode

	// SolidColor
	Color RGBA

	// Generator
	GeneratorKind GeneratorKind
	// Parameters holds generator settings by name as plain float64
	// values (e.g. "speed"); they are not effects.ParamValue values, and
	// the effects automation resolver does not read them.
	Parameters map[string]float64
}

// Dimensions returns the clip's native pixel size; generators and solid
// colors report the slot's requested render size instead (set at upload
// time), which is why callers pass a fallback.
func (c Clip) Dimensions(fallbackW, fallbackH int) (int, int) {
	if c.Width > 0 && c.Height > 0 {
		return c.Width, c.Height
	}
	return fallbackW, fallbackH
}
