// Package effects implements the per-clip/layer/environment effect
// stacks and the BPM/LFO/beat/FFT/timeline automation that drives their
// parameters each frame, using ADSR envelope and waveform generators
// driven by the video frame clock rather than an audio sample clock.
package effects

import "fmt"

// ValueKind discriminates the ParamValue union.
type ValueKind int

const (
	KindFloat ValueKind = iota
	KindInt
	KindBool
	KindColor
	KindVec2
	KindVec3
	KindEnum
	KindString
)

// Color is a normalized RGBA value.
type Color struct{ R, G, B, A float64 }

// Vec2/Vec3 are plain float tuples; kept distinct from Color for clarity
// at call sites even though the representation would otherwise overlap.
type Vec2 struct{ X, Y float64 }
type Vec3 struct{ X, Y, Z float64 }

// ParamValue is the tagged union described by the effect parameter model:
// Float, Int, Bool, Color, Vec2, Vec3, Enum(index, options), String.
type ParamValue struct {
	Kind    ValueKind
	Float   float64
	Int     int
	Bool    bool
	Color   Color
	Vec2    Vec2
	Vec3    Vec3
	Enum    int
	Options []string
	String  string
}

func FloatValue(v float64) ParamValue  { return ParamValue{Kind: KindFloat, Float: v} }
func IntValue(v int) ParamValue        { return ParamValue{Kind: KindInt, Int: v} }
func BoolValue(v bool) ParamValue      { return ParamValue{Kind: KindBool, Bool: v} }
func ColorValue(v Color) ParamValue    { return ParamValue{Kind: KindColor, Color: v} }
func Vec2Value(v Vec2) ParamValue      { return ParamValue{Kind: KindVec2, Vec2: v} }
func Vec3Value(v Vec3) ParamValue      { return ParamValue{Kind: KindVec3, Vec3: v} }
func StringValue(v string) ParamValue  { return ParamValue{Kind: KindString, String: v} }
func EnumValue(idx int, options []string) ParamValue {
	return ParamValue{Kind: KindEnum, Enum: idx, Options: options}
}

// AsFloat returns the value's scalar numeric interpretation, used by the
// automation resolvers which only ever modulate Float/Int parameters.
func (v ParamValue) AsFloat() float64 {
	switch v.Kind {
	case KindFloat:
		return v.Float
	case KindInt:
		return float64(v.Int)
	case KindBool:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// WithFloat returns a copy of v with its scalar component replaced,
// preserving Kind so Int parameters round back to an Int value.
func (v ParamValue) WithFloat(f float64) ParamValue {
	switch v.Kind {
	case KindInt:
		v.Int = int(f)
	default:
		v.Kind = KindFloat
		v.Float = f
	}
	return v
}

// ParamMeta is a parameter's static description.
type ParamMeta struct {
	Name    string
	Label   string
	Default ParamValue
	Min     float64
	Max     float64
	Step    float64
	HasMinMax bool
}

func (m ParamMeta) String() string {
	return fmt.Sprintf("%s[%g..%g]", m.Name, m.Min, m.Max)
}

// Param pairs a ParamMeta with its current base value and an optional
// automation source.
type Param struct {
	Meta       ParamMeta
	Value      ParamValue
	Automation AutomationSource // nil if unautomated
}

// AutomationSource is implemented by Lfo, Beat, Fft and Timeline.
type AutomationSource interface {
	// Effective computes the resolved value given the parameter's base
	// value and [lo, hi] range, and the current frame's Timing.
	Effective(base ParamValue, lo, hi float64, t Timing) ParamValue
}

// Timing is the shared per-frame clock state every automation source
// reads from; the compositor fills one of these once per tick and
// passes it to every stack's Resolve call.
type Timing struct {
	// NowSeconds is monotonic elapsed time since the BPM clock started.
	NowSeconds float64
	// DtSeconds is the elapsed time since the previous frame.
	DtSeconds float64
	// BPM is the current tempo.
	BPM float64
	// BeatPhase is 0..1 within the current beat, BarPhase 0..1 within
	// the current bar (assumed 4 beats/bar).
	BeatPhase float64
	BarPhase  float64
	// BeatIndex is the beat within the current bar (0..3) and BarIndex
	// counts whole bars elapsed, used to detect trigger-boundary
	// crossings for Beat automation.
	BeatIndex uint64
	BarIndex  uint64
	// FftBands holds the most recent FFT magnitude per band, 0..1.
	FftBands []float64
}

// clampRange clamps v into [lo, hi]; if lo >= hi (degenerate range) v is
// returned unchanged rather than collapsing to a single point.
func clampRange(v, lo, hi float64) float64 {
	if lo >= hi {
		return v
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
