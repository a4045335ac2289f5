package effects

import (
	"math"
	"math/rand/v2"
)

// LfoShape selects the waveform shape a Lfo automation source generates.
type LfoShape int

const (
	LfoSine LfoShape = iota
	LfoTriangle
	LfoSquare
	LfoSaw
	LfoSawRev
	LfoRandom
)

// Lfo is the Lfo automation source: {shape, frequency_hz|beats, phase,
// amplitude, offset, sync_to_bpm}.
type Lfo struct {
	Shape       LfoShape
	FrequencyHz float64 // used when SyncToBPM is false
	Beats       float64 // cycle length in beats, used when SyncToBPM is true
	Phase       float64 // 0..1 phase offset
	Amplitude   float64
	Offset      float64
	SyncToBPM   bool

	rng      *rand.Rand
	lastStep float64
	lastHold float64
}

// Effective implements AutomationSource. The waveform evaluates in 0..1
// phase space; wave maps to ±amplitude around offset, and
// `(v + wave*(hi-lo)/2)` is clamped into [lo, hi].
func (l *Lfo) Effective(base ParamValue, lo, hi float64, t Timing) ParamValue {
	var phase float64
	if l.SyncToBPM {
		beatsPerCycle := l.Beats
		if beatsPerCycle <= 0 {
			beatsPerCycle = 1
		}
		totalBeats := float64(t.BarIndex)*4 + float64(t.BeatIndex) + t.BeatPhase
		phase = totalBeats/beatsPerCycle + l.Phase
	} else {
		phase = t.NowSeconds*l.FrequencyHz + l.Phase
	}
	phase -= math.Floor(phase)

	wave := l.waveform(phase)
	v := base.AsFloat()
	result := v + wave*l.Amplitude*(hi-lo)/2 + l.Offset*(hi-lo)/2
	return base.WithFloat(clampRange(result, lo, hi))
}

// waveform evaluates the shape at 0..1 phase, returning a value in
// [-1, 1] (square duty-cycle compare, triangle up/down ramp, sine via
// math.Sin, sawtooth linear ramps).
func (l *Lfo) waveform(phase float64) float64 {
	switch l.Shape {
	case LfoTriangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	case LfoSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case LfoSaw:
		return 2*phase - 1
	case LfoSawRev:
		return 1 - 2*phase
	case LfoRandom:
		return l.sampleHold(phase)
	default: // LfoSine
		return math.Sin(phase * 2 * math.Pi)
	}
}

// sampleHold holds a random value for each full cycle, re-rolling when
// phase wraps past its previous sample point (step-and-hold).
func (l *Lfo) sampleHold(phase float64) float64 {
	if l.rng == nil {
		l.rng = rand.New(rand.NewPCG(1, 2))
	}
	if phase < l.lastStep {
		l.lastHold = l.rng.Float64()*2 - 1
	}
	l.lastStep = phase
	return l.lastHold
}
