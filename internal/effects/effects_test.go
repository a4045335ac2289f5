package effects

import (
	"math"
	"testing"
)

func TestLfoSinePhaseZeroIsZero(t *testing.T) {
	l := &Lfo{Shape: LfoSine, FrequencyHz: 1, Amplitude: 1}
	v := l.Effective(FloatValue(0.5), 0, 1, Timing{NowSeconds: 0})
	if math.Abs(v.Float-0.5) > 1e-9 {
		t.Fatalf("expected base value at phase 0, got %v", v.Float)
	}
}

func TestLfoClampsToRange(t *testing.T) {
	l := &Lfo{Shape: LfoSquare, FrequencyHz: 1, Amplitude: 10}
	v := l.Effective(FloatValue(0.5), 0, 1, Timing{NowSeconds: 0.1})
	if v.Float < 0 || v.Float > 1 {
		t.Fatalf("expected clamped value in [0,1], got %v", v.Float)
	}
}

func TestLfoTriangleSymmetric(t *testing.T) {
	l := &Lfo{Shape: LfoTriangle, FrequencyHz: 1, Amplitude: 1}
	half := l.waveform(0.5)
	zero := l.waveform(0)
	if math.Abs(half-1) > 1e-9 {
		t.Fatalf("expected triangle peak 1 at phase 0.5, got %v", half)
	}
	if math.Abs(zero-(-1)) > 1e-9 {
		t.Fatalf("expected triangle trough -1 at phase 0, got %v", zero)
	}
}

func TestBeatEnvelopeRisesDuringAttack(t *testing.T) {
	b := &Beat{Trigger: TriggerBeat, AttackMs: 100, DecayMs: 50, Sustain: 0.5, ReleaseMs: 50}
	timing := Timing{BPM: 120, DtSeconds: 0.01}
	var last float64
	for i := 0; i < 5; i++ {
		v := b.Effective(FloatValue(0), 0, 1, timing)
		if v.Float < last {
			t.Fatalf("expected monotonic rise during attack, got %v after %v", v.Float, last)
		}
		last = v.Float
	}
}

func TestBeatRetriggersOnBoundary(t *testing.T) {
	b := &Beat{Trigger: TriggerBeat, AttackMs: 10, DecayMs: 10, Sustain: 0.2, ReleaseMs: 500}
	timing := Timing{BPM: 120, DtSeconds: 0.3}
	b.Effective(FloatValue(0), 0, 1, timing)
	b.Effective(FloatValue(0), 0, 1, timing)
	timing.BeatIndex = 1
	v := b.Effective(FloatValue(0), 0, 1, timing)
	if b.phase != envAttack && v.Float < 0.9 {
		t.Fatalf("expected retrigger to begin a fresh attack ramp, got phase=%v level=%v", b.phase, v.Float)
	}
}

func TestFftEnvelopeRisesTowardTarget(t *testing.T) {
	f := &Fft{Band: 0, Gain: 1, AttackMs: 50, ReleaseMs: 200}
	timing := Timing{DtSeconds: 0.016, FftBands: []float64{1}}
	var prev float64
	for i := 0; i < 10; i++ {
		v := f.Effective(FloatValue(0), 0, 1, timing)
		if v.Float < prev {
			t.Fatalf("expected monotonic rise, got %v after %v", v.Float, prev)
		}
		if v.Float > 1 {
			t.Fatalf("expected envelope to stay within [0,1], got %v", v.Float)
		}
		prev = v.Float
	}
}

func TestTimelineLoopWraps(t *testing.T) {
	tl := &Timeline{DurationMs: 1000, Mode: TimelineLoop}
	v1 := tl.Effective(FloatValue(0), 0, 1, Timing{NowSeconds: 0})
	v2 := tl.Effective(FloatValue(0), 0, 1, Timing{NowSeconds: 1.5})
	if v1.Float > v2.Float {
		t.Fatalf("expected wrapped position, got v1=%v v2=%v", v1.Float, v2.Float)
	}
}

func TestTimelinePlayOnceHoldsAtOne(t *testing.T) {
	tl := &Timeline{DurationMs: 100, Mode: TimelinePlayOnceAndHold}
	tl.Effective(FloatValue(0), 0, 1, Timing{NowSeconds: 0})
	v := tl.Effective(FloatValue(0), 0, 1, Timing{NowSeconds: 10})
	if math.Abs(v.Float-1) > 1e-9 {
		t.Fatalf("expected held at 1 after duration elapsed, got %v", v.Float)
	}
}

func TestEffectStackSoloIsolatesOneEffect(t *testing.T) {
	s := NewEffectStack("clip")
	a, _ := s.Append("invert", "a")
	b, _ := s.Append("mirror_h", "b")
	b.Soloed = true

	active := s.ActiveSet()
	if len(active) != 1 || active[0].ID != b.ID {
		t.Fatalf("expected only soloed effect %d active, got %v", b.ID, active)
	}
	_ = a
}

func TestEffectStackBypassedExcluded(t *testing.T) {
	s := NewEffectStack("layer")
	a, _ := s.Append("invert", "a")
	a.Bypassed = true
	if len(s.ActiveSet()) != 0 {
		t.Fatalf("expected no active effects when the only one is bypassed")
	}
}

func TestEffectStackEmptyIsPassthrough(t *testing.T) {
	s := NewEffectStack("environment")
	input := []byte{10, 20, 30, 255, 40, 50, 60, 255}
	out := s.Process(input, 2, 1, Timing{})
	for i := range input {
		if input[i] != out[i] {
			t.Fatalf("expected pass-through output to equal input, mismatch at %d", i)
		}
	}
}

func TestInvertEffectFullAmountInvertsChannels(t *testing.T) {
	impl := invertEffect{}
	in := []byte{10, 200, 50, 255}
	out := make([]byte, 4)
	impl.Process(in, out, 1, 1, map[string]ParamValue{"amount": FloatValue(1)})
	if out[0] != 245 || out[1] != 55 || out[2] != 205 || out[3] != 255 {
		t.Fatalf("unexpected inverted pixel: %v", out)
	}
}

func TestMirrorHEffectFlipsRow(t *testing.T) {
	impl := mirrorHEffect{}
	in := []byte{1, 1, 1, 255, 2, 2, 2, 255, 3, 3, 3, 255}
	out := make([]byte, len(in))
	impl.Process(in, out, 3, 1, nil)
	if out[0] != 3 || out[4] != 2 || out[8] != 1 {
		t.Fatalf("expected row reversed, got %v", out)
	}
}

func TestPoolRunChainsMultipleEffects(t *testing.T) {
	s := NewEffectStack("clip")
	s.Append("invert", "a")
	s.Append("invert", "b")
	input := []byte{10, 20, 30, 255}
	out := s.Process(input, 1, 1, Timing{})
	for i := 0; i < 3; i++ {
		if out[i] != input[i] {
			t.Fatalf("expected double-invert to be identity, got %v want %v at %d", out[i], input[i], i)
		}
	}
}
