package bpm

import (
	"testing"
	"time"
)

func TestNewClockDefaultsTo120BPM(t *testing.T) {
	c := NewClock()
	if c.BPM() != 120 {
		t.Fatalf("expected default 120 BPM, got %v", c.BPM())
	}
}

func TestSetBPMClearsTaps(t *testing.T) {
	c := NewClock()
	now := time.Unix(0, 0)
	c.Tap(now)
	c.Tap(now.Add(500 * time.Millisecond))
	c.SetBPM(140)
	if c.BPM() != 140 {
		t.Fatalf("expected 140 BPM, got %v", c.BPM())
	}
	if len(c.taps) != 0 {
		t.Fatalf("expected taps cleared after SetBPM")
	}
}

func TestTapTempoAveragesIntervals(t *testing.T) {
	c := NewClock()
	start := time.Unix(0, 0)
	interval := 500 * time.Millisecond // 120 BPM
	for i := 0; i < 4; i++ {
		c.Tap(start.Add(time.Duration(i) * interval))
	}
	if diff := c.BPM() - 120; diff < -0.01 || diff > 0.01 {
		t.Fatalf("expected ~120 BPM from 500ms taps, got %v", c.BPM())
	}
}

func TestTapTempoDiscardsStaleTaps(t *testing.T) {
	c := NewClock()
	start := time.Unix(0, 0)
	c.Tap(start)
	c.Tap(start.Add(3 * time.Second)) // beyond tapTimeout relative to the first
	if len(c.taps) != 1 {
		t.Fatalf("expected stale tap discarded, window should contain only the latest, got %d taps", len(c.taps))
	}
}

func TestTapTempoCapsWindowAtMaxTaps(t *testing.T) {
	c := NewClock()
	start := time.Unix(0, 0)
	for i := 0; i < 20; i++ {
		c.Tap(start.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	if len(c.taps) != maxTaps {
		t.Fatalf("expected taps capped at %d, got %d", maxTaps, len(c.taps))
	}
}

func TestAdvanceTracksBeatAndBarIndex(t *testing.T) {
	c := NewClock()
	c.SetBPM(120) // 0.5s per beat, 2s per bar
	for i := 0; i < 9; i++ {
		c.Advance(250 * time.Millisecond)
	}
	// 9 * 250ms = 2.25s elapsed = 4.5 beats -> beat index 0 (4%4), bar index 1
	if c.BarIndex() != 1 {
		t.Fatalf("expected bar index 1 after 2.25s at 120 BPM, got %v", c.BarIndex())
	}
}

func TestBeatPhaseWrapsWithinBeat(t *testing.T) {
	c := NewClock()
	c.SetBPM(120) // 0.5s per beat
	c.Advance(250 * time.Millisecond)
	phase := c.BeatPhase()
	if phase < 0.49 || phase > 0.51 {
		t.Fatalf("expected beat phase ~0.5 halfway through a beat, got %v", phase)
	}
}
