// Package bpm implements the shared tempo clock that drives every
// effect automation source's beat/bar phase (internal/effects' Lfo
// sync_to_bpm mode and Beat trigger boundaries). Tap-tempo averaging
// feeds a running BPM estimate; beat/bar phase tracking follows the
// same tick-driven update convention as internal/composition's
// Controller.Drain.
package bpm

import "time"

const (
	defaultBPM = 120
	// maxTaps bounds the sliding window tap_tempo averages over.
	maxTaps = 8
	// tapTimeout discards taps older than this from the current session.
	tapTimeout = 2 * time.Second
)

// Clock tracks elapsed time, current BPM, and beat/bar phase/index. It is
// not safe for concurrent use from multiple goroutines without external
// synchronization — callers update it once per render tick, the same
// single-writer discipline the composition Controller uses for its
// command queue.
type Clock struct {
	bpm float64

	elapsed   time.Duration
	beatIndex uint64
	barIndex  uint64

	taps []time.Time
}

// NewClock returns a Clock at the default 120 BPM.
func NewClock() *Clock {
	return &Clock{bpm: defaultBPM}
}

// SetBPM sets the tempo directly, clearing any in-progress tap sequence.
func (c *Clock) SetBPM(bpm float64) {
	if bpm <= 0 {
		return
	}
	c.bpm = bpm
	c.taps = nil
}

// BPM returns the current tempo.
func (c *Clock) BPM() float64 { return c.bpm }

// Tap records a tap-tempo press at `now` and updates BPM from the
// average interval between recent taps, discarding taps older than
// tapTimeout and keeping at most the last maxTaps.
func (c *Clock) Tap(now time.Time) {
	cutoff := now.Add(-tapTimeout)
	kept := c.taps[:0]
	for _, t := range c.taps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.taps = append(kept, now)
	if len(c.taps) > maxTaps {
		c.taps = c.taps[len(c.taps)-maxTaps:]
	}

	if len(c.taps) < 2 {
		return
	}

	total := c.taps[len(c.taps)-1].Sub(c.taps[0])
	intervals := len(c.taps) - 1
	avg := total / time.Duration(intervals)
	if avg <= 0 {
		return
	}
	c.bpm = 60 / avg.Seconds()
}

// Advance moves the clock forward by dt, updating beat/bar phase and
// index. Beat length is 60/bpm seconds; a bar is 4 beats.
func (c *Clock) Advance(dt time.Duration) {
	c.elapsed += dt
	beatSeconds := 60 / c.bpm
	totalBeats := c.elapsed.Seconds() / beatSeconds
	c.beatIndex = uint64(totalBeats) % 4
	c.barIndex = uint64(totalBeats) / 4
}

// BeatPhase returns the fractional position (0..1) within the current
// beat.
func (c *Clock) BeatPhase() float64 {
	beatSeconds := 60 / c.bpm
	totalBeats := c.elapsed.Seconds() / beatSeconds
	_, frac := splitInt(totalBeats)
	return frac
}

// BarPhase returns the fractional position (0..1) within the current
// bar (4 beats).
func (c *Clock) BarPhase() float64 {
	beatSeconds := 60 / c.bpm
	totalBars := c.elapsed.Seconds() / (beatSeconds * 4)
	_, frac := splitInt(totalBars)
	return frac
}

// BeatIndex returns the beat within the current bar (0..3); BarIndex
// returns whole bars elapsed. Together they detect trigger-boundary
// crossings.
func (c *Clock) BeatIndex() uint64 { return c.beatIndex }
func (c *Clock) BarIndex() uint64  { return c.barIndex }

// ElapsedSeconds returns total elapsed clock time.
func (c *Clock) ElapsedSeconds() float64 { return c.elapsed.Seconds() }

func splitInt(v float64) (int64, float64) {
	i := int64(v)
	return i, v - float64(i)
}
