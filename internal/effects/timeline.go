package effects

import "math"

// TimelineMode selects whether a ramp repeats or holds at completion.
type TimelineMode int

const (
	TimelineLoop TimelineMode = iota
	TimelinePlayOnceAndHold
)

// TimelineDirection selects ramp polarity.
type TimelineDirection int

const (
	RampUp TimelineDirection = iota
	RampDown
)

// Easing selects the shaping curve applied to the 0..1 ramp position.
type Easing int

const (
	EaseLinear Easing = iota
	EaseInQuad
	EaseOutQuad
	EaseInOutQuad
)

// Timeline is the Timeline automation source: a duration-bounded ramp,
// looping or holding at the end, with direction and easing.
type Timeline struct {
	DurationMs float64
	Mode       TimelineMode
	Direction  TimelineDirection
	EasingFn   Easing

	startedAt float64
	started   bool
}

// Effective implements AutomationSource.
func (tl *Timeline) Effective(base ParamValue, lo, hi float64, t Timing) ParamValue {
	if !tl.started {
		tl.startedAt = t.NowSeconds
		tl.started = true
	}
	elapsedMs := (t.NowSeconds - tl.startedAt) * 1000
	if tl.DurationMs <= 0 {
		return base.WithFloat(clampRange(lo, lo, hi))
	}

	var pos float64
	switch tl.Mode {
	case TimelineLoop:
		pos = math.Mod(elapsedMs, tl.DurationMs) / tl.DurationMs
	default: // PlayOnceAndHold
		pos = clampRange(elapsedMs/tl.DurationMs, 0, 1)
	}

	pos = applyEasing(tl.EasingFn, pos)
	if tl.Direction == RampDown {
		pos = 1 - pos
	}

	return base.WithFloat(clampRange(lo+pos*(hi-lo), lo, hi))
}

func applyEasing(e Easing, t float64) float64 {
	switch e {
	case EaseInQuad:
		return t * t
	case EaseOutQuad:
		return t * (2 - t)
	case EaseInOutQuad:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	default:
		return t
	}
}
