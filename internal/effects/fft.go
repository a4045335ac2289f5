package effects

import "math"

// Fft is the Fft automation source: a smoothed envelope of
// `clamp(band_value * gain, 0, 1)` using asymmetric one-pole exponential
// filters (fast attack, slower release).
type Fft struct {
	Band       int
	Gain       float64
	AttackMs   float64
	ReleaseMs  float64

	env float64
}

// Effective implements AutomationSource.
func (f *Fft) Effective(base ParamValue, lo, hi float64, t Timing) ParamValue {
	target := 0.0
	if f.Band >= 0 && f.Band < len(t.FftBands) {
		target = clampRange(t.FftBands[f.Band]*f.Gain, 0, 1)
	}

	dtMs := t.DtSeconds * 1000
	timeConstant := f.ReleaseMs
	if target > f.env {
		timeConstant = f.AttackMs
	}
	if timeConstant <= 0 {
		f.env = target
	} else {
		alpha := 1 - math.Exp(-dtMs/timeConstant)
		f.env += (target - f.env) * alpha
	}

	return base.WithFloat(clampRange(lo+f.env*(hi-lo), lo, hi))
}
