// Package bypass implements a click-free dry/wet switch: toggling bypass
// ramps linearly between the processed and the unprocessed signal instead of
// switching instantly.
package bypass

import "fmt"

// rampSeconds is the transition time between the two states.
const rampSeconds = 0.005

// Switch crossfades between a dry and a wet signal according to its bypass
// state. The zero value passes wet through; call Init before use so the ramp
// time matches the sample rate.
type Switch struct {
	bypassed bool

	// mix is the current dry share in [0, 1]; step is the per-sample ramp
	// increment toward the target.
	mix  float64
	step float64
}

// Init configures the ramp for the given sample rate and snaps the switch to
// its current target state.
func (s *Switch) Init(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("bypass: sample rate must be > 0: %g", sampleRate)
	}

	s.step = 1 / (rampSeconds * sampleRate)

	s.mix = 0
	if s.bypassed {
		s.mix = 1
	}

	return nil
}

// SetBypass sets the target state. The transition happens inside Process.
func (s *Switch) SetBypass(bypassed bool) {
	s.bypassed = bypassed
}

// Bypassed returns the target state.
func (s *Switch) Bypassed() bool {
	return s.bypassed
}

// Active reports whether the switch is fully or partially toward dry.
func (s *Switch) Active() bool {
	return s.bypassed || s.mix > 0
}

// Process writes the blend of dry and wet into dst, ramping toward the
// target state. All slices must have equal length; dst may alias either
// input.
func (s *Switch) Process(dst, dry, wet []float64) {
	target := 0.0
	if s.bypassed {
		target = 1.0
	}

	step := s.step
	if step <= 0 {
		step = 1
	}

	for i := range dst {
		if s.mix < target {
			s.mix += step
			if s.mix > target {
				s.mix = target
			}
		} else if s.mix > target {
			s.mix -= step
			if s.mix < target {
				s.mix = target
			}
		}

		dst[i] = wet[i] + (dry[i]-wet[i])*s.mix
	}
}
