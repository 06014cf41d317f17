// Package meter provides the level measurements driving the gain readouts:
// block peak, a windowed RMS envelope, and the wet/dry RMS ratio.
package meter

import (
	"fmt"
	"math"

	"github.com/meko-christian/algo-approx"
)

const (
	// ratioFloor is the input level below which the RMS ratio reads unity,
	// -72 dBFS in linear terms. Quieter inputs would turn the ratio into
	// a noise-driven random walk.
	ratioFloor = 2.5118864315095824e-4

	ln10 = 2.302585092994045684017991454684
)

// PeakValue returns the largest absolute sample value in buf.
func PeakValue(buf []float64) float64 {
	peak := 0.0
	for _, v := range buf {
		if v < 0 {
			v = -v
		}

		if v > peak {
			peak = v
		}
	}

	return peak
}

// Ratio returns the RMS gain ratio out/in, reading unity when the input is
// below the -72 dB floor.
func Ratio(out, in float64) float64 {
	if in < ratioFloor {
		return 1
	}

	return out / in
}

// FastDB converts a linear amplitude to decibels using the approximated
// logarithm. Non-positive inputs clamp to the floor.
func FastDB(x float64) float64 {
	if x < ratioFloor {
		x = ratioFloor
	}

	return 20 * approx.FastLog(x) / ln10
}

// RMS is a sliding-window RMS envelope follower. The window length tracks
// the configured reactivity time.
type RMS struct {
	reactivity float64

	window []float64
	head   int
	sum    float64
}

// NewRMS returns an RMS meter with the given window length in milliseconds.
func NewRMS(sampleRate, reactivityMs float64) (*RMS, error) {
	if reactivityMs <= 0 {
		return nil, fmt.Errorf("meter: reactivity must be > 0 ms: %g", reactivityMs)
	}

	r := &RMS{reactivity: reactivityMs}
	if err := r.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}

	return r, nil
}

// SetSampleRate resizes the window for a new sample rate and resets the
// accumulated state.
func (r *RMS) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("meter: sample rate must be > 0: %g", sampleRate)
	}

	length := int(math.Round(r.reactivity * 0.001 * sampleRate))
	if length < 1 {
		length = 1
	}

	r.window = make([]float64, length)
	r.head = 0
	r.sum = 0

	return nil
}

// Reset clears the window contents.
func (r *RMS) Reset() {
	for i := range r.window {
		r.window[i] = 0
	}

	r.head = 0
	r.sum = 0
}

// Process writes the running RMS of src into dst, sample by sample. dst may
// alias src. len(dst) must equal len(src).
func (r *RMS) Process(dst, src []float64) {
	norm := 1 / float64(len(r.window))

	for i, v := range src {
		sq := v * v

		r.sum += sq - r.window[r.head]
		r.window[r.head] = sq

		r.head++
		if r.head >= len(r.window) {
			r.head = 0
		}

		// The incremental sum can drift slightly negative on silence.
		s := r.sum
		if s <= 0 {
			dst[i] = 0
			continue
		}

		dst[i] = approx.FastSqrt(s * norm)
	}
}

// Value returns the current RMS level without consuming new samples.
func (r *RMS) Value() float64 {
	s := r.sum
	if s <= 0 {
		return 0
	}

	return approx.FastSqrt(s / float64(len(r.window)))
}
