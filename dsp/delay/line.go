// Package delay provides a fixed-capacity integer delay line used to align
// the dry signal path with the latency of the oversampled wet path.
package delay

import "fmt"

// Line is a circular delay line with a settable integer delay.
type Line struct {
	buffer   []float64
	writePos int
	delay    int
}

// New returns a delay line able to delay by up to capacity-1 samples.
func New(capacity int) (*Line, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("delay: capacity must be > 0: %d", capacity)
	}

	return &Line{buffer: make([]float64, capacity)}, nil
}

// Capacity returns the internal buffer size.
func (d *Line) Capacity() int {
	return len(d.buffer)
}

// SetDelay sets the delay in samples. The line keeps its contents; callers
// switching latency domains typically follow up with Clear.
func (d *Line) SetDelay(samples int) error {
	if samples < 0 || samples >= len(d.buffer) {
		return fmt.Errorf("delay: delay must be in [0, %d): %d", len(d.buffer), samples)
	}

	d.delay = samples

	return nil
}

// Delay returns the configured delay in samples.
func (d *Line) Delay() int {
	return d.delay
}

// Clear zeroes the line contents.
func (d *Line) Clear() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}

	d.writePos = 0
}

// Process writes src into the line and reads the delayed signal into dst.
// dst and src may alias. len(dst) must equal len(src).
func (d *Line) Process(dst, src []float64) {
	size := len(d.buffer)

	for i := range src {
		d.buffer[d.writePos] = src[i]

		readPos := d.writePos - d.delay
		if readPos < 0 {
			readPos += size
		}

		dst[i] = d.buffer[readPos]

		d.writePos++
		if d.writePos >= size {
			d.writePos = 0
		}
	}
}
