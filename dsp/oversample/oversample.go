// Package oversample provides an integer-factor streaming oversampler for
// nonlinear processing stages. Upsampling and downsampling share one
// Kaiser-windowed sinc prototype per direction, sized so that the combined
// up/down group delay is a whole number of input-rate samples; Latency
// reports that number for dry-path compensation.
package oversample

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMode indicates an unknown oversampling mode.
var ErrInvalidMode = errors.New("oversample: invalid mode")

const (
	// Taps per filter side, per quality tier, measured in input-rate samples.
	mediumTapsPerSide = 8
	highTapsPerSide   = 12

	mediumKaiserBeta = 7.0
	highKaiserBeta   = 10.0

	// Cutoff relative to the input-rate Nyquist, leaving transition headroom.
	cutoffScale = 0.9
)

// Oversampler converts blocks between the input rate and factor times the
// input rate. Block length must not exceed the capacity given at
// construction. All buffers are allocated up front; Upsample and Downsample
// do not allocate.
type Oversampler struct {
	mode     Mode
	factor   int
	latency  int
	maxBlock int

	// Polyphase branches of the interpolation filter: upPhases[p][k]
	// multiplies input sample m-k when producing oversampled sample m*factor+p.
	upPhases [][]float64
	// Decimation filter taps at the oversampled rate.
	downTaps []float64

	upHist   []float64
	downHist []float64
	upWork   []float64
	downWork []float64
}

// New returns an oversampler that accepts blocks of at most maxBlock input
// samples, initially in ModeNone.
func New(maxBlock int) (*Oversampler, error) {
	if maxBlock <= 0 {
		return nil, fmt.Errorf("oversample: max block must be > 0: %d", maxBlock)
	}

	o := &Oversampler{maxBlock: maxBlock}
	if err := o.SetMode(ModeNone); err != nil {
		return nil, err
	}

	return o, nil
}

// SetMode selects the oversampling mode, designing the filters for it and
// clearing streaming state.
func (o *Oversampler) SetMode(m Mode) error {
	info, ok := modeTable[m]
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}

	o.mode = m
	o.factor = info.factor

	if o.factor == 1 {
		o.latency = 0
		o.upPhases = nil
		o.downTaps = nil
		o.upHist = nil
		o.downHist = nil

		return nil
	}

	side := mediumTapsPerSide
	beta := mediumKaiserBeta

	if info.high {
		side = highTapsPerSide
		beta = highKaiserBeta
	}

	taps := designLowpass(o.factor, side, beta)

	o.upPhases = splitPhases(taps, o.factor)
	o.downTaps = taps
	o.latency = 2 * side

	phaseLen := 2*side + 1
	o.upHist = make([]float64, phaseLen-1)
	o.downHist = make([]float64, len(taps)-1)
	o.upWork = make([]float64, len(o.upHist)+o.maxBlock)
	o.downWork = make([]float64, len(o.downHist)+o.maxBlock*o.factor)

	return nil
}

// Mode returns the active mode.
func (o *Oversampler) Mode() Mode { return o.mode }

// Factor returns the active oversampling factor (1 for ModeNone).
func (o *Oversampler) Factor() int { return o.factor }

// Latency returns the combined up/down group delay in input-rate samples.
func (o *Oversampler) Latency() int { return o.latency }

// MaxBlock returns the block capacity in input-rate samples.
func (o *Oversampler) MaxBlock() int { return o.maxBlock }

// Reset clears streaming history without changing the mode.
func (o *Oversampler) Reset() {
	zero(o.upHist)
	zero(o.downHist)
}

// Upsample writes factor*len(src) interpolated samples into dst. With
// ModeNone it copies src. len(src) must not exceed MaxBlock and dst must
// hold factor*len(src) samples.
func (o *Oversampler) Upsample(dst, src []float64) {
	if o.factor == 1 {
		copy(dst, src)
		return
	}

	hist := len(o.upHist)
	work := o.upWork[:hist+len(src)]
	copy(work, o.upHist)
	copy(work[hist:], src)

	for m := range src {
		base := hist + m

		for p, phase := range o.upPhases {
			var acc float64
			for k, c := range phase {
				acc += c * work[base-k]
			}

			dst[m*o.factor+p] = acc
		}
	}

	copy(o.upHist, work[len(work)-hist:])
}

// Downsample decimates len(dst)*factor oversampled samples from src into
// dst. With ModeNone it copies src.
func (o *Oversampler) Downsample(dst, src []float64) {
	if o.factor == 1 {
		copy(dst, src)
		return
	}

	hist := len(o.downHist)
	work := o.downWork[:hist+len(src)]
	copy(work, o.downHist)
	copy(work[hist:], src)

	for m := range dst {
		base := hist + m*o.factor

		var acc float64
		for j, c := range o.downTaps {
			acc += c * work[base-j]
		}

		dst[m] = acc
	}

	copy(o.downHist, work[len(work)-hist:])
}

// designLowpass builds a unity-DC-gain prototype of length 2*side*factor+1
// with cutoff at the input-rate Nyquist, expressed at the oversampled rate.
func designLowpass(factor, side int, beta float64) []float64 {
	n := 2*side*factor + 1
	fc := (0.5 / float64(factor)) * cutoffScale

	taps := make([]float64, n)
	center := float64(n-1) / 2

	for i := range taps {
		t := float64(i) - center
		taps[i] = 2 * fc * sinc(2*fc*t) * kaiserWindow(i, n, beta)
	}

	var sum float64
	for _, v := range taps {
		sum += v
	}

	for i := range taps {
		taps[i] /= sum
	}

	return taps
}

// splitPhases decomposes the prototype into factor polyphase branches scaled
// for interpolation (zero-stuffing gain compensation).
func splitPhases(taps []float64, factor int) [][]float64 {
	phases := make([][]float64, factor)

	for p := range factor {
		var phase []float64
		for i := p; i < len(taps); i += factor {
			phase = append(phase, taps[i]*float64(factor))
		}

		phases[p] = phase
	}

	return phases
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}

	pix := math.Pi * x

	return math.Sin(pix) / pix
}

func kaiserWindow(i, n int, beta float64) float64 {
	if n <= 1 || beta == 0 {
		return 1
	}

	t := 2*float64(i)/float64(n-1) - 1
	a := math.Sqrt(math.Max(0, 1-t*t))

	return i0(beta*a) / i0(beta)
}

// i0 is the zeroth-order modified Bessel function (power series).
func i0(x float64) float64 {
	sum := 1.0
	term := 1.0

	x2 := (x * x) / 4
	for k := 1; k < 64; k++ {
		term *= x2 / float64(k*k)

		sum += term
		if term < 1e-16*sum {
			break
		}
	}

	return sum
}

func zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}
