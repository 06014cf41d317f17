package oversample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeTable(t *testing.T) {
	factors := map[Mode]int{
		ModeNone:     1,
		Mode2xMedium: 2,
		Mode2xHigh:   2,
		Mode3xMedium: 3,
		Mode3xHigh:   3,
		Mode4xMedium: 4,
		Mode4xHigh:   4,
		Mode6xMedium: 6,
		Mode6xHigh:   6,
		Mode8xMedium: 8,
		Mode8xHigh:   8,
	}

	for m, factor := range factors {
		assert.True(t, m.Valid(), "mode %v should be valid", m)
		assert.Equal(t, factor, m.Factor(), "mode %v factor", m)

		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	assert.False(t, Mode(99).Valid())
	assert.Equal(t, 0, Mode(99).Factor())

	_, err := ParseMode("definitely-not-a-mode")
	assert.Error(t, err)

	assert.Len(t, Modes(), 11)
}

func TestNewValidation(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)

	o, err := New(256)
	require.NoError(t, err)
	assert.Equal(t, ModeNone, o.Mode())
	assert.Equal(t, 1, o.Factor())
	assert.Equal(t, 0, o.Latency())

	assert.ErrorIs(t, o.SetMode(Mode(42)), ErrInvalidMode)
}

func TestModeNonePassthrough(t *testing.T) {
	o, err := New(64)
	require.NoError(t, err)

	src := []float64{0.1, -0.2, 0.3, -0.4}
	up := make([]float64, len(src))
	o.Upsample(up, src)
	assert.Equal(t, src, up)

	down := make([]float64, len(src))
	o.Downsample(down, up)
	assert.Equal(t, src, down)
}

func TestImpulseDelayMatchesLatency(t *testing.T) {
	modes := []Mode{
		Mode2xMedium, Mode2xHigh,
		Mode3xMedium, Mode3xHigh,
		Mode4xMedium, Mode4xHigh,
		Mode6xMedium, Mode6xHigh,
		Mode8xMedium, Mode8xHigh,
	}

	for _, m := range modes {
		o, err := New(256)
		require.NoError(t, err)
		require.NoError(t, o.SetMode(m))

		n := 256
		src := make([]float64, n)
		src[0] = 1

		ovs := make([]float64, n*o.Factor())
		o.Upsample(ovs, src)

		dst := make([]float64, n)
		o.Downsample(dst, ovs)

		peakIdx := 0
		for i, v := range dst {
			if math.Abs(v) > math.Abs(dst[peakIdx]) {
				peakIdx = i
			}
		}

		assert.Equal(t, o.Latency(), peakIdx, "mode %v impulse peak position", m)
	}
}

func TestDCGainUnity(t *testing.T) {
	for _, m := range []Mode{Mode2xMedium, Mode4xHigh, Mode8xMedium} {
		o, err := New(128)
		require.NoError(t, err)
		require.NoError(t, o.SetMode(m))

		n := 128
		src := make([]float64, n)
		for i := range src {
			src[i] = 1
		}

		ovs := make([]float64, n*o.Factor())
		dst := make([]float64, n)

		// Run a few blocks so the filters settle.
		for range 4 {
			o.Upsample(ovs, src)
			o.Downsample(dst, ovs)
		}

		for i := n / 2; i < n; i++ {
			assert.InDelta(t, 1.0, dst[i], 1e-2, "mode %v DC sample %d", m, i)
		}
	}
}

func TestSineFidelity(t *testing.T) {
	o, err := New(512)
	require.NoError(t, err)
	require.NoError(t, o.SetMode(Mode2xHigh))

	const (
		sampleRate = 48000.0
		freq       = 1000.0
	)

	n := 512
	src := make([]float64, n)
	for i := range src {
		src[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}

	ovs := make([]float64, n*2)
	dst := make([]float64, n)

	o.Upsample(ovs, src)
	o.Downsample(dst, ovs)

	// Skip the latency plus the filter span that still sees the zero
	// pre-block history.
	lat := o.Latency()
	for i := 2 * lat; i < n; i++ {
		want := math.Sin(2 * math.Pi * freq * float64(i-lat) / sampleRate)
		assert.InDelta(t, want, dst[i], 2e-2, "sample %d", i)
	}
}

func TestStreamingMatchesOneShot(t *testing.T) {
	mk := func() *Oversampler {
		o, err := New(256)
		require.NoError(t, err)
		require.NoError(t, o.SetMode(Mode3xMedium))

		return o
	}

	n := 240
	src := make([]float64, n)
	for i := range src {
		src[i] = math.Sin(0.05*float64(i)) * math.Cos(0.013*float64(i))
	}

	whole := mk()
	wantOvs := make([]float64, n*3)
	whole.Upsample(wantOvs, src)
	wantOut := make([]float64, n)
	whole.Downsample(wantOut, wantOvs)

	split := mk()
	gotOvs := make([]float64, n*3)
	gotOut := make([]float64, n)

	for _, chunk := range [][2]int{{0, 100}, {100, 137}, {137, 240}} {
		lo, hi := chunk[0], chunk[1]
		split.Upsample(gotOvs[lo*3:hi*3], src[lo:hi])
		split.Downsample(gotOut[lo:hi], gotOvs[lo*3:hi*3])
	}

	for i := range wantOvs {
		require.InDelta(t, wantOvs[i], gotOvs[i], 1e-12, "oversampled sample %d", i)
	}

	for i := range wantOut {
		require.InDelta(t, wantOut[i], gotOut[i], 1e-12, "output sample %d", i)
	}
}

func TestResetClearsHistory(t *testing.T) {
	o, err := New(64)
	require.NoError(t, err)
	require.NoError(t, o.SetMode(Mode2xMedium))

	src := make([]float64, 64)
	for i := range src {
		src[i] = 1
	}

	ovs := make([]float64, 128)
	o.Upsample(ovs, src)
	o.Reset()

	// After reset, the response to a zero block is exactly zero.
	zeroIn := make([]float64, 64)
	o.Upsample(ovs, zeroIn)

	for i, v := range ovs {
		require.Zero(t, v, "sample %d", i)
	}
}
