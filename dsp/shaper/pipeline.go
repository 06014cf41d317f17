package shaper

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-shaper/dsp/curve"
	"github.com/cwbudde/algo-shaper/dsp/meter"
)

// Process shapes n samples per channel from in into out. Both outer slices
// must hold one buffer of at least n samples per channel. Longer requests
// are split into sub-blocks of BufferSize; the pending curve crossfade is
// consumed by the first sub-block only. No allocation happens here.
func (s *Shaper) Process(out, in [][]float64, n int) {
	for _, ch := range s.chans {
		ch.inLevel = 0
		ch.outLevel = 0
	}

	for offset := 0; offset < n; offset += BufferSize {
		count := n - offset
		if count > BufferSize {
			count = BufferSize
		}

		blend := s.fade == fadePending
		if blend {
			s.fade = fadeActive
		}

		for c, ch := range s.chans {
			s.processBlock(ch, out[c][offset:offset+count], in[c][offset:offset+count], blend)
		}

		if s.fade == fadeActive {
			s.fade = fadeStable
		}
	}
}

// processBlock runs the full per-channel pipeline for one sub-block: input
// gain ramp, oversampled curve evaluation, downsampling, dry-path delay,
// wet/dry mix, output gain, bypass and metering.
func (s *Shaper) processBlock(ch *channel, dst, src []float64, blend bool) {
	count := len(src)
	if count == 0 {
		return
	}

	in := ch.buf.in[:count]
	dry := ch.buf.dry[:count]
	wet := ch.buf.wet[:count]
	scratch := ch.buf.scratch[:count]

	applyGain(in, src, &ch.gainIn)

	if peak := meter.PeakValue(in); peak > ch.inLevel {
		ch.inLevel = peak
	}

	ch.inRMS.Process(scratch, in)

	ovs := ch.buf.ovs[:count*ch.ovs.Factor()]
	ch.ovs.Upsample(ovs, in)

	if blend {
		step := 1 / float64(len(ovs))
		for j := range ovs {
			t := float64(j) * step
			yOld := s.prev.eval(ovs[j])
			yNew := s.cur.eval(ovs[j])
			ovs[j] = yOld + (yNew-yOld)*t
		}
	} else {
		coeffs := s.cur.coeffs[:s.cur.order]
		tangent := s.cur.tangent

		for j := range ovs {
			ovs[j] = curve.Eval(coeffs, tangent, ovs[j])
		}
	}

	ch.ovs.Downsample(wet, ovs)

	ch.dryDel.Process(dry, in)

	if s.settings.Listen {
		// Audition the shaping in isolation: wet minus aligned dry.
		for i := range wet {
			wet[i] -= dry[i]
		}

		ch.gainWet.settle()
		ch.gainDry.settle()
	} else {
		applyGain(wet, wet, &ch.gainWet)
		applyGain(scratch, dry, &ch.gainDry)
		vecmath.AddBlockInPlace(wet, scratch)
	}

	applyGain(wet, wet, &ch.gainOut)

	ch.byp.Process(dst, dry, wet)

	if peak := meter.PeakValue(dst); peak > ch.outLevel {
		ch.outLevel = peak
	}

	ch.outRMS.Process(scratch, dst)
	ch.ratio = meter.Ratio(ch.outRMS.Value(), ch.inRMS.Value())
}

// applyGain scales src into dst with the ramp's gain. A changed gain ramps
// linearly across this one block and settles; an unchanged gain takes the
// vectorized constant path. dst may alias src.
func applyGain(dst, src []float64, g *gainRamp) {
	if g.constant() {
		if g.cur == 1 {
			if &dst[0] != &src[0] {
				copy(dst, src)
			}

			return
		}

		vecmath.ScaleBlock(dst, src, g.cur)

		return
	}

	step := (g.cur - g.old) / float64(len(dst))
	gain := g.old

	for i := range dst {
		dst[i] = src[i] * gain
		gain += step
	}

	g.settle()
}
