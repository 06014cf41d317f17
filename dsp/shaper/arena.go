package shaper

// arena owns the single backing array for every processing and graph buffer.
// All views share one allocation and one lifetime; nothing on the audio path
// allocates after construction.
type arena struct {
	block []float64

	linX []float64
	linY []float64
	logX []float64
	logY []float64

	chans []channelBuffers
}

// channelBuffers are the fixed-capacity per-channel working regions.
type channelBuffers struct {
	// in holds the input after the input-gain ramp.
	in []float64
	// dry holds the latency-compensated dry signal.
	dry []float64
	// wet holds the shaped signal back at block rate.
	wet []float64
	// scratch is reused for RMS envelopes and mix intermediates.
	scratch []float64
	// ovs is the oversampled working region.
	ovs []float64
}

func newArena(channels int) *arena {
	perChannel := 4*BufferSize + BufferSize*OversamplingMax
	block := make([]float64, channels*perChannel+4*GraphDots)

	a := &arena{
		block: block,
		chans: make([]channelBuffers, channels),
	}

	off := 0
	take := func(n int) []float64 {
		s := block[off : off+n : off+n]
		off += n

		return s
	}

	for c := range a.chans {
		a.chans[c] = channelBuffers{
			in:      take(BufferSize),
			dry:     take(BufferSize),
			wet:     take(BufferSize),
			scratch: take(BufferSize),
			ovs:     take(BufferSize * OversamplingMax),
		}
	}

	a.linX = take(GraphDots)
	a.linY = take(GraphDots)
	a.logX = take(GraphDots)
	a.logY = take(GraphDots)

	return a
}
