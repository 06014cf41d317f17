// Package shaper implements a polynomial waveshaper with click-free
// parameter transitions. A cubic Bezier curve derived from four shape
// parameters is fitted to an odd-symmetric polynomial, which is applied to
// the oversampled signal; shape changes crossfade from the outgoing to the
// incoming polynomial over one processing block. The fitted response is also
// sampled into a linear and a logarithmic graph for display.
package shaper

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-shaper/dsp/bypass"
	"github.com/cwbudde/algo-shaper/dsp/core"
	"github.com/cwbudde/algo-shaper/dsp/curve"
	"github.com/cwbudde/algo-shaper/dsp/delay"
	"github.com/cwbudde/algo-shaper/dsp/meter"
	"github.com/cwbudde/algo-shaper/dsp/oversample"
)

const (
	// GraphDots is the number of points per display graph.
	GraphDots = 256
	// BufferSize is the sub-block length; longer process calls are split.
	BufferSize = 512
	// OversamplingMax is the largest supported oversampling factor.
	OversamplingMax = 8

	// RMSReactivityMs is the window length of the gain-ratio RMS meters.
	RMSReactivityMs = 40.0

	// GraphDBMin and GraphDBMax bound the logarithmic graph axis.
	GraphDBMin = -72.0
	GraphDBMax = 0.0

	minGain = 0.0
	maxGain = 16.0

	defaultSampleRate = 48000.0
)

// Settings is the full parameter snapshot consumed by UpdateSettings.
type Settings struct {
	Bypass bool
	Listen bool

	InGain  float64
	DryGain float64
	WetGain float64
	OutGain float64

	HShift      float64
	VShift      float64
	TopScale    float64
	BottomScale float64
	Order       int

	Oversampling oversample.Mode
}

// DefaultSettings returns the neutral configuration: unity gains, the
// identity-like default shape, no oversampling.
func DefaultSettings() Settings {
	return Settings{
		InGain:       1,
		DryGain:      0,
		WetGain:      1,
		OutGain:      1,
		HShift:       curve.ShiftDefault,
		VShift:       curve.ShiftDefault,
		TopScale:     curve.ScaleDefault,
		BottomScale:  curve.ScaleDefault,
		Order:        curve.OrderDefault,
		Oversampling: oversample.ModeNone,
	}
}

// Validate checks every field against its working range.
func (s Settings) Validate() error {
	for _, g := range []struct {
		name  string
		value float64
	}{
		{"input gain", s.InGain},
		{"dry gain", s.DryGain},
		{"wet gain", s.WetGain},
		{"output gain", s.OutGain},
	} {
		if g.value < minGain || g.value > maxGain || math.IsNaN(g.value) {
			return fmt.Errorf("shaper: %s must be in [%g, %g]: %g", g.name, minGain, maxGain, g.value)
		}
	}

	p := curve.Params{
		HShift:      s.HShift,
		VShift:      s.VShift,
		TopScale:    s.TopScale,
		BottomScale: s.BottomScale,
	}
	if err := p.Validate(); err != nil {
		return err
	}

	if s.Order < curve.OrderMin || s.Order > curve.OrderMax {
		return fmt.Errorf("shaper: order must be in [%d, %d]: %d", curve.OrderMin, curve.OrderMax, s.Order)
	}

	if !s.Oversampling.Valid() {
		return fmt.Errorf("shaper: %w: %d", oversample.ErrInvalidMode, s.Oversampling)
	}

	return nil
}

func (s Settings) shapeEqual(o Settings) bool {
	return s.HShift == o.HShift &&
		s.VShift == o.VShift &&
		s.TopScale == o.TopScale &&
		s.BottomScale == o.BottomScale &&
		s.Order == o.Order
}

// poly is one fitted polynomial with its extrapolation tangent.
type poly struct {
	coeffs  [curve.OrderMax]float64
	order   int
	tangent float64
}

func (p *poly) eval(x float64) float64 {
	return curve.Eval(p.coeffs[:p.order], p.tangent, x)
}

// fadeState tracks the one-block curve crossfade.
type fadeState int

const (
	// fadeStable: the current curve applies unblended.
	fadeStable fadeState = iota
	// fadePending: a shape change happened, the next sub-block blends.
	fadePending
	// fadeActive: the blending sub-block is in flight.
	fadeActive
)

// gainRamp is an old/new gain pair ramped linearly over one sub-block.
type gainRamp struct {
	old float64
	cur float64
}

func (g *gainRamp) set(v float64)  { g.cur = v }
func (g *gainRamp) settle()        { g.old = g.cur }
func (g *gainRamp) constant() bool { return g.old == g.cur }

// channel is the per-channel processing state.
type channel struct {
	buf channelBuffers

	ovs    *oversample.Oversampler
	dryDel *delay.Line
	byp    bypass.Switch

	inRMS  *meter.RMS
	outRMS *meter.RMS

	gainIn  gainRamp
	gainDry gainRamp
	gainWet gainRamp
	gainOut gainRamp

	inLevel  float64
	outLevel float64
	ratio    float64
}

// Option mutates construction-time parameters.
type Option func(*config) error

type config struct {
	sampleRate float64
	settings   Settings
	dbMin      float64
	dbMax      float64
}

// WithSampleRate sets the initial sample rate.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *config) error {
		if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
			return fmt.Errorf("shaper: sample rate must be > 0 and finite: %f", sampleRate)
		}

		cfg.sampleRate = sampleRate

		return nil
	}
}

// WithSettings sets the initial parameter snapshot.
func WithSettings(settings Settings) Option {
	return func(cfg *config) error {
		if err := settings.Validate(); err != nil {
			return err
		}

		cfg.settings = settings

		return nil
	}
}

// WithGraphRange sets the dB range of the logarithmic graph axis.
func WithGraphRange(minDB, maxDB float64) Option {
	return func(cfg *config) error {
		if minDB >= maxDB {
			return fmt.Errorf("shaper: graph range is empty: [%g, %g]", minDB, maxDB)
		}

		cfg.dbMin = minDB
		cfg.dbMax = maxDB

		return nil
	}
}

// Shaper is the processing core. It is not safe for concurrent use: settings
// updates and block processing must run sequentially on one goroutine.
type Shaper struct {
	sampleRate float64
	settings   Settings

	fitter *curve.Fitter
	cur    poly
	prev   poly
	fade   fadeState

	mem   *arena
	chans []*channel

	dbMin float64
	dbMax float64

	linDirty      bool
	logDirty      bool
	onGraphUpdate func()
}

// New creates a shaper for the given channel count. The default curve is
// fitted immediately, so the shaper is ready to process after construction.
func New(channels int, opts ...Option) (*Shaper, error) {
	if channels < 1 {
		return nil, fmt.Errorf("shaper: channel count must be >= 1: %d", channels)
	}

	cfg := config{
		sampleRate: defaultSampleRate,
		settings:   DefaultSettings(),
		dbMin:      GraphDBMin,
		dbMax:      GraphDBMax,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	s := &Shaper{
		fitter: curve.NewFitter(),
		mem:    newArena(channels),
		chans:  make([]*channel, channels),
		dbMin:  cfg.dbMin,
		dbMax:  cfg.dbMax,
	}

	for c := range s.chans {
		ovs, err := oversample.New(BufferSize)
		if err != nil {
			return nil, err
		}

		dryDel, err := delay.New(BufferSize)
		if err != nil {
			return nil, err
		}

		inRMS, err := meter.NewRMS(cfg.sampleRate, RMSReactivityMs)
		if err != nil {
			return nil, err
		}

		outRMS, err := meter.NewRMS(cfg.sampleRate, RMSReactivityMs)
		if err != nil {
			return nil, err
		}

		s.chans[c] = &channel{
			buf:    s.mem.chans[c],
			ovs:    ovs,
			dryDel: dryDel,
			inRMS:  inRMS,
			outRMS: outRMS,
			ratio:  1,
		}
	}

	s.initCoords()

	if err := s.SetSampleRate(cfg.sampleRate); err != nil {
		return nil, err
	}

	if err := s.applySettings(cfg.settings, true); err != nil {
		return nil, err
	}

	// The initial fit is not a transition.
	s.fade = fadeStable
	s.settleGains()

	return s, nil
}

// Channels returns the channel count.
func (s *Shaper) Channels() int {
	return len(s.chans)
}

// SampleRate returns the current sample rate.
func (s *Shaper) SampleRate() float64 {
	return s.sampleRate
}

// SetSampleRate reconfigures the rate-dependent parts: the bypass ramp and
// the RMS meter windows. Filter and delay state is cleared.
func (s *Shaper) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("shaper: sample rate must be > 0 and finite: %f", sampleRate)
	}

	s.sampleRate = sampleRate

	for _, ch := range s.chans {
		if err := ch.byp.Init(sampleRate); err != nil {
			return err
		}

		if err := ch.inRMS.SetSampleRate(sampleRate); err != nil {
			return err
		}

		if err := ch.outRMS.SetSampleRate(sampleRate); err != nil {
			return err
		}

		ch.ovs.Reset()
		ch.dryDel.Clear()
	}

	return nil
}

// Settings returns the last applied parameter snapshot.
func (s *Shaper) Settings() Settings {
	return s.settings
}

// UpdateSettings applies a new parameter snapshot. A shape or order change
// refits the polynomial, arms the one-block crossfade and resamples both
// graphs. On a degenerate shape the previous curve and shape parameters are
// retained and an error wrapping curve.ErrDegenerate is returned.
func (s *Shaper) UpdateSettings(settings Settings) error {
	return s.applySettings(settings, false)
}

func (s *Shaper) applySettings(settings Settings, force bool) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	shapeChanged := force || !settings.shapeEqual(s.settings)
	modeChanged := force || settings.Oversampling != s.settings.Oversampling

	if shapeChanged {
		var next poly

		params := curve.Params{
			HShift:      settings.HShift,
			VShift:      settings.VShift,
			TopScale:    settings.TopScale,
			BottomScale: settings.BottomScale,
		}

		tangent, err := s.fitter.FitInto(next.coeffs[:settings.Order], params, settings.Order)
		if err != nil {
			return fmt.Errorf("shaper: rebuild curve: %w", err)
		}

		next.order = settings.Order
		next.tangent = tangent

		// Arm the crossfade, but never retrigger one that is still
		// waiting to run: the old curve saved first wins.
		if s.cur.order > 0 && s.fade == fadeStable {
			s.prev = s.cur
			s.fade = fadePending
		}

		s.cur = next
		s.resampleGraphs()
	}

	if modeChanged {
		for _, ch := range s.chans {
			if err := ch.ovs.SetMode(settings.Oversampling); err != nil {
				return err
			}

			ch.ovs.Reset()

			if err := ch.dryDel.SetDelay(ch.ovs.Latency()); err != nil {
				return err
			}

			ch.dryDel.Clear()
		}
	}

	for _, ch := range s.chans {
		ch.byp.SetBypass(settings.Bypass)
		ch.gainIn.set(settings.InGain)
		ch.gainDry.set(settings.DryGain)
		ch.gainWet.set(settings.WetGain)
		ch.gainOut.set(settings.OutGain)
	}

	s.settings = settings

	return nil
}

func (s *Shaper) settleGains() {
	for _, ch := range s.chans {
		ch.gainIn.settle()
		ch.gainDry.settle()
		ch.gainWet.settle()
		ch.gainOut.settle()
	}
}

// Latency returns the processing latency in samples, determined by the
// oversampler configuration.
func (s *Shaper) Latency() int {
	return s.chans[0].ovs.Latency()
}

// Curve returns the active polynomial coefficients (highest degree first)
// and extrapolation tangent.
func (s *Shaper) Curve() (coeffs []float64, tangent float64) {
	out := make([]float64, s.cur.order)
	copy(out, s.cur.coeffs[:s.cur.order])

	return out, s.cur.tangent
}

// InputLevel returns the post-input-gain peak of the last processed block
// for the given channel.
func (s *Shaper) InputLevel(ch int) float64 {
	if ch < 0 || ch >= len(s.chans) {
		return 0
	}

	return s.chans[ch].inLevel
}

// OutputLevel returns the output peak of the last processed block.
func (s *Shaper) OutputLevel(ch int) float64 {
	if ch < 0 || ch >= len(s.chans) {
		return 0
	}

	return s.chans[ch].outLevel
}

// RMSRatio returns the output/input RMS gain ratio, unity when the input is
// near silence.
func (s *Shaper) RMSRatio(ch int) float64 {
	if ch < 0 || ch >= len(s.chans) {
		return 1
	}

	return s.chans[ch].ratio
}

// InputLevelDB returns InputLevel converted to decibels.
func (s *Shaper) InputLevelDB(ch int) float64 {
	return meter.FastDB(s.InputLevel(ch))
}

// OutputLevelDB returns OutputLevel converted to decibels.
func (s *Shaper) OutputLevelDB(ch int) float64 {
	return meter.FastDB(s.OutputLevel(ch))
}

func (s *Shaper) initCoords() {
	for i := range GraphDots {
		t := float64(i) / (GraphDots - 1)
		s.mem.linX[i] = t
		s.mem.logX[i] = core.DBToLinear(s.dbMin + (s.dbMax-s.dbMin)*t)
	}
}
