// Command shaper-wav runs a WAV file through the polynomial waveshaper.
package main

import (
	"fmt"
	"log"
	"math"
	"os"

	"github.com/alecthomas/kong"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-shaper/dsp/core"
	"github.com/cwbudde/algo-shaper/dsp/oversample"
	"github.com/cwbudde/algo-shaper/dsp/shaper"
)

const blockFrames = 4096

// CLI defines the command line surface.
type CLI struct {
	Input  string `arg:"" help:"Input WAV file." type:"existingfile"`
	Output string `arg:"" help:"Output WAV file."`

	HShift      float64 `help:"Horizontal shift in [0.1, 0.9]." default:"0.5"`
	VShift      float64 `help:"Vertical shift in [0.1, 0.9]." default:"0.5"`
	TopScale    float64 `help:"Top scale in [0.25, 1.75]." default:"1.0"`
	BottomScale float64 `help:"Bottom scale in [0.25, 1.75]." default:"1.0"`
	Order       int     `help:"Polynomial order in [5, 13]." default:"9"`

	Oversampling string `help:"Oversampling mode (none, 2x_medium, 2x_high, 3x_medium, 3x_high, 4x_medium, 4x_high, 6x_medium, 6x_high, 8x_medium, 8x_high)." default:"none"`

	InGain  float64 `help:"Input gain (linear)." default:"1.0"`
	DryGain float64 `help:"Dry gain (linear)." default:"0.0"`
	WetGain float64 `help:"Wet gain (linear)." default:"1.0"`
	OutGain float64 `help:"Output gain (linear)." default:"1.0"`

	Listen  bool `help:"Output only the wet-dry difference signal."`
	Verbose bool `short:"v" help:"Log progress and levels."`
}

func main() {
	cli := &CLI{}
	kong.Parse(cli,
		kong.Name("shaper-wav"),
		kong.Description("Apply a Bezier-derived polynomial waveshaper to a WAV file."),
		kong.UsageOnError(),
	)

	if err := run(cli); err != nil {
		log.Fatalf("shaper-wav: %v", err)
	}
}

func run(cli *CLI) error {
	mode, err := oversample.ParseMode(cli.Oversampling)
	if err != nil {
		return err
	}

	in, err := os.Open(cli.Input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	dec := wav.NewDecoder(in)
	if !dec.IsValidFile() {
		return fmt.Errorf("invalid WAV file: %s", cli.Input)
	}

	format := dec.Format()
	bitDepth := int(dec.BitDepth)

	if cli.Verbose {
		log.Printf("input: %d Hz, %d channels, %d-bit", format.SampleRate, format.NumChannels, bitDepth)
	}

	settings := shaper.Settings{
		Listen:       cli.Listen,
		InGain:       cli.InGain,
		DryGain:      cli.DryGain,
		WetGain:      cli.WetGain,
		OutGain:      cli.OutGain,
		HShift:       cli.HShift,
		VShift:       cli.VShift,
		TopScale:     cli.TopScale,
		BottomScale:  cli.BottomScale,
		Order:        cli.Order,
		Oversampling: mode,
	}

	proc, err := shaper.New(format.NumChannels,
		shaper.WithSampleRate(float64(format.SampleRate)),
		shaper.WithSettings(settings),
	)
	if err != nil {
		return err
	}

	if cli.Verbose && proc.Latency() > 0 {
		log.Printf("processing latency: %d samples", proc.Latency())
	}

	out, err := os.Create(cli.Output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	enc := wav.NewEncoder(out, format.SampleRate, bitDepth, format.NumChannels, 1)

	if err := process(dec, enc, proc, format, bitDepth, cli.Verbose); err != nil {
		return err
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize output: %w", err)
	}

	return nil
}

// process streams the file through the shaper in fixed-size blocks:
// deinterleave to float, shape, reinterleave to ints.
func process(dec *wav.Decoder, enc *wav.Encoder, proc *shaper.Shaper, format *audio.Format, bitDepth int, verbose bool) error {
	channels := format.NumChannels
	scale := math.Pow(2, float64(bitDepth-1))

	intBuf := &audio.IntBuffer{
		Format: format,
		Data:   make([]int, blockFrames*channels),
	}

	planar := make([][]float64, channels)
	shaped := make([][]float64, channels)

	for c := range channels {
		planar[c] = make([]float64, blockFrames)
		shaped[c] = make([]float64, blockFrames)
	}

	var total int64

	for {
		n, err := dec.PCMBuffer(intBuf)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}

		if n == 0 {
			break
		}

		frames := n / channels
		for i := range frames {
			for c := range channels {
				planar[c][i] = float64(intBuf.Data[i*channels+c]) / scale
			}
		}

		proc.Process(shaped, planar, frames)

		for i := range frames {
			for c := range channels {
				intBuf.Data[i*channels+c] = int(core.Clamp(shaped[c][i]*scale, -scale, scale-1))
			}
		}

		intBuf.Data = intBuf.Data[:n]
		if err := enc.Write(intBuf); err != nil {
			return fmt.Errorf("encode: %w", err)
		}

		intBuf.Data = intBuf.Data[:blockFrames*channels]

		total += int64(frames)
		if verbose {
			log.Printf("processed %d frames, in %.1f dBFS, out %.1f dBFS",
				total, proc.InputLevelDB(0), proc.OutputLevelDB(0))
		}
	}

	return nil
}
