package main

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/cobra"

	"github.com/marado/noise-repellent/dsp/denoise"
	"github.com/marado/noise-repellent/dsp/stft"
	"github.com/marado/noise-repellent/dsp/window"
)

type processOptions struct {
	input  string
	output string

	frameSize  int
	overlap    int
	windowName string

	learnMS   int
	reduction float64
	strength  float64
	release   float64
	quantile  float64
}

func newProcessCmd() *cobra.Command {
	opts := processOptions{}

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Reduce noise in a WAV file",
		Long: "Reduce noise in a WAV file.\n\n" +
			"The first --learn-ms milliseconds of the input are treated as a\n" +
			"noise-only section and used to build the noise profile; the rest\n" +
			"of the file is gated against that profile. The output is latency\n" +
			"compensated and has the same length as the input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "input WAV file (required)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output WAV file (required)")
	cmd.Flags().IntVar(&opts.frameSize, "frame-size", 2048, "analysis frame length in samples (power of two)")
	cmd.Flags().IntVar(&opts.overlap, "overlap", 4, "overlap factor (hop = frame-size/overlap)")
	cmd.Flags().StringVar(&opts.windowName, "window", "vorbis", "analysis/synthesis window (use 'windows' to list)")
	cmd.Flags().IntVar(&opts.learnMS, "learn-ms", 500, "length of the leading noise-only section in milliseconds")
	cmd.Flags().Float64Var(&opts.reduction, "reduction", 12, "maximum attenuation of gated bins in dB")
	cmd.Flags().Float64Var(&opts.strength, "strength", 1, "over-subtraction multiplier on the noise profile")
	cmd.Flags().Float64Var(&opts.release, "release", 0.05, "gain release time in seconds")
	cmd.Flags().Float64Var(&opts.quantile, "quantile", 0.25, "frame magnitude quantile feeding the adaptive floor")

	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runProcess(cmd *cobra.Command, opts processOptions) error {
	wt, err := windowByName(opts.windowName)
	if err != nil {
		return err
	}

	in, err := os.Open(opts.input)
	if err != nil {
		return err
	}
	defer in.Close()

	dec := wav.NewDecoder(in)
	if !dec.IsValidFile() {
		return fmt.Errorf("%s: not a valid WAV file", opts.input)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("decode %s: %w", opts.input, err)
	}

	channels := buf.Format.NumChannels
	rate := buf.Format.SampleRate

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}

	learnSamples := opts.learnMS * rate / 1000
	planes := deinterleave(buf.Data, channels, bitDepth)

	var delay int

	for ch, samples := range planes {
		processed, d, err := processChannel(samples, float64(rate), learnSamples, wt, opts)
		if err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}

		planes[ch] = processed
		delay = d
	}

	reinterleave(buf.Data, planes, channels, bitDepth)

	out, err := os.Create(opts.output)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(out, rate, bitDepth, channels, 1)

	err = enc.Write(&audio.IntBuffer{
		Format:         buf.Format,
		Data:           buf.Data,
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", opts.output, err)
	}

	if err := enc.Close(); err != nil {
		out.Close()
		return err
	}

	if err := out.Close(); err != nil {
		return err
	}

	frames := 0
	if channels > 0 {
		frames = len(buf.Data) / channels
	}

	cmd.Printf("%s: %d ch, %d Hz, %d frames\n", opts.input, channels, rate, frames)
	cmd.Printf("learned %d noise samples per channel, round-trip delay %d samples (compensated)\n",
		min(learnSamples, frames), delay)

	return nil
}

// processChannel runs one channel through a gate-equipped engine. The output
// is shifted left by the engine's full round-trip delay (reported latency
// plus one hop) and flushed with zeros, so it lines up sample for sample
// with the input.
func processChannel(samples []float64, rate float64, learnSamples int, wt window.Type, opts processOptions) ([]float64, int, error) {
	reducer, err := denoise.New(opts.frameSize, rate, opts.frameSize/opts.overlap,
		denoise.WithReduction(opts.reduction),
		denoise.WithStrength(opts.strength),
		denoise.WithRelease(opts.release),
		denoise.WithFloorQuantile(opts.quantile),
	)
	if err != nil {
		return nil, 0, err
	}

	engine, err := stft.New(rate,
		stft.WithFrameSize(opts.frameSize),
		stft.WithOverlapFactor(opts.overlap),
		stft.WithWindow(wt),
		stft.WithProcessor(reducer),
	)
	if err != nil {
		return nil, 0, err
	}

	learn := min(learnSamples, len(samples))
	out := make([]float64, len(samples))

	reducer.SetLearning(true)

	if err := engine.Run(out[:learn], samples[:learn], true); err != nil {
		return nil, 0, err
	}

	reducer.SetLearning(false)

	if err := engine.Run(out[learn:], samples[learn:], true); err != nil {
		return nil, 0, err
	}

	delay := engine.Latency() + engine.Hop()

	tail := make([]float64, delay)
	if err := engine.Run(tail, make([]float64, delay), true); err != nil {
		return nil, 0, err
	}

	compensated := make([]float64, 0, len(samples))
	compensated = append(compensated, out[min(delay, len(out)):]...)
	compensated = append(compensated, tail...)

	return compensated[:len(samples)], delay, nil
}

func deinterleave(data []int, channels, bitDepth int) [][]float64 {
	if channels <= 0 {
		return nil
	}

	frames := len(data) / channels
	scale := 1.0 / float64(int(1)<<(bitDepth-1))
	planes := make([][]float64, channels)

	for ch := range planes {
		plane := make([]float64, frames)
		for i := range plane {
			plane[i] = float64(data[i*channels+ch]) * scale
		}

		planes[ch] = plane
	}

	return planes
}

func reinterleave(data []int, planes [][]float64, channels, bitDepth int) {
	limit := int(1)<<(bitDepth-1) - 1
	scale := float64(int(1) << (bitDepth - 1))

	for ch, plane := range planes {
		for i, v := range plane {
			s := int(v * scale)
			if s > limit {
				s = limit
			}

			if s < -limit-1 {
				s = -limit - 1
			}

			data[i*channels+ch] = s
		}
	}
}
