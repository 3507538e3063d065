package main

import (
	"github.com/spf13/cobra"

	"github.com/marado/noise-repellent/dsp/stft"
)

func newLatencyCmd() *cobra.Command {
	var (
		frameSize  int
		overlap    int
		sampleRate float64
	)

	cmd := &cobra.Command{
		Use:   "latency",
		Short: "Print hop size and engine latency for a configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := stft.New(sampleRate,
				stft.WithFrameSize(frameSize),
				stft.WithOverlapFactor(overlap),
			)
			if err != nil {
				return err
			}

			cmd.Printf("frame size: %d samples\n", frameSize)
			cmd.Printf("hop:        %d samples (%.2f ms)\n",
				p.Hop(), 1000*float64(p.Hop())/sampleRate)
			cmd.Printf("latency:    %d samples (%.2f ms)\n",
				p.Latency(), 1000*float64(p.Latency())/sampleRate)

			return nil
		},
	}

	cmd.Flags().IntVar(&frameSize, "frame-size", 2048, "analysis frame length in samples (power of two)")
	cmd.Flags().IntVar(&overlap, "overlap", 4, "overlap factor (hop = frame-size/overlap)")
	cmd.Flags().Float64Var(&sampleRate, "sample-rate", 48000, "sample rate in Hz")

	return cmd
}
