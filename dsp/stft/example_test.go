package stft_test

import (
	"fmt"

	"github.com/marado/noise-repellent/dsp/stft"
)

func ExampleNew() {
	p, err := stft.New(48000)
	if err != nil {
		panic(err)
	}

	fmt.Printf("hop=%d latency=%d\n", p.Hop(), p.Latency())
	// Output: hop=512 latency=1536
}

func ExampleProcessor_Run() {
	p, err := stft.New(48000, stft.WithFrameSize(512), stft.WithOverlapFactor(4))
	if err != nil {
		panic(err)
	}

	// Passing enable=false runs the full analysis/synthesis chain without
	// touching the spectrum, so the output is a pure delay line of one
	// full frame: Latency()+Hop() samples.
	delay := p.Latency() + p.Hop()

	input := make([]float64, 2048)
	input[delay] = 1

	output := make([]float64, len(input))
	if err := p.Run(output, input, false); err != nil {
		panic(err)
	}

	fmt.Printf("delayed impulse at %d: %.2f\n", 2*delay, output[2*delay])
	// Output: delayed impulse at 1024: 1.00
}
