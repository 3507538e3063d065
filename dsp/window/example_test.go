package window_test

import (
	"fmt"

	"github.com/marado/noise-repellent/dsp/window"
)

func ExampleGenerate() {
	w := window.Generate(window.TypeHann, 8, window.WithPeriodic())
	fmt.Printf("%.3f %.3f %.3f %.3f\n", w[0], w[2], w[4], w[6])
	// Output: 0.000 0.500 1.000 0.500
}

func ExampleCoherentGain() {
	w := window.Generate(window.TypeHann, 1024, window.WithPeriodic())
	cg, _ := window.CoherentGain(w)
	fmt.Printf("%.2f\n", cg)
	// Output: 0.50
}
