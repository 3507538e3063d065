// Command noise-repellent reduces broadband noise in WAV files using a
// streaming short-time Fourier transform with an adaptive spectral gate.
//
// Usage:
//
//	noise-repellent process -i noisy.wav -o clean.wav --learn-ms 500
//	noise-repellent windows
//	noise-repellent latency --frame-size 2048 --overlap 4
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "noise-repellent",
		Short:         "Spectral noise reduction for WAV files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newProcessCmd())
	root.AddCommand(newWindowsCmd())
	root.AddCommand(newLatencyCmd())

	if err := root.Execute(); err != nil {
		root.PrintErrln("error:", err)
		os.Exit(1)
	}
}
