package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marado/noise-repellent/dsp/window"
)

var windowRegistry = []struct {
	name string
	typ  window.Type
}{
	{"rectangular", window.TypeRectangular},
	{"hann", window.TypeHann},
	{"hamming", window.TypeHamming},
	{"blackman", window.TypeBlackman},
	{"vorbis", window.TypeVorbis},
}

func windowByName(name string) (window.Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	for _, e := range windowRegistry {
		if e.name == name {
			return e.typ, nil
		}
	}

	return 0, fmt.Errorf("unknown window %q (use 'windows' to list)", name)
}

func newWindowsCmd() *cobra.Command {
	size := 0

	cmd := &cobra.Command{
		Use:   "windows",
		Short: "List window functions and their spectral properties",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Window\tCoherent Gain\tENBW [bins]\n")
			fmt.Fprintf(tw, "------\t-------------\t-----------\n")

			for _, e := range windowRegistry {
				coeffs := window.Generate(e.typ, size, window.WithPeriodic())

				cg, err := window.CoherentGain(coeffs)
				if err != nil {
					return err
				}

				enbw, err := window.EquivalentNoiseBandwidth(coeffs)
				if err != nil {
					return err
				}

				fmt.Fprintf(tw, "%s\t%.6f\t%.4f\n", window.Info(e.typ).Name, cg, enbw)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&size, "size", 2048, "window length in samples")

	return cmd
}
