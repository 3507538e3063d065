// Package window generates tapering windows for STFT analysis and synthesis.
//
// The supported families are the ones used by the streaming spectral engine
// in dsp/stft: Hann, Hamming, Blackman, and the Vorbis power-complementary
// window, plus Rectangular for measurement use. Coefficients are produced by
// closed-form per-sample formulas, so Generate is fully deterministic.
package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function family.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeVorbis
)

// Cosine-sum coefficient tables, w(x) = sum c[k]*cos(2*pi*k*x).
var (
	hannCoeffs     = []float64{0.5, -0.5}
	hammingCoeffs  = []float64{0.54, -0.46}
	blackmanCoeffs = []float64{0.42, -0.5, 0.08}
)

// Metadata holds static properties of a window type.
type Metadata struct {
	Name string
}

var metadataByType = map[Type]Metadata{
	TypeRectangular: {Name: "Rectangular"},
	TypeHann:        {Name: "Hann"},
	TypeHamming:     {Name: "Hamming"},
	TypeBlackman:    {Name: "Blackman"},
	TypeVorbis:      {Name: "Vorbis"},
}

// Valid reports whether t names a known window family.
func Valid(t Type) bool {
	_, ok := metadataByType[t]
	return ok
}

// Info returns static metadata for a window type.
func Info(t Type) Metadata {
	if m, ok := metadataByType[t]; ok {
		return m
	}

	return Metadata{}
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
//
// The Vorbis window is defined in periodic form only and ignores this option.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length.
//
// Identical arguments always yield bit-identical sequences. All coefficients
// of the supported families are >= 0. Unknown types yield a rectangular
// window; callers that need strict validation use [Valid].
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = evalWindow(t, i, length, cfg)
	}

	return out
}

// Apply multiplies buf in-place by the selected window.
func Apply(t Type, buf []float64, opts ...Option) {
	if len(buf) == 0 {
		return
	}

	coeffs := Generate(t, len(buf), opts...)
	vecmath.MulBlockInPlace(buf, coeffs)
}

// ApplyCoefficientsInPlace multiplies samples with coefficients in place.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}

// CoherentGain returns the mean coefficient value of a window.
func CoherentGain(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, errEmptyCoeffs
	}

	return vecmath.Sum(coeffs) / float64(len(coeffs)), nil
}

// EquivalentNoiseBandwidth returns the ENBW in bins for a window.
func EquivalentNoiseBandwidth(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, errEmptyCoeffs
	}

	sum := vecmath.Sum(coeffs)
	if sum == 0 {
		return 0, errZeroCoherentGain
	}

	sumSquares := vecmath.DotProduct(coeffs, coeffs)

	return float64(len(coeffs)) * sumSquares / (sum * sum), nil
}

func evalWindow(t Type, n, size int, cfg config) float64 {
	switch t {
	case TypeRectangular:
		return 1
	case TypeHann:
		return cosineFromCoeffs(samplePosition(n, size, cfg.periodic), hannCoeffs)
	case TypeHamming:
		return cosineFromCoeffs(samplePosition(n, size, cfg.periodic), hammingCoeffs)
	case TypeBlackman:
		return cosineFromCoeffs(samplePosition(n, size, cfg.periodic), blackmanCoeffs)
	case TypeVorbis:
		s := math.Sin(math.Pi * (float64(n) + 0.5) / float64(size))
		return math.Sin(0.5 * math.Pi * s * s)
	default:
		return 1
	}
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	// The families here are nonnegative; rounding can leave a tiny
	// negative residue where the terms cancel (Blackman endpoints).
	if sum < 0 {
		sum = 0
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
