package stft

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Transform performs a fixed-length real-valued forward transform and its
// inverse over the packed half-complex layout described below.
//
// For a frame of length N the spectrum buffer, also of length N, holds
//
//	spectrum[0]   = Re(X[0])            (DC)
//	spectrum[k]   = Re(X[k])            for k in [1, N/2]
//	spectrum[N-k] = Im(X[k])            for k in [1, N/2-1]
//
// i.e. the FFTW "r2hc" format: redundant conjugate-symmetric bins are not
// stored. Inverse must be normalized so that Inverse(Forward(x)) == x.
type Transform interface {
	// Size returns the fixed frame length N.
	Size() int

	// Forward transforms frame (length N, real samples) into spectrum
	// (length N, packed half-complex).
	Forward(spectrum, frame []float64) error

	// Inverse transforms spectrum (length N, packed half-complex) into
	// frame (length N, real samples), including 1/N normalization.
	Inverse(frame, spectrum []float64) error
}

// realTransform is the default Transform, backed by an algo-fft complex
// plan with packing/unpacking into the half-complex layout.
type realTransform struct {
	size int
	plan *algofft.Plan[complex128]

	// Scratch for real <-> complex conversion, reused across calls.
	timeScratch []complex128
	freqScratch []complex128
}

// NewTransform returns the default FFT backend for frames of the given
// length. size must be a power of two supported by the FFT library.
func NewTransform(size int) (Transform, error) {
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("stft: failed to create FFT plan: %w", err)
	}

	return &realTransform{
		size:        size,
		plan:        plan,
		timeScratch: make([]complex128, size),
		freqScratch: make([]complex128, size),
	}, nil
}

func (t *realTransform) Size() int { return t.size }

func (t *realTransform) Forward(spectrum, frame []float64) error {
	if len(frame) != t.size || len(spectrum) != t.size {
		return fmt.Errorf("%w: transform size %d, frame %d, spectrum %d",
			ErrLengthMismatch, t.size, len(frame), len(spectrum))
	}

	for i, v := range frame {
		t.timeScratch[i] = complex(v, 0)
	}

	err := t.plan.Forward(t.freqScratch, t.timeScratch)
	if err != nil {
		return fmt.Errorf("stft: forward FFT failed: %w", err)
	}

	half := t.size / 2

	spectrum[0] = real(t.freqScratch[0])
	spectrum[half] = real(t.freqScratch[half])

	for k := 1; k < half; k++ {
		spectrum[k] = real(t.freqScratch[k])
		spectrum[t.size-k] = imag(t.freqScratch[k])
	}

	return nil
}

func (t *realTransform) Inverse(frame, spectrum []float64) error {
	if len(frame) != t.size || len(spectrum) != t.size {
		return fmt.Errorf("%w: transform size %d, frame %d, spectrum %d",
			ErrLengthMismatch, t.size, len(frame), len(spectrum))
	}

	half := t.size / 2

	t.freqScratch[0] = complex(spectrum[0], 0)
	t.freqScratch[half] = complex(spectrum[half], 0)

	for k := 1; k < half; k++ {
		t.freqScratch[k] = complex(spectrum[k], spectrum[t.size-k])
		t.freqScratch[t.size-k] = complex(spectrum[k], -spectrum[t.size-k])
	}

	err := t.plan.Inverse(t.timeScratch, t.freqScratch)
	if err != nil {
		return fmt.Errorf("stft: inverse FFT failed: %w", err)
	}

	for i := range frame {
		frame[i] = real(t.timeScratch[i])
	}

	return nil
}
