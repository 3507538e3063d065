package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// Silence generates an all-zero signal.
func Silence(length int) []float64 {
	return make([]float64, length)
}

// Concat joins signal segments into one slice.
func Concat(segments ...[]float64) []float64 {
	n := 0
	for _, s := range segments {
		n += len(s)
	}
	out := make([]float64, 0, n)
	for _, s := range segments {
		out = append(out, s...)
	}
	return out
}

// Delayed returns signal shifted right by delay samples, zero padded at the
// head and truncated to the original length.
func Delayed(signal []float64, delay int) []float64 {
	out := make([]float64, len(signal))
	for i := delay; i < len(signal); i++ {
		out[i] = signal[i-delay]
	}
	return out
}

// RMS returns the root mean square of a signal, 0 for empty input.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range signal {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(signal)))
}
