package stft

// SpectralProcessor mutates a spectrum buffer in place during one
// analysis/synthesis cycle.
//
// The buffer has the frame length and the packed half-complex layout of the
// engine's Transform. It is only valid for the duration of the call; a
// processor must not retain a reference to it. When enable is false the
// processor must leave the buffer untouched, so that the engine reproduces
// its input bit-for-bit up to windowing arithmetic.
type SpectralProcessor interface {
	Process(spectrum []float64, enable bool)
}

// Bypass is a SpectralProcessor that never modifies the spectrum.
type Bypass struct{}

// Process implements SpectralProcessor as a no-op.
func (Bypass) Process([]float64, bool) {}
