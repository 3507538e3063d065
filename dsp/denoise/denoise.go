// Package denoise implements an adaptive spectral-gate noise reducer that
// plugs into the stft engine as its SpectralProcessor.
//
// The reducer first learns a per-bin noise magnitude profile from frames
// captured while learning mode is active (typically a noise-only section of
// the stream), then attenuates each bin of subsequent frames toward a
// residual floor whenever its magnitude does not rise sufficiently above
// the learned profile.
package denoise

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/stat"
)

const (
	defaultReductionDB    = 12.0
	defaultStrength       = 1.0
	defaultReleaseSeconds = 0.05
	defaultFloorQuantile  = 0.25

	minFFTSize = 64
	magFloor   = 1e-12
)

// Processor is a spectral gate over the packed half-complex layout used by
// the stft engine. It satisfies the engine's SpectralProcessor contract.
//
// Not safe for concurrent use; one instance belongs to one engine.
type Processor struct {
	fftSize    int
	bins       int
	sampleRate float64
	hop        int

	strength  float64 // over-subtraction multiplier on the profile
	floorGain float64 // residual linear gain, from the reduction amount
	release   float64 // one-pole release coefficient per frame
	quantile  float64 // frame-magnitude quantile feeding the adaptive floor

	learning   bool
	hasProfile bool

	profile  []float64 // per-bin noise magnitude estimate (peak hold)
	re       []float64
	im       []float64
	mag      []float64
	prevGain []float64
	sorted   []float64 // scratch for the frame quantile
}

// Option configures a Processor at construction time.
type Option func(*Processor)

// WithReduction sets the maximum attenuation applied to gated bins, in
// positive dB. Larger values yield a quieter residual.
func WithReduction(db float64) Option {
	return func(p *Processor) {
		if db > 0 {
			p.floorGain = math.Pow(10, -db/20)
		}
	}
}

// WithStrength sets the over-subtraction multiplier applied to the learned
// profile before gating. 1 gates at the learned level; larger values gate
// more aggressively.
func WithStrength(strength float64) Option {
	return func(p *Processor) {
		if strength > 0 {
			p.strength = strength
		}
	}
}

// WithRelease sets the gain release time in seconds. Attack is immediate;
// recovery toward attenuation follows a one-pole ramp with this constant.
func WithRelease(seconds float64) Option {
	return func(p *Processor) {
		if seconds >= 0 {
			p.release = releaseCoeff(seconds, p.sampleRate, p.hop)
		}
	}
}

// WithFloorQuantile sets the quantile of the frame magnitude distribution
// below which bins are treated as part of the frame's own noise bed and
// pushed straight to the residual floor. Must lie in [0, 1).
func WithFloorQuantile(q float64) Option {
	return func(p *Processor) {
		if q >= 0 && q < 1 {
			p.quantile = q
		}
	}
}

// New creates a spectral gate for frames of length fftSize produced every
// hop samples at the given sample rate.
func New(fftSize int, sampleRate float64, hop int, opts ...Option) (*Processor, error) {
	if fftSize < minFFTSize || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("denoise: fft size must be a power of two >= %d: %d", minFFTSize, fftSize)
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("denoise: sample rate must be > 0: %f", sampleRate)
	}

	if hop <= 0 || hop > fftSize {
		return nil, fmt.Errorf("denoise: hop must be in [1, %d]: %d", fftSize, hop)
	}

	bins := fftSize/2 + 1

	p := &Processor{
		fftSize:    fftSize,
		bins:       bins,
		sampleRate: sampleRate,
		hop:        hop,
		strength:   defaultStrength,
		floorGain:  math.Pow(10, -defaultReductionDB/20),
		release:    releaseCoeff(defaultReleaseSeconds, sampleRate, hop),
		quantile:   defaultFloorQuantile,
		profile:    make([]float64, bins),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
		mag:        make([]float64, bins),
		prevGain:   make([]float64, bins),
		sorted:     make([]float64, bins),
	}

	for i := range p.prevGain {
		p.prevGain[i] = 1
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p, nil
}

// SetLearning toggles noise-profile capture. While learning, frames update
// the profile by per-bin peak hold and pass through unmodified.
func (p *Processor) SetLearning(learning bool) { p.learning = learning }

// Learning reports whether profile capture is active.
func (p *Processor) Learning() bool { return p.learning }

// HasProfile reports whether at least one frame has been captured.
func (p *Processor) HasProfile() bool { return p.hasProfile }

// NoiseProfile returns a copy of the learned per-bin noise magnitudes.
func (p *Processor) NoiseProfile() []float64 {
	out := make([]float64, p.bins)
	copy(out, p.profile)

	return out
}

// Reset discards the learned profile and gain history.
func (p *Processor) Reset() {
	p.hasProfile = false

	for i := range p.profile {
		p.profile[i] = 0
	}

	for i := range p.prevGain {
		p.prevGain[i] = 1
	}
}

// Process implements the engine's SpectralProcessor contract. The spectrum
// has length fftSize in packed half-complex layout and is mutated in place.
// With enable false the buffer is left untouched. Steady state allocates
// nothing.
func (p *Processor) Process(spectrum []float64, enable bool) {
	if !enable || len(spectrum) != p.fftSize {
		return
	}

	p.unpackMagnitudes(spectrum)

	if p.learning {
		for k, m := range p.mag {
			if m > p.profile[k] {
				p.profile[k] = m
			}
		}

		p.hasProfile = true

		return
	}

	if !p.hasProfile {
		return
	}

	// Bins below this frame's own noise bed never survive the gate.
	copy(p.sorted, p.mag)
	sort.Float64s(p.sorted)
	frameFloor := stat.Quantile(p.quantile, stat.Empirical, p.sorted, nil)

	half := p.fftSize / 2

	for k := range p.bins {
		gain := p.binGain(k, frameFloor)

		switch k {
		case 0:
			spectrum[0] *= gain
		case half:
			spectrum[half] *= gain
		default:
			spectrum[k] *= gain
			spectrum[p.fftSize-k] *= gain
		}
	}
}

// binGain computes the smoothed gate gain for one bin.
func (p *Processor) binGain(k int, frameFloor float64) float64 {
	m := p.mag[k]

	var raw float64

	switch {
	case m <= magFloor || m <= frameFloor:
		raw = p.floorGain
	default:
		raw = 1 - p.strength*p.profile[k]/m
		if raw < p.floorGain {
			raw = p.floorGain
		}

		if raw > 1 {
			raw = 1
		}
	}

	// Instant attack, smoothed release back down to the gated level.
	prev := p.prevGain[k]
	if raw < prev {
		raw = p.release*prev + (1-p.release)*raw
	}

	p.prevGain[k] = raw

	return raw
}

// unpackMagnitudes splits the packed half-complex buffer into real and
// imaginary parts and computes per-bin magnitudes.
func (p *Processor) unpackMagnitudes(spectrum []float64) {
	half := p.fftSize / 2

	p.re[0] = spectrum[0]
	p.im[0] = 0
	p.re[half] = spectrum[half]
	p.im[half] = 0

	for k := 1; k < half; k++ {
		p.re[k] = spectrum[k]
		p.im[k] = spectrum[p.fftSize-k]
	}

	vecmath.Magnitude(p.mag, p.re, p.im)
}

func releaseCoeff(seconds, sampleRate float64, hop int) float64 {
	if seconds <= 0 {
		return 0
	}

	return math.Exp(-float64(hop) / (sampleRate * seconds))
}
