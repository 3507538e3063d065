package stft

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/marado/noise-repellent/dsp/window"
)

// ErrLengthMismatch is returned when caller-supplied buffers do not satisfy
// the Run or Transform length contract.
var ErrLengthMismatch = errors.New("stft: buffer length mismatch")

// Processor is a streaming STFT engine for one audio channel.
//
// Create one with New, feed it with Run, and report Latency to the host
// before streaming begins. Methods must not be called concurrently.
type Processor struct {
	cfg        Config
	sampleRate float64

	hop     int
	latency int

	analysisWindow  []float64 // length FrameSize, tail zero when BlockSize < FrameSize
	synthesisWindow []float64
	scale           float64 // overlap reconstruction scale, sum(a[i]*s[i])/B
	synthesisNorm   float64 // 1 / (scale * overlapFactor)

	inFIFO  []float64 // length BlockSize, not-yet-analyzed input
	outFIFO []float64 // length BlockSize, not-yet-emitted output
	readPos int       // shared cursor in [latency, blockSize]

	frame    []float64 // length FrameSize, time-domain scratch for both directions
	spectrum []float64 // length FrameSize, packed half-complex

	ola       *overlapAdder
	transform Transform
	proc      SpectralProcessor
}

// New creates a Processor for the given sample rate.
//
// Without options it matches the classic configuration: 2048-sample frames
// and blocks, overlap factor 4 (75% overlap, hop 512, latency 1536), and
// Vorbis analysis and synthesis windows.
func New(sampleRate float64, opts ...Option) (*Processor, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("stft: sample rate must be > 0: %f", sampleRate)
	}

	s := settings{cfg: defaultConfig()}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	cfg := s.cfg

	err := cfg.validate()
	if err != nil {
		return nil, err
	}

	transform := s.transform
	if transform == nil {
		transform, err = NewTransform(cfg.FrameSize)
		if err != nil {
			return nil, err
		}
	}

	if transform.Size() != cfg.FrameSize {
		return nil, fmt.Errorf("stft: transform size %d does not match frame size %d",
			transform.Size(), cfg.FrameSize)
	}

	proc := s.proc
	if proc == nil {
		proc = Bypass{}
	}

	p := &Processor{
		cfg:        cfg,
		sampleRate: sampleRate,
		hop:        cfg.Hop(),
		latency:    cfg.Latency(),
		inFIFO:     make([]float64, cfg.BlockSize),
		outFIFO:    make([]float64, cfg.BlockSize),
		frame:      make([]float64, cfg.FrameSize),
		spectrum:   make([]float64, cfg.FrameSize),
		ola:        newOverlapAdder(cfg.BlockSize, cfg.Hop()),
		transform:  transform,
		proc:       proc,
	}

	p.buildWindows()
	p.readPos = p.latency

	return p, nil
}

// buildWindows generates both window coefficient sequences and derives the
// overlap reconstruction scale. Windows cover the first BlockSize frame
// positions; when BlockSize < FrameSize the zero tail keeps the padded
// region silent through both windowing passes.
func (p *Processor) buildWindows() {
	p.analysisWindow = make([]float64, p.cfg.FrameSize)
	p.synthesisWindow = make([]float64, p.cfg.FrameSize)

	copy(p.analysisWindow, window.Generate(p.cfg.AnalysisWindow, p.cfg.BlockSize, window.WithPeriodic()))
	copy(p.synthesisWindow, window.Generate(p.cfg.SynthesisWindow, p.cfg.BlockSize, window.WithPeriodic()))

	b := p.cfg.BlockSize
	p.scale = vecmath.DotProduct(p.analysisWindow[:b], p.synthesisWindow[:b]) / float64(b)
	p.synthesisNorm = 1 / (p.scale * float64(p.cfg.OverlapFactor))
}

// Config returns the processor's immutable configuration.
func (p *Processor) Config() Config { return p.cfg }

// SampleRate returns the sample rate in Hz.
func (p *Processor) SampleRate() float64 { return p.sampleRate }

// Hop returns the cycle advance in samples.
func (p *Processor) Hop() int { return p.hop }

// Latency returns the reported pipeline delay in samples, FrameSize-Hop.
// It never changes for a given instance. The full round-trip delay of Run
// is Latency()+Hop(): the queue holds Latency samples and one additional
// hop elapses before a completed block reaches the output.
func (p *Processor) Latency() int { return p.latency }

// ReconstructionScale returns the normalization scalar derived from the
// window pair, sum(analysis[i]*synthesis[i]) / blockSize.
func (p *Processor) ReconstructionScale() float64 { return p.scale }

// Reset zeroes all queues, the overlap accumulator, and the scratch frame,
// and rewinds the read cursor. Windows and configuration are untouched.
func (p *Processor) Reset() {
	zero(p.inFIFO)
	zero(p.outFIFO)
	zero(p.frame)
	zero(p.spectrum)
	p.ola.reset()
	p.readPos = p.latency
}

// Run processes len(input) samples, writing exactly one output sample per
// input sample. Output samples are the fully processed counterparts of the
// input fed one full frame, Latency()+Hop() samples, earlier; until the
// engine has been fed that many samples the output is the zero content of
// the initial queue.
//
// enable is forwarded to the spectral processor; with enable false the
// engine reconstructs its input at unity gain.
//
// The steady-state path performs no allocation. The only error conditions
// are a length mismatch between input and output and a transform failure,
// which indicates a defective Transform implementation rather than a
// recoverable stream state.
func (p *Processor) Run(output, input []float64, enable bool) error {
	if len(output) != len(input) {
		return fmt.Errorf("%w: input %d, output %d", ErrLengthMismatch, len(input), len(output))
	}

	for k := range input {
		p.inFIFO[p.readPos] = input[k]
		output[k] = p.outFIFO[p.readPos-p.latency]
		p.readPos++

		if p.readPos >= p.cfg.BlockSize {
			err := p.cycle(enable)
			if err != nil {
				return err
			}

			// Slide the unconsumed overlap to the queue head.
			copy(p.inFIFO[:p.latency], p.inFIFO[p.cfg.BlockSize-p.latency:])
			p.readPos = p.latency
		}
	}

	return nil
}

// cycle performs one analysis -> spectral-processing -> synthesis pass over
// the filled input queue.
func (p *Processor) cycle(enable bool) error {
	err := p.analysis()
	if err != nil {
		return err
	}

	p.proc.Process(p.spectrum, enable)

	return p.synthesis()
}

// analysis windows the completed block into the frame buffer and runs the
// forward transform. Padding, when the block is shorter than the frame, is
// appended at the tail rather than centered; centering would change the
// analysis phase relationship.
func (p *Processor) analysis() error {
	b := p.cfg.BlockSize

	copy(p.frame[:b], p.inFIFO)
	zero(p.frame[b:])

	vecmath.MulBlockInPlace(p.frame, p.analysisWindow)

	return p.transform.Forward(p.spectrum, p.frame)
}

// synthesis runs the inverse transform, applies the synthesis window and
// the overlap reconstruction correction, and overlap-adds the block into
// the output queue. Each output sample receives contributions from
// OverlapFactor frames, each attenuated by both windows; dividing by
// scale*OverlapFactor restores unity gain.
func (p *Processor) synthesis() error {
	err := p.transform.Inverse(p.frame, p.spectrum)
	if err != nil {
		return err
	}

	vecmath.MulBlockInPlace(p.frame, p.synthesisWindow)
	vecmath.ScaleBlockInPlace(p.frame, p.synthesisNorm)

	p.ola.absorb(p.frame)
	p.ola.emit(p.outFIFO)

	return nil
}

func zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}
