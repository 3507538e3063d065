package stft

import (
	"fmt"

	"github.com/marado/noise-repellent/dsp/window"
)

const (
	defaultFrameSize     = 2048
	defaultOverlapFactor = 4
	defaultWindowType    = window.TypeVorbis

	minFrameSize = 64
)

// Config holds the construction-time parameters of a Processor.
//
// All values are fixed for the lifetime of the Processor; changing frame
// size, overlap, or window family requires building a new instance.
type Config struct {
	// FrameSize is the transform length F. Power of two, >= 64.
	FrameSize int

	// BlockSize is the analysis block length B, BlockSize <= FrameSize.
	// When BlockSize < FrameSize the remaining frame positions are
	// zero-padded at the tail before the forward transform.
	BlockSize int

	// OverlapFactor is the oversampling factor O. The hop size is
	// FrameSize/OverlapFactor and must be at least one sample.
	OverlapFactor int

	// AnalysisWindow and SynthesisWindow select the window family applied
	// before the forward transform and after the inverse transform.
	AnalysisWindow  window.Type
	SynthesisWindow window.Type
}

// Hop returns the number of samples consumed and emitted per cycle.
func (c Config) Hop() int { return c.FrameSize / c.OverlapFactor }

// Latency returns the reported pipeline delay in samples, FrameSize - Hop.
// The full round-trip delay of a Processor is one hop more than this.
func (c Config) Latency() int { return c.FrameSize - c.Hop() }

func defaultConfig() Config {
	return Config{
		FrameSize:       defaultFrameSize,
		BlockSize:       defaultFrameSize,
		OverlapFactor:   defaultOverlapFactor,
		AnalysisWindow:  defaultWindowType,
		SynthesisWindow: defaultWindowType,
	}
}

func (c Config) validate() error {
	if c.FrameSize < minFrameSize || !isPowerOf2(c.FrameSize) {
		return fmt.Errorf("stft: frame size must be a power of two >= %d: %d", minFrameSize, c.FrameSize)
	}

	if c.BlockSize <= 0 || c.BlockSize > c.FrameSize {
		return fmt.Errorf("stft: block size must be in [1, %d]: %d", c.FrameSize, c.BlockSize)
	}

	if c.OverlapFactor <= 0 || c.OverlapFactor > c.FrameSize {
		return fmt.Errorf("stft: overlap factor must yield a hop of at least one sample: %d", c.OverlapFactor)
	}

	if c.FrameSize%c.OverlapFactor != 0 {
		return fmt.Errorf("stft: overlap factor must divide the frame size: %d %% %d != 0",
			c.FrameSize, c.OverlapFactor)
	}

	// The read cursor lives in [latency, blockSize].
	if c.Latency() > c.BlockSize {
		return fmt.Errorf("stft: latency %d exceeds block size %d", c.Latency(), c.BlockSize)
	}

	if !window.Valid(c.AnalysisWindow) {
		return fmt.Errorf("stft: unknown analysis window family: %d", c.AnalysisWindow)
	}

	if !window.Valid(c.SynthesisWindow) {
		return fmt.Errorf("stft: unknown synthesis window family: %d", c.SynthesisWindow)
	}

	return nil
}

// Option configures a Processor at construction time.
type Option func(*settings)

type settings struct {
	cfg       Config
	blockSet  bool
	transform Transform
	proc      SpectralProcessor
}

// WithFrameSize sets the transform length F and, unless overridden by
// WithBlockSize, the block length as well.
func WithFrameSize(size int) Option {
	return func(s *settings) {
		s.cfg.FrameSize = size
		if !s.blockSet {
			s.cfg.BlockSize = size
		}
	}
}

// WithBlockSize sets the analysis block length B.
func WithBlockSize(size int) Option {
	return func(s *settings) {
		s.cfg.BlockSize = size
		s.blockSet = true
	}
}

// WithOverlapFactor sets the oversampling factor O.
func WithOverlapFactor(factor int) Option {
	return func(s *settings) {
		s.cfg.OverlapFactor = factor
	}
}

// WithAnalysisWindow sets the analysis window family.
func WithAnalysisWindow(t window.Type) Option {
	return func(s *settings) {
		s.cfg.AnalysisWindow = t
	}
}

// WithSynthesisWindow sets the synthesis window family.
func WithSynthesisWindow(t window.Type) Option {
	return func(s *settings) {
		s.cfg.SynthesisWindow = t
	}
}

// WithWindow sets both window families at once.
func WithWindow(t window.Type) Option {
	return func(s *settings) {
		s.cfg.AnalysisWindow = t
		s.cfg.SynthesisWindow = t
	}
}

// WithTransform replaces the default FFT backend. The transform's Size
// must match the configured frame size.
func WithTransform(t Transform) Option {
	return func(s *settings) {
		s.transform = t
	}
}

// WithProcessor sets the spectral processor invoked once per cycle.
// The default is Bypass.
func WithProcessor(p SpectralProcessor) Option {
	return func(s *settings) {
		s.proc = p
	}
}

func isPowerOf2(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
