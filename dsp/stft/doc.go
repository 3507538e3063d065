// Package stft implements a streaming short-time Fourier transform engine
// for real-time spectral processing.
//
// A Processor decouples the host's arbitrary call granularity from a fixed
// internal block size: samples fed to Run are queued one at a time, each
// arriving sample releases one previously processed sample, and whenever a
// full block has accumulated the engine runs one windowed
// analysis -> spectral-processing -> synthesis cycle and overlap-adds the
// result back into its output queue. Reconstruction is unity-gain when the
// plugged-in SpectralProcessor leaves the spectrum untouched, with a
// constant round-trip delay of one full frame, Latency() + Hop() samples.
// Latency reports the FrameSize - Hop portion of that delay, the figure a
// plugin host expects for delay compensation.
//
// The steady-state path of Run performs no allocation and no I/O; every
// buffer is sized at construction time. A Processor is not safe for
// concurrent use: the contract is one real-time caller per instance.
package stft
