package stft

import (
	"github.com/cwbudde/algo-vecmath"
)

// overlapAdder holds the running sum of overlapping synthesis frames.
//
// The buffer is twice the block length; accumulation only ever writes the
// first blockSize positions, so after a shift the vacated tail region is
// guaranteed to already be zero. The head of the buffer always contains the
// finished sum for the next hop-sized output window.
type overlapAdder struct {
	accum     []float64
	blockSize int
	hop       int
}

func newOverlapAdder(blockSize, hop int) *overlapAdder {
	return &overlapAdder{
		accum:     make([]float64, 2*blockSize),
		blockSize: blockSize,
		hop:       hop,
	}
}

// absorb adds the first blockSize samples of frame into the running sum.
func (o *overlapAdder) absorb(frame []float64) {
	vecmath.AddBlockInPlace(o.accum[:o.blockSize], frame[:o.blockSize])
}

// emit copies the finished hop-sized head of the sum into dst and shifts
// the accumulator forward by one hop.
func (o *overlapAdder) emit(dst []float64) {
	copy(dst[:o.hop], o.accum[:o.hop])
	copy(o.accum[:o.blockSize], o.accum[o.hop:o.hop+o.blockSize])
}

func (o *overlapAdder) reset() {
	for i := range o.accum {
		o.accum[i] = 0
	}
}
