// Package block accumulates interleaved PCM frames into fixed-duration
// blocks, one buffer per channel, handing each completed block off to the
// statistics stage as soon as it fills.
package block

// Size returns the number of frames in a measurement block for the given
// sample rate: the nearest whole number of frames to 3 seconds, with a
// floor of 1 so a pathologically low sample rate never yields a zero-size
// block.
func Size(sampleRate int) int {
	n := int(float64(sampleRate)*3 + 0.5)
	if n < 1 {
		return 1
	}

	return n
}

// Accumulator buffers incoming samples per channel and reports a
// completed block's samples once Size frames have been seen, discarding
// (per channel) the running buffer after each full block. A short final
// block is never emitted by Push, and the Accumulator has no method that
// emits it: a final block shorter than Size stays buffered and is never
// counted.
type Accumulator struct {
	channels  int
	blockSize int
	buf       [][]float64 // per-channel sample buffer, length == blockSize once full
	n         int         // frames currently buffered
}

// New creates an Accumulator for the given channel count and block size
// in frames.
func New(channels, blockSize int) *Accumulator {
	buf := make([][]float64, channels)
	for c := range buf {
		buf[c] = make([]float64, blockSize)
	}

	return &Accumulator{channels: channels, blockSize: blockSize, buf: buf}
}

// Push appends one frame (one normalized sample per channel) to the
// accumulator. When the block fills, it returns the completed block's
// per-channel sample slices (valid until the next Push call) and true.
func (a *Accumulator) Push(frame []float64) (block [][]float64, complete bool) {
	for c := 0; c < a.channels; c++ {
		a.buf[c][a.n] = frame[c]
	}

	a.n++

	if a.n < a.blockSize {
		return nil, false
	}

	a.n = 0

	return a.buf, true
}

// Pending returns the number of frames currently buffered toward the next
// block, for progress reporting and tail accounting.
func (a *Accumulator) Pending() int {
	return a.n
}
