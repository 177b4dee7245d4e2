package session

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/stats"
	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/types"
)

func monoFormat(sampleRate int) types.PCMFormat {
	return types.PCMFormat{SampleRate: sampleRate, Channels: 1, BitDepth: types.Depth16}
}

func TestOpenRejectsInvalidFormat(t *testing.T) {
	cases := []types.PCMFormat{
		{SampleRate: 0, Channels: 1},
		{SampleRate: -1, Channels: 1},
		{SampleRate: 44100, Channels: 0},
	}

	for _, f := range cases {
		_, err := Open(f, stats.SumDoubling, nil)
		assert.ErrorIs(t, err, ErrInvalidFormat)
	}
}

func TestOpenAcceptsChannelCountAboveExportArrayBound(t *testing.T) {
	// MaxChannels only bounds the fixed per-channel export arrays; the
	// engine itself never rejects a channel count, since surround/ambisonic
	// layouts are a caller policy decision, not an engine limit.
	h, err := Open(types.PCMFormat{SampleRate: 8, Channels: MaxChannels + 2}, stats.SumDoubling, nil)
	require.NoError(t, err)
	defer Free(h)

	frames := make([]float64, MaxChannels+2)
	require.NoError(t, Feed(h, frames))

	res, err := Finalize(h)
	require.NoError(t, err)
	assert.Equal(t, MaxChannels+2, res.Channels)
}

func TestFeedRejectsMisalignedChunk(t *testing.T) {
	h, err := Open(types.PCMFormat{SampleRate: 8, Channels: 2}, stats.SumDoubling, nil)
	require.NoError(t, err)
	defer Free(h)

	err = Feed(h, []float64{0.1, 0.2, 0.3})
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestUnknownHandle(t *testing.T) {
	_, err := Finalize(Handle(999999))
	assert.ErrorIs(t, err, ErrUnknownHandle)

	err = Feed(Handle(999999), []float64{0})
	assert.ErrorIs(t, err, ErrUnknownHandle)

	err = Cancel(Handle(999999))
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestFinalizeTwiceIsInvalidState(t *testing.T) {
	h, err := Open(monoFormat(8), stats.SumDoubling, nil)
	require.NoError(t, err)
	defer Free(h)

	_, err = Finalize(h)
	require.NoError(t, err)

	_, err = Finalize(h)
	assert.ErrorIs(t, err, ErrInvalidState)

	err = Feed(h, []float64{0.1})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelBlocksFeedAndFinalize(t *testing.T) {
	h, err := Open(monoFormat(8), stats.SumDoubling, nil)
	require.NoError(t, err)
	defer Free(h)

	require.NoError(t, Cancel(h))

	err = Feed(h, []float64{0.1})
	assert.ErrorIs(t, err, ErrCancelled)

	_, err = Finalize(h)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestFreeIsIdempotentAndInvalidatesHandle(t *testing.T) {
	h, err := Open(monoFormat(8), stats.SumDoubling, nil)
	require.NoError(t, err)

	Free(h)
	Free(h) // no-op, must not panic

	err = Feed(h, []float64{0.1})
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestFinalizeInsufficientDataWithZeroBlocks(t *testing.T) {
	// block.Size(8) == 24; feed fewer frames than that so no block ever
	// completes.
	h, err := Open(monoFormat(8), stats.SumDoubling, nil)
	require.NoError(t, err)
	defer Free(h)

	frames := make([]float64, 10)
	for i := range frames {
		frames[i] = 0.5
	}

	require.NoError(t, Feed(h, frames))

	res, err := Finalize(h)
	require.NoError(t, err)
	assert.True(t, res.InsufficientData)
	assert.Equal(t, 1, res.Channels)
	assert.Equal(t, uint32(0), res.PerChannelBlocks[0])
}

func TestFinalizeSufficientDataWithExactlyOneFullBlock(t *testing.T) {
	// A single complete block is valid data, not insufficient: the
	// histogram falls back to its only peak and its only RMS figure.
	h, err := Open(monoFormat(8), stats.SumDoubling, nil)
	require.NoError(t, err)
	defer Free(h)

	frames := make([]float64, 24) // block.Size(8) == 24
	for i := range frames {
		frames[i] = 0.5
	}

	require.NoError(t, Feed(h, frames))

	res, err := Finalize(h)
	require.NoError(t, err)
	assert.False(t, res.InsufficientData)
	assert.Equal(t, 1, res.Channels)
	assert.Equal(t, uint32(1), res.PerChannelBlocks[0])
}

func TestFinalizeSufficientDataWithTwoFullBlocks(t *testing.T) {
	h, err := Open(monoFormat(8), stats.SumDoubling, nil)
	require.NoError(t, err)
	defer Free(h)

	blockSize := 24
	quiet := make([]float64, blockSize)

	loud := make([]float64, blockSize)
	for i := range loud {
		loud[i] = 0.9
	}

	require.NoError(t, Feed(h, quiet))
	require.NoError(t, Feed(h, loud))

	res, err := Finalize(h)
	require.NoError(t, err)
	assert.False(t, res.InsufficientData)
	assert.Equal(t, uint32(2), res.PerChannelBlocks[0])
	assert.False(t, math.IsNaN(res.TrackDR))
}

func TestFeedAcceptsMultipleChunksSpanningABlock(t *testing.T) {
	h, err := Open(monoFormat(8), stats.SumDoubling, nil)
	require.NoError(t, err)
	defer Free(h)

	half1 := make([]float64, 12)
	half2 := make([]float64, 12)

	require.NoError(t, Feed(h, half1))

	pending, err := Pending(h)
	require.NoError(t, err)
	assert.Equal(t, 12, pending)

	require.NoError(t, Feed(h, half2))

	pending, err = Pending(h)
	require.NoError(t, err)
	assert.Equal(t, 0, pending, "a completed block resets the accumulator")
}

func TestProgressCallbackFiresOnStride(t *testing.T) {
	var lastReported uint64

	calls := 0

	onProgress := func(framesProcessed uint64) {
		calls++
		lastReported = framesProcessed
	}

	h, err := Open(monoFormat(8), stats.SumDoubling, onProgress)
	require.NoError(t, err)
	defer Free(h)

	frames := make([]float64, progressStride+10)
	require.NoError(t, Feed(h, frames))

	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(progressStride), lastReported)
}
