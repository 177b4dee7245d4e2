package drmeter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/types"
)

func TestOpenFeedFinalizeRoundTrip(t *testing.T) {
	format := types.PCMFormat{SampleRate: 8, Channels: 1, BitDepth: types.Depth16}

	s, err := Open(format, SumDoubling, nil)
	require.NoError(t, err)
	defer s.Free()

	blockSize := 24 // block.Size(8)

	frame := make([]float64, blockSize)
	for i := range frame {
		frame[i] = 0.6
	}

	require.NoError(t, s.Feed(frame))
	require.NoError(t, s.Feed(frame))

	res, err := s.Finalize()
	require.NoError(t, err)
	assert.False(t, res.InsufficientData)
	assert.Equal(t, 1, res.Channels)
}

func TestSessionFreeThenFeedIsInvalidState(t *testing.T) {
	s, err := Open(types.PCMFormat{SampleRate: 8, Channels: 1}, SumDoubling, nil)
	require.NoError(t, err)

	s.Free()

	err = s.Feed([]float64{0.1})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.True(t, IsTerminal(err))
}

func TestIsTerminalDistinguishesLifecycleErrorsFromFormatErrors(t *testing.T) {
	assert.True(t, IsTerminal(ErrCancelled))
	assert.True(t, IsTerminal(ErrInvalidState))
	assert.True(t, IsTerminal(ErrUnknownHandle))
	assert.False(t, IsTerminal(ErrInvalidFormat))
}

func TestOpenRejectsUnmeterableFormat(t *testing.T) {
	_, err := Open(types.PCMFormat{SampleRate: 0, Channels: 1}, SumDoubling, nil)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
