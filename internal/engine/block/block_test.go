package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSize(t *testing.T) {
	cases := []struct {
		sampleRate int
		want       int
	}{
		{44100, 132300},
		{48000, 144000},
		{96000, 288000},
		{1, 3},
		{0, 1},
		{-44100, 1},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Size(tc.sampleRate), "sampleRate=%d", tc.sampleRate)
	}
}

func TestAccumulatorPushCompletesAtBlockSize(t *testing.T) {
	acc := New(2, 3)

	_, complete := acc.Push([]float64{0.1, 0.2})
	assert.False(t, complete)
	assert.Equal(t, 1, acc.Pending())

	_, complete = acc.Push([]float64{0.3, 0.4})
	assert.False(t, complete)
	assert.Equal(t, 2, acc.Pending())

	full, complete := acc.Push([]float64{0.5, 0.6})
	assert.True(t, complete)
	assert.Equal(t, 0, acc.Pending(), "buffer resets after a completed block")
	assert.InDeltaSlice(t, []float64{0.1, 0.3, 0.5}, full[0], 1e-9)
	assert.InDeltaSlice(t, []float64{0.2, 0.4, 0.6}, full[1], 1e-9)
}

func TestAccumulatorTailNeverCompletesAlone(t *testing.T) {
	acc := New(1, 4)

	for i := 0; i < 3; i++ {
		_, complete := acc.Push([]float64{float64(i)})
		assert.False(t, complete)
	}

	assert.Equal(t, 3, acc.Pending())
}
