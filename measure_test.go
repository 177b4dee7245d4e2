package drmeter

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/types"
)

func encode16(samples []float64) []byte {
	buf := make([]byte, 2*len(samples))

	for i, s := range samples {
		v := int16(s * 32767)
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}

	return buf
}

func TestMeasureConstantSignal(t *testing.T) {
	format := types.PCMFormat{SampleRate: 8, Channels: 1, BitDepth: types.Depth16}

	blockSize := 24
	samples := make([]float64, blockSize*3)

	for i := range samples {
		samples[i] = 0.5
	}

	data := encode16(samples)

	res, err := Measure(bytes.NewReader(data), format, SumDoubling, nil)
	require.NoError(t, err)
	assert.False(t, res.InsufficientData)
	assert.Equal(t, 1, res.Channels)
	assert.False(t, math.IsNaN(res.TrackDR))
}

func TestMeasureRejectsZeroFrameSize(t *testing.T) {
	format := types.PCMFormat{SampleRate: 8, Channels: 0, BitDepth: types.Depth16}

	_, err := Measure(bytes.NewReader(nil), format, SumDoubling, nil)
	assert.Error(t, err)
}

func TestMeasureProgressCallback(t *testing.T) {
	format := types.PCMFormat{SampleRate: 8, Channels: 1, BitDepth: types.Depth16}

	samples := make([]float64, 70000) // exceeds the 1<<16 progress stride
	data := encode16(samples)

	var reported uint64

	_, err := Measure(bytes.NewReader(data), format, SumDoubling, func(frames uint64) {
		reported = frames
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(65536), reported)
}
