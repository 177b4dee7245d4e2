package drmeter

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/types"
)

func TestAnalyzeDynamicRangeOnly(t *testing.T) {
	format := types.PCMFormat{SampleRate: 8, Channels: 1, BitDepth: types.Depth16, ExpectedBitDepth: types.Depth16}

	blockSize := 24
	samples := make([]float64, blockSize*3)

	for i := range samples {
		samples[i] = 0.3
	}

	data := encode16(samples)

	factory := func() (io.Reader, error) {
		return bytes.NewReader(data), nil
	}

	opts := DefaultOptions()
	opts.Checks = CheckDynamicRange

	result, err := Analyze(factory, format, opts)
	require.NoError(t, err)
	require.NotNil(t, result.DynamicRange)
	assert.NotEmpty(t, result.Issues)
	assert.Equal(t, CheckDynamicRange, result.Issues[0].Check)
}

func TestCheckStringRoundTrip(t *testing.T) {
	assert.Equal(t, "dynamic-range", CheckDynamicRange.String())
	assert.Equal(t, "clipping", CheckClipping.String())
	assert.Equal(t, "unknown", Check(0).String())
}

func TestBandsMatchDescending(t *testing.T) {
	b := Bands{Mild: 8, Moderate: 6, Severe: 4}

	sev, detected := b.Match(14)
	assert.False(t, detected)
	assert.Equal(t, SeverityNone, sev)

	sev, detected = b.Match(3)
	assert.True(t, detected)
	assert.Equal(t, SeveritySevere, sev)
}

func TestParseSource(t *testing.T) {
	_, err := ParseSource("bogus")
	assert.Error(t, err)

	src, err := ParseSource("vinyl")
	require.NoError(t, err)
	assert.Equal(t, SourceVinyl, src)
}
