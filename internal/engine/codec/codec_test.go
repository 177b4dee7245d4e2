package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		codecName string
		want      Class
	}{
		{"pcm_s16le", Uncompressed},
		{"pcm_s24be", Uncompressed},
		{"wav", Uncompressed},
		{"flac", Compressed},
		{"aac", Compressed},
		{"mp3", Compressed},
		{"dsd_lsbf", Special},
		{"dff", Special},
		{"unknown_codec", Compressed},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.codecName), "codec=%s", tc.codecName)
	}
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "uncompressed", Uncompressed.String())
	assert.Equal(t, "compressed", Compressed.String())
	assert.Equal(t, "special", Special.String())
}

func TestBitrateUncompressed(t *testing.T) {
	// 44100 Hz, 16-bit, stereo: 44100 * 16 * 2 = 1411200 bps (CD quality).
	assert.Equal(t, int64(1411200), BitrateUncompressed(44100, 16, 2))
}

func TestBitrateCompressed(t *testing.T) {
	bps, err := BitrateCompressed(1_000_000, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), bps)
}

func TestBitrateCompressedRejectsNonPositiveDuration(t *testing.T) {
	_, err := BitrateCompressed(1000, 0)
	assert.Error(t, err)

	_, err = BitrateCompressed(1000, -1)
	assert.Error(t, err)
}
