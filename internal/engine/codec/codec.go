// Package codec classifies an input stream's codec family so the engine
// knows which bitrate formula to apply before a DR session ever sees a
// sample.
package codec

import "fmt"

// Class is the coarse codec family used by the bitrate formula and by the
// report to decide whether its bitrate line shows a value or "n/a".
type Class int

const (
	// Uncompressed covers raw and container-wrapped linear PCM.
	Uncompressed Class = iota
	// Compressed covers anything that reduces file size, lossless or not.
	Compressed
	// Special covers formats the bitrate formulas below don't apply to,
	// e.g. DSD/SACD bitstreams. Bitrate is reported as not applicable.
	Special
)

func (c Class) String() string {
	switch c {
	case Uncompressed:
		return "uncompressed"
	case Compressed:
		return "compressed"
	case Special:
		return "special"
	}

	return "unknown"
}

// uncompressedCodecs lists container/codec names that carry linear PCM
// untouched. Anything not in this list or the special list is treated as
// compressed (lossy or lossless).
var uncompressedCodecs = map[string]bool{
	"pcm_s16le": true,
	"pcm_s16be": true,
	"pcm_s24le": true,
	"pcm_s24be": true,
	"pcm_s32le": true,
	"pcm_s32be": true,
	"pcm_f32le": true,
	"pcm_f64le": true,
	"wav":       true,
	"aiff":      true,
	"aif":       true,
}

// specialCodecs lists codecs with no meaningful PCM bitrate, such as
// 1-bit DSD bitstreams, which this engine still accepts as sample input
// (once decoded to PCM by the host) but reports bitrate for as N/A.
var specialCodecs = map[string]bool{
	"dsd_lsbf":   true,
	"dsd_msbf":   true,
	"dsd_lsbf_planar": true,
	"dsd_msbf_planar": true,
	"dsf":        true,
	"dff":        true,
}

// Classify returns the codec family for a codec name as reported by a
// host decoder (e.g. ffprobe's codec_name field), case-sensitively matched
// against ffmpeg/libavcodec naming.
func Classify(codecName string) Class {
	if specialCodecs[codecName] {
		return Special
	}

	if uncompressedCodecs[codecName] {
		return Uncompressed
	}

	return Compressed
}

// BitrateUncompressed computes the theoretical PCM bitrate in bits per
// second from format parameters alone, since an uncompressed stream's
// bitrate is fully determined by its sample rate, bit depth and channel
// count rather than by how many bytes the container happens to use.
func BitrateUncompressed(sampleRate int, bitDepth, channels uint) int64 {
	return int64(sampleRate) * int64(bitDepth) * int64(channels)
}

// BitrateCompressed computes the average bitrate in bits per second from
// the encoded file size and stream duration, since a compressed stream's
// bitrate cannot be derived from its format parameters alone.
func BitrateCompressed(fileSizeBytes int64, durationSec float64) (int64, error) {
	if durationSec <= 0 {
		return 0, fmt.Errorf("codec: non-positive duration %.6fs", durationSec)
	}

	return int64(float64(fileSizeBytes) * 8 / durationSec), nil
}
