package drmeter

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/diagnostics/shared"
	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/types"
)

// Measure runs a full streaming session over r's raw interleaved PCM
// bytes and returns the finalized Result. It is the convenience entry
// point for callers that already have the whole stream as an io.Reader
// (e.g. a decoded temp file) and don't need fine-grained Feed control or
// cancellation; it is built entirely on the public Session API.
func Measure(r io.Reader, format types.PCMFormat, mode Mode, onProgress ProgressFunc) (DrResult, error) {
	sess, err := Open(format, mode, onProgress)
	if err != nil {
		return DrResult{}, err
	}
	defer sess.Free()

	bytesPerSample := int(format.BitDepth / 8)
	frameSize := bytesPerSample * int(format.Channels)

	if frameSize == 0 {
		return DrResult{}, ErrInvalidFormat
	}

	const framesPerChunk = 8192
	buf := make([]byte, frameSize*framesPerChunk)
	samples := make([]float64, 0, framesPerChunk*int(format.Channels))

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			complete := (n / frameSize) * frameSize
			samples = samples[:0]

			if err := decodeInto(&samples, buf[:complete], format); err != nil {
				return DrResult{}, err
			}

			if err := sess.Feed(samples); err != nil {
				return DrResult{}, err
			}
		}

		if readErr == io.EOF {
			break
		}

		if readErr != nil {
			return DrResult{}, fmt.Errorf("drmeter: read PCM: %w", readErr)
		}
	}

	return sess.Finalize()
}

// decodeInto appends normalized float64 samples (interleaved) decoded
// from raw little-endian signed PCM bytes to dst.
func decodeInto(dst *[]float64, data []byte, format types.PCMFormat) error {
	switch format.BitDepth {
	case types.Depth16:
		for i := 0; i+2 <= len(data); i += 2 {
			v := int16(binary.LittleEndian.Uint16(data[i:]))
			*dst = append(*dst, float64(v)/shared.MaxValue16)
		}
	case types.Depth24:
		for i := 0; i+3 <= len(data); i += 3 {
			v := int32(data[i]) | int32(data[i+1])<<8 | int32(data[i+2])<<16
			if v&0x800000 != 0 {
				v |= ^0xFFFFFF
			}

			*dst = append(*dst, float64(v)/shared.MaxValue24)
		}
	case types.Depth32:
		for i := 0; i+4 <= len(data); i += 4 {
			v := int32(binary.LittleEndian.Uint32(data[i:]))
			*dst = append(*dst, float64(v)/shared.MaxValue32)
		}
	default:
		return fmt.Errorf("drmeter: unsupported bit depth %d", format.BitDepth)
	}

	return nil
}
