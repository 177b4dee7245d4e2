// Package drcalc turns per-channel histogram aggregates into a dynamic
// range value, in both the per-channel dB form and the rounded integer
// "DR14-style" score a listener recognizes.
package drcalc

import (
	"math"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/histogram"
)

// Channel is one channel's finished DR figures.
type Channel struct {
	DR     float64 // peak_2nd_dB - rms_top20_dB
	RMSDb  float64
	PeakDb float64
}

// floorLinear is the smallest linear amplitude a dB conversion will accept,
// clamping a silent channel's 0 to this instead of letting log10 reach -Inf.
const floorLinear = 1e-12

// FromAggregate converts one channel's histogram.Aggregate into dB-domain
// figures and its DR value. Top20RMSSquared and SecondPeak are clamped
// before the log so a silent channel yields a finite (if very negative)
// dB value rather than -Inf/NaN.
func FromAggregate(a histogram.Aggregate) Channel {
	rmsSquared := math.Max(a.Top20RMSSquared, floorLinear*floorLinear)
	peak := math.Max(a.SecondPeak, floorLinear)

	rmsDb := 10 * math.Log10(rmsSquared)
	peakDb := 20 * math.Log10(peak)

	return Channel{
		DR:     peakDb - rmsDb,
		RMSDb:  rmsDb,
		PeakDb: peakDb,
	}
}

// Track combines per-channel DR into the single track-level figure a
// report shows: the mean of the per-channel DR values, and that mean
// rounded half-away-from-zero to the nearest integer (the "official" DR
// score).
func Track(channels []Channel) (mean float64, official int) {
	if len(channels) == 0 {
		return 0, 0
	}

	var sum float64
	for _, c := range channels {
		sum += c.DR
	}

	mean = sum / float64(len(channels))

	return mean, roundHalfAwayFromZero(mean)
}

func roundHalfAwayFromZero(v float64) int {
	if v >= 0 {
		return int(math.Floor(v + 0.5))
	}

	return int(math.Ceil(v - 0.5))
}
