// Package stats computes the per-block RMS and peak figures that feed the
// histogram stage, in the two RMS conventions the foobar2000 DR meter
// lineage supports.
package stats

import "math"

// Mode selects the RMS formula applied to a block.
type Mode int

const (
	// SumDoubling is the default: rms^2 = 2 * sum(s_i^2) / N. Doubling the
	// power sum before dividing compensates for treating each block as if
	// it were one half-cycle of a sine, which is how the original DR meter
	// defines "RMS" and is what its published DR values are calibrated to.
	SumDoubling Mode = iota
	// Classical is the textbook RMS: rms^2 = sum(s_i^2) / N.
	Classical
)

// Block holds one channel's statistics for one measurement block.
type Block struct {
	RMSSquared float64 // rms^2 in linear amplitude, as defined by Mode
	Peak       float64 // max(|s_i|) in linear amplitude, 0..1
}

// Compute reduces one channel's block of samples to its RMS^2 and peak.
func Compute(samples []float64, mode Mode) Block {
	var (
		sumSq float64
		peak  float64
	)

	for _, s := range samples {
		sumSq += s * s

		if a := math.Abs(s); a > peak {
			peak = a
		}
	}

	n := float64(len(samples))

	rmsSq := sumSq / n
	if mode == SumDoubling {
		rmsSq *= 2
	}

	return Block{RMSSquared: rmsSq, Peak: peak}
}
