// Package histogram accumulates per-block statistics for a single channel
// over the life of a session and reduces them, at finalize time, to the
// two figures the DR formula needs: the top-20% RMS average and the
// second-largest peak.
package histogram

import (
	"sort"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/stats"
)

// Channel collects one audio channel's per-block RMS^2 and peak values
// across an entire session. It never discards a block while a session is
// open, since the top-20% calculation needs the full distribution.
type Channel struct {
	rmsSquared []float64
	peaks      []float64
}

// Add records one completed block's statistics.
func (c *Channel) Add(b stats.Block) {
	c.rmsSquared = append(c.rmsSquared, b.RMSSquared)
	c.peaks = append(c.peaks, b.Peak)
}

// BlockCount returns the number of blocks recorded so far.
func (c *Channel) BlockCount() int {
	return len(c.rmsSquared)
}

// Aggregate is the reduction of a channel's full block history, computed
// once at finalize time.
type Aggregate struct {
	Top20RMSSquared float64 // power-domain average of the loudest 20% of blocks
	SecondPeak      float64 // second-largest per-block peak, linear amplitude
	BlockCount      int
}

// Reduce computes the Aggregate for a channel. It returns false if the
// channel has no blocks at all (the caller should treat this as
// insufficient data rather than divide by zero).
func (c *Channel) Reduce() (Aggregate, bool) {
	n := len(c.rmsSquared)
	if n == 0 {
		return Aggregate{}, false
	}

	rmsSorted := append([]float64(nil), c.rmsSquared...)
	sort.Sort(sort.Reverse(sort.Float64Slice(rmsSorted)))

	peaksSorted := append([]float64(nil), c.peaks...)
	sort.Sort(sort.Reverse(sort.Float64Slice(peaksSorted)))

	topN := n / 5
	if topN < 1 {
		topN = 1
	}

	var sum float64
	for _, v := range rmsSorted[:topN] {
		sum += v
	}

	top20 := sum / float64(topN)

	// The second-largest peak, not the largest: the DR meter treats the
	// single loudest transient in a track as an outlier and measures
	// against the runner-up instead. A track with only one block has no
	// second peak, so it falls back to the only one available.
	secondPeak := peaksSorted[0]
	if n > 1 {
		secondPeak = peaksSorted[1]
	}

	return Aggregate{
		Top20RMSSquared: top20,
		SecondPeak:      secondPeak,
		BlockCount:      n,
	}, true
}
