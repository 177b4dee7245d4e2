package drcalc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/histogram"
)

func TestFromAggregate(t *testing.T) {
	// rms^2 = 0.01 -> rmsDb = 10*log10(0.01) = -20
	// peak = 0.5   -> peakDb = 20*log10(0.5)  = -6.0206...
	agg := histogram.Aggregate{Top20RMSSquared: 0.01, SecondPeak: 0.5, BlockCount: 5}

	c := FromAggregate(agg)
	assert.InDelta(t, -20.0, c.RMSDb, 1e-9)
	assert.InDelta(t, -6.0206, c.PeakDb, 1e-3)
	assert.InDelta(t, c.PeakDb-c.RMSDb, c.DR, 1e-12)
}

func TestFromAggregateSilentChannelFloorsInsteadOfNaN(t *testing.T) {
	agg := histogram.Aggregate{Top20RMSSquared: 0, SecondPeak: 0, BlockCount: 5}

	c := FromAggregate(agg)
	assert.False(t, math.IsNaN(c.DR))
	assert.False(t, math.IsInf(c.RMSDb, 0))
	assert.False(t, math.IsInf(c.PeakDb, 0))
	assert.InDelta(t, 0.0, c.DR, 1e-9, "a fully silent channel has no dynamic range to measure, but it is 0, not NaN")
}

func TestTrackMeansPerChannelDR(t *testing.T) {
	channels := []Channel{{DR: 10}, {DR: 14}, {DR: 12}}

	mean, official := Track(channels)
	assert.InDelta(t, 12.0, mean, 1e-12)
	assert.Equal(t, 12, official)
}

func TestTrackEmptyChannels(t *testing.T) {
	mean, official := Track(nil)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0, official)
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{12.5, 13},
		{12.4, 12},
		{-12.5, -13},
		{-12.4, -12},
		{0.5, 1},
		{-0.5, -1},
		{0, 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, roundHalfAwayFromZero(tc.in), "in=%v", tc.in)
	}
}

func TestTrackRoundsHalfAwayFromZero(t *testing.T) {
	// Mean of 11.5 and 11.5 is 11.5, which rounds away from zero to 12.
	_, official := Track([]Channel{{DR: 11.5}, {DR: 11.5}})
	assert.Equal(t, 12, official)
	assert.False(t, math.IsNaN(float64(official)))
}
