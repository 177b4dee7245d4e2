package histogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/stats"
)

func TestReduceEmptyChannel(t *testing.T) {
	var c Channel

	_, ok := c.Reduce()
	assert.False(t, ok)
	assert.Equal(t, 0, c.BlockCount())
}

func TestReduceTop20Percent(t *testing.T) {
	var c Channel

	// 10 blocks, rms^2 = 1..10; top 20% is the top two (10, 9), averaged.
	for i := 1; i <= 10; i++ {
		c.Add(stats.Block{RMSSquared: float64(i), Peak: float64(i) / 10})
	}

	agg, ok := c.Reduce()
	require.True(t, ok)
	assert.Equal(t, 10, agg.BlockCount)
	assert.InDelta(t, 9.5, agg.Top20RMSSquared, 1e-9)
}

func TestReduceSecondLargestPeak(t *testing.T) {
	var c Channel

	c.Add(stats.Block{RMSSquared: 1, Peak: 0.5})
	c.Add(stats.Block{RMSSquared: 1, Peak: 0.9})
	c.Add(stats.Block{RMSSquared: 1, Peak: 0.7})

	agg, ok := c.Reduce()
	require.True(t, ok)
	assert.InDelta(t, 0.7, agg.SecondPeak, 1e-12, "largest peak (0.9) is treated as an outlier")
}

func TestReduceSingleBlockFallsBackToOnlyPeak(t *testing.T) {
	var c Channel

	c.Add(stats.Block{RMSSquared: 1, Peak: 0.42})

	agg, ok := c.Reduce()
	require.True(t, ok)
	assert.Equal(t, 1, agg.BlockCount)
	assert.InDelta(t, 0.42, agg.SecondPeak, 1e-12)
}

func TestReduceTopNFloorsToOneForFewBlocks(t *testing.T) {
	var c Channel

	c.Add(stats.Block{RMSSquared: 4, Peak: 0.1})
	c.Add(stats.Block{RMSSquared: 9, Peak: 0.2})

	agg, ok := c.Reduce()
	require.True(t, ok)
	// n/5 == 0 for n < 5, floored to 1: only the loudest block counts.
	assert.InDelta(t, 9, agg.Top20RMSSquared, 1e-12)
}
