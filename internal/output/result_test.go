package output

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001"
)

func TestDynamicRangeToMap(t *testing.T) {
	dr := drmeter.DrResult{
		Channels:         2,
		PerChannelDR:     [drmeter.MaxChannels]float64{12.5, 12.1},
		PerChannelRMSDb:  [drmeter.MaxChannels]float64{-15, -15.4},
		PerChannelPeakDb: [drmeter.MaxChannels]float64{-2, -2.3},
		PerChannelBlocks: [drmeter.MaxChannels]uint32{10, 10},
		TrackDR:          12.3,
		OfficialDR:       12,
	}

	m := DynamicRangeToMap(&dr)

	assert.Equal(t, 12.3, m["track_dr"])
	assert.Equal(t, 12, m["official_dr"])
	assert.Equal(t, false, m["insufficient_data"])

	channels, ok := m["channels"].([]any)
	assert.True(t, ok)
	assert.Len(t, channels, 2)
}
