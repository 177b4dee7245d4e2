package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/codec"
	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/session"
)

func TestRenderSingleTrack(t *testing.T) {
	tracks := []Track{
		{
			Name: "01 - track one.flac",
			Result: session.Result{
				Channels:         2,
				PerChannelPeakDb: [session.MaxChannels]float64{-1.5, -1.7},
				PerChannelRMSDb:  [session.MaxChannels]float64{-15.0, -15.2},
				TrackDR:          13.4,
				OfficialDR:       13,
			},
			SampleRate: 44100,
			BitDepth:   16,
			Channels:   2,
			Codec:      codec.Uncompressed,
			BitrateBps: 1411200,
		},
	}

	out := Render(tracks)

	assert.Contains(t, out, "DR13")
	assert.Contains(t, out, "01 - track one.flac")
	assert.Contains(t, out, "Number of tracks:  1")
	assert.Contains(t, out, "Official DR value: DR13")
	assert.Contains(t, out, "Bitrate:           1411 kbps")
	assert.Contains(t, out, "Samplerate:        44100 Hz")
}

func TestRenderFlagsInsufficientData(t *testing.T) {
	tracks := []Track{
		{
			Name:   "short.flac",
			Result: session.Result{Channels: 1, InsufficientData: true},
		},
	}

	out := Render(tracks)
	assert.Contains(t, out, "insufficient data")
}

func TestRenderSpecialCodecReportsBitrateNA(t *testing.T) {
	tracks := []Track{
		{Name: "dsd.dff", Result: session.Result{Channels: 2}, Codec: codec.Special},
	}

	out := Render(tracks)
	assert.Contains(t, out, "Bitrate:           n/a")
}

func TestRenderOfficialDRIsMeanAcrossTracks(t *testing.T) {
	tracks := []Track{
		{Name: "a.flac", Result: session.Result{Channels: 1, OfficialDR: 10}},
		{Name: "b.flac", Result: session.Result{Channels: 1, OfficialDR: 14}},
	}

	out := Render(tracks)
	assert.Contains(t, out, "Official DR value: DR12")
}

func TestRenderEmptyTrackList(t *testing.T) {
	out := Render(nil)
	assert.True(t, strings.Contains(out, "Number of tracks:  0"))
	assert.NotContains(t, out, "Official DR value")
}
