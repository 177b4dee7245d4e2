// Package report renders a finalized DR measurement as the canonical
// plain-text block the foobar2000 DR meter lineage produces, independent
// of whatever structured output format (console/json/markdown) wraps it.
package report

import (
	"fmt"
	"strings"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/codec"
	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/session"
)

const ruleWidth = 80

// Track describes one measured file for the report's per-track table
// row and the trailing format summary.
type Track struct {
	Name       string
	Result     session.Result
	SampleRate int
	BitDepth   uint
	Channels   uint
	Codec      codec.Class
	BitrateBps int64 // 0 when Codec == codec.Special (not applicable)
}

// Render produces the full multi-line text report for one or more
// tracks, matching the section order of the reference tool: a rule, a
// per-track table, a rule, the official DR value and track count, a
// format summary block, and a closing rule.
func Render(tracks []Track) string {
	var b strings.Builder

	rule := strings.Repeat("-", ruleWidth)

	b.WriteString(rule)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%-10s %-12s %-12s %s\n", "DR", "Peak", "RMS", "Track")
	b.WriteString(rule)
	b.WriteString("\n")

	var sumOfficial int

	for _, t := range tracks {
		fmt.Fprintf(
			&b,
			"DR%-8d %8.2f dB %8.2f dB  %s\n",
			t.Result.OfficialDR,
			peakDb(t.Result),
			rmsDb(t.Result),
			t.Name,
		)

		sumOfficial += t.Result.OfficialDR

		if t.Result.InsufficientData {
			fmt.Fprintf(&b, "           (insufficient data: track shorter than one measurement block)\n")
		}
	}

	b.WriteString(rule)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Number of tracks:  %d\n", len(tracks))

	if len(tracks) > 0 {
		fmt.Fprintf(&b, "Official DR value: DR%d\n\n", sumOfficial/len(tracks))
	}

	for _, t := range tracks {
		fmt.Fprintf(&b, "Samplerate:        %d Hz\n", t.SampleRate)
		fmt.Fprintf(&b, "Channels:          %d\n", t.Channels)
		fmt.Fprintf(&b, "Bits per sample:   %d\n", t.BitDepth)

		switch t.Codec {
		case codec.Special:
			b.WriteString("Bitrate:           n/a\n")
		default:
			fmt.Fprintf(&b, "Bitrate:           %d kbps\n", t.BitrateBps/1000)
		}
	}

	b.WriteString(rule)
	b.WriteString("\n")

	return b.String()
}

func peakDb(r session.Result) float64 {
	return channelMean(r.PerChannelPeakDb[:r.Channels])
}

func rmsDb(r session.Result) float64 {
	return channelMean(r.PerChannelRMSDb[:r.Channels])
}

func channelMean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}

	var sum float64
	for _, v := range vs {
		sum += v
	}

	return sum / float64(len(vs))
}
