//nolint:wrapcheck
package main

import (
	"fmt"
	"math"
	"os"

	"github.com/farcloser/primordium/format"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001"
	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/output"
)

const docsBaseURL = "https://github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/blob/main/docs/checks"

// issueInfo maps checks to their doc ID and category.
type issueInfo struct {
	docID    string
	category string
}

//nolint:gochecknoglobals // configuration data, effectively const
var issueInfoMap = map[drmeter.Check]issueInfo{
	// Source authenticity
	drmeter.CheckFakeBitDepth:   {docID: "DRM-002", category: "1. Source authenticity"},
	drmeter.CheckFakeSampleRate: {docID: "DRM-003", category: "1. Source authenticity"},
	drmeter.CheckLossyTranscode: {docID: "DRM-004", category: "1. Source authenticity"},
	drmeter.CheckFakeStereo:     {docID: "DRM-005", category: "1. Source authenticity"},

	// Stereo field
	drmeter.CheckPhaseIssues:      {docID: "DRM-006", category: "2. Stereo field"},
	drmeter.CheckInvertedPhase:    {docID: "DRM-007", category: "2. Stereo field"},
	drmeter.CheckChannelImbalance: {docID: "DRM-008", category: "2. Stereo field"},

	// Dynamics & levels
	drmeter.CheckClipping:     {docID: "DRM-001", category: "3. Dynamics & levels"},
	drmeter.CheckDynamicRange: {docID: "DRM-010", category: "3. Dynamics & levels"},
	drmeter.CheckDCOffset:     {docID: "DRM-012", category: "3. Dynamics & levels"},

	// Noise & interference
	drmeter.CheckHum:        {docID: "DRM-013", category: "4. Noise & interference"},
	drmeter.CheckNoiseFloor: {docID: "DRM-014", category: "4. Noise & interference"},

	// Digital artifacts
	drmeter.CheckDropouts:       {docID: "DRM-015", category: "5. Digital artifacts"},
	drmeter.CheckTruncation:     {docID: "DRM-016", category: "5. Digital artifacts"},
	drmeter.CheckSilencePadding: {docID: "DRM-017", category: "5. Digital artifacts"},
}

// categoryOrder defines the display order for categories (numbered for sorting).
//
//nolint:gochecknoglobals // configuration data, effectively const
var categoryOrder = []string{
	"1. Source authenticity",
	"2. Stereo field",
	"3. Dynamics & levels",
	"4. Noise & interference",
	"5. Digital artifacts",
}

func outputResult(filePath string, result *drmeter.Result, formatName string, debug bool) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	var meta map[string]any
	if debug {
		meta = output.ResultToMap(result)
	} else {
		meta = buildFriendlyOutput(result)
	}

	data := &format.Data{
		Object: filePath,
		Meta:   meta,
	}

	return formatter.PrintAll([]*format.Data{data}, os.Stdout)
}

// buildFriendlyOutput creates a user-friendly summary of the analysis results.
func buildFriendlyOutput(result *drmeter.Result) map[string]any {
	meta := map[string]any{
		"summary": fmt.Sprintf("%d issues found (worst: %s)", result.IssueCount, result.WorstSeverity),
	}

	// Group issues by category.
	categoryIssues := make(map[string][]any)

	for _, issue := range result.Issues {
		info, ok := issueInfoMap[issue.Check]
		if !ok {
			continue
		}

		marker := "  "
		if issue.Detected {
			marker = "!!"
		}

		docURL := fmt.Sprintf("%s/%s.md", docsBaseURL, info.docID)
		line := fmt.Sprintf("%s [%s] %s: %s (%.0f%% confidence) - %s",
			marker, issue.Severity, issue.Check, issue.Summary, issue.Confidence*100, docURL)

		categoryIssues[info.category] = append(categoryIssues[info.category], line)
	}

	// Build ordered issues map.
	if len(categoryIssues) > 0 {
		issues := make(map[string]any)

		for _, cat := range categoryOrder {
			if catIssues, ok := categoryIssues[cat]; ok {
				issues[cat] = catIssues
			}
		}

		meta["issues"] = issues
	}

	// Key properties.
	props := buildProperties(result)
	if len(props) > 0 {
		meta["properties"] = props
	}

	return meta
}

func buildProperties(result *drmeter.Result) map[string]any {
	props := make(map[string]any)

	if r := result.DynamicRange; r != nil {
		props["dynamic_range"] = fmt.Sprintf("DR%d (track mean %.2f)", r.OfficialDR, r.TrackDR)
	}

	if r := result.Spectral; r != nil {
		props["spectral_centroid"] = fmt.Sprintf("%.0f Hz", r.SpectralCentroid)
		props["noise_floor"] = fmt.Sprintf("%.1f dB", r.NoiseFloorDb)
	}

	if r := result.Stereo; r != nil {
		props["stereo_width"] = fmt.Sprintf("%s (correlation: %.2f)", stereoWidthLabel(r.Correlation), r.Correlation)
		if math.Abs(r.ImbalanceDb) > 0.5 {
			props["channel_imbalance"] = fmt.Sprintf(
				"%.1f dB (%s louder)",
				math.Abs(r.ImbalanceDb),
				imbalanceSide(r.ImbalanceDb),
			)
		}
	}

	if r := result.BitDepth; r != nil {
		if r.Claimed != r.Effective {
			props["bit_depth"] = fmt.Sprintf("%d-bit (effective: %d-bit)", r.Claimed, r.Effective)
		} else {
			props["bit_depth"] = fmt.Sprintf("%d-bit", r.Claimed)
		}
	}

	return props
}

func stereoWidthLabel(correlation float64) string {
	switch {
	case correlation > 0.95:
		return "Mono/Narrow"
	case correlation > 0.75:
		return "Narrow"
	case correlation > 0.5:
		return "Normal"
	case correlation > 0.2:
		return "Wide"
	default:
		return "Very Wide"
	}
}

func imbalanceSide(imbalanceDb float64) string {
	if imbalanceDb > 0 {
		return "left"
	}

	return "right"
}
