package drmeter

import (
	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/session"
	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/stats"
)

// Mode selects the RMS convention a Session measures with.
type Mode = stats.Mode

const (
	// SumDoubling is the foobar2000 DR meter v1.1.1-compatible default.
	SumDoubling = stats.SumDoubling
	// Classical is the textbook RMS convention, provided for comparison.
	Classical = stats.Classical
)

// MaxChannels bounds the per-channel arrays in DrResult.
const MaxChannels = session.MaxChannels

// DrResult is a finalized DR measurement for one stream. Per-channel
// arrays are valid up to Channels entries.
type DrResult = session.Result
