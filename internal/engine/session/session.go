// Package session implements the streaming DR measurement session: the
// open -> feed* -> finalize|cancel -> free lifecycle, backed by an
// explicit handle table rather than a single global "current session"
// pointer, so multiple sessions can run concurrently without clobbering
// each other's state.
package session

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/block"
	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/drcalc"
	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/histogram"
	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/stats"
	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/types"
)

// MaxChannels bounds the per-channel arrays in Result, matching the fixed
// C-compatible export shape described by the external interface.
const MaxChannels = 8

// progressStride is how many frames accumulate between progress callback
// invocations.
const progressStride = 1 << 16

var (
	// ErrInvalidFormat is returned by Open when the PCM format is not
	// meterable (zero or negative sample rate, or zero channels), and by
	// Feed when a chunk does not hold a whole number of frames.
	ErrInvalidFormat = errors.New("session: invalid format")
	// ErrInvalidState is returned when a lifecycle method is called out of
	// order, e.g. Feed after Finalize, or Finalize twice.
	ErrInvalidState = errors.New("session: invalid state")
	// ErrCancelled is returned by Feed/Finalize once Cancel has been
	// called on the session.
	ErrCancelled = errors.New("session: cancelled")
	// ErrUnknownHandle is returned when a handle does not refer to a live
	// session, e.g. it was already freed.
	ErrUnknownHandle = errors.New("session: unknown handle")
)

type state int

const (
	stateOpen state = iota
	stateFinalized
	stateCancelled
	stateFreed
)

// ProgressFunc is invoked periodically during Feed with the cumulative
// number of frames processed so far. It must not call back into the
// session that invoked it (reentry is undefined behavior, per the
// session's single-threaded contract).
type ProgressFunc func(framesProcessed uint64)

// Session is one in-flight DR measurement. Callers never construct it
// directly; use Open to get a Handle.
type Session struct {
	mu sync.Mutex

	state state
	mode  stats.Mode
	format types.PCMFormat

	acc      *block.Accumulator
	channels []histogram.Channel

	framesProcessed uint64
	sinceProgress   uint64
	onProgress      ProgressFunc

	cancelled atomic.Bool
}

// Handle identifies a live Session in the process-wide table.
type Handle uint32

var (
	registryMu sync.Mutex
	registry   = map[Handle]*Session{}
	nextHandle uint32
)

// Open validates the format, allocates a Session, and registers it under
// a fresh Handle. Mode selects the RMS convention (stats.SumDoubling is
// the foobar2000-compatible default).
func Open(format types.PCMFormat, mode stats.Mode, onProgress ProgressFunc) (Handle, error) {
	if format.SampleRate <= 0 || format.Channels == 0 {
		return 0, ErrInvalidFormat
	}

	s := &Session{
		state:      stateOpen,
		mode:       mode,
		format:     format,
		acc:        block.New(int(format.Channels), block.Size(format.SampleRate)),
		channels:   make([]histogram.Channel, format.Channels),
		onProgress: onProgress,
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	nextHandle++
	h := Handle(nextHandle)
	registry[h] = s

	return h, nil
}

func lookup(h Handle) (*Session, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	s, ok := registry[h]
	if !ok {
		return nil, ErrUnknownHandle
	}

	return s, nil
}

// Feed pushes interleaved normalized samples (one float64 per sample,
// channel-interleaved, range roughly [-1, 1]) into the session. It can be
// called repeatedly with arbitrarily sized chunks; frames is
// len(interleaved) / channels and must divide evenly.
func Feed(h Handle, interleaved []float64) error {
	s, err := lookup(h)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled.Load() {
		return ErrCancelled
	}

	if s.state != stateOpen {
		return ErrInvalidState
	}

	channels := int(s.format.Channels)
	if len(interleaved)%channels != 0 {
		return ErrInvalidFormat
	}

	frames := len(interleaved) / channels

	for i := 0; i < frames; i++ {
		if s.cancelled.Load() {
			return ErrCancelled
		}

		frame := interleaved[i*channels : (i+1)*channels]

		if full, ok := s.acc.Push(frame); ok {
			for c := 0; c < channels; c++ {
				s.channels[c].Add(stats.Compute(full[c], s.mode))
			}
		}

		s.framesProcessed++
		s.sinceProgress++

		if s.sinceProgress >= progressStride {
			s.sinceProgress = 0

			if s.onProgress != nil {
				s.onProgress(s.framesProcessed)
			}
		}
	}

	return nil
}

// Cancel requests cooperative cancellation: the in-flight or next Feed
// call returns ErrCancelled, and Finalize refuses to run.
func Cancel(h Handle) error {
	s, err := lookup(h)
	if err != nil {
		return err
	}

	s.cancelled.Store(true)

	return nil
}

// Result is the finalized measurement, shaped to map directly onto the
// external DrResult export (per-channel arrays bounded by MaxChannels).
type Result struct {
	Channels          int
	PerChannelDR      [MaxChannels]float64
	PerChannelRMSDb   [MaxChannels]float64
	PerChannelPeakDb  [MaxChannels]float64
	PerChannelBlocks  [MaxChannels]uint32
	TrackDR           float64
	OfficialDR        int
	InsufficientData  bool // some channel never completed a single block
}

// Finalize flushes any trailing partial block (discarded, per the spec's
// rule that a short final block never counts) and reduces every channel's
// histogram into a Result. It leaves the session in a terminal state;
// Feed and Finalize can no longer be called, only Free.
func Finalize(h Handle) (Result, error) {
	s, err := lookup(h)
	if err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled.Load() {
		return Result{}, ErrCancelled
	}

	if s.state != stateOpen {
		return Result{}, ErrInvalidState
	}

	s.state = stateFinalized

	var (
		res        Result
		chanDR     []drcalc.Channel
		insuffient bool
	)

	res.Channels = len(s.channels)

	for i := range s.channels {
		agg, ok := s.channels[i].Reduce()
		if !ok {
			insuffient = true
		}

		c := drcalc.FromAggregate(agg)
		chanDR = append(chanDR, c)

		if i < MaxChannels {
			res.PerChannelDR[i] = c.DR
			res.PerChannelRMSDb[i] = c.RMSDb
			res.PerChannelPeakDb[i] = c.PeakDb
			res.PerChannelBlocks[i] = uint32(agg.BlockCount)
		}
	}

	res.TrackDR, res.OfficialDR = drcalc.Track(chanDR)
	res.InsufficientData = insuffient

	return res, nil
}

// Free releases the session's handle. It is valid to call Free from any
// state, including after Finalize or Cancel, and is a no-op on an already
// freed or unknown handle.
func Free(h Handle) {
	registryMu.Lock()
	defer registryMu.Unlock()

	delete(registry, h)
}

// Pending returns the number of frames currently buffered toward the next
// block that has not yet contributed to any channel's histogram, useful
// for diagnostics when a session is finalized mid-block.
func Pending(h Handle) (int, error) {
	s, err := lookup(h)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.acc.Pending(), nil
}
