package drmeter

import (
	"errors"

	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/engine/session"
	"github.com/SakuzyPeng/MacinMeter-DynamicRange-Tool-sub001/internal/types"
)

// Sentinel errors returned by Session methods. Use errors.Is to test for
// them; they wrap the engine's own sentinels so internal and public
// callers see the same identity.
var (
	ErrInvalidFormat  = session.ErrInvalidFormat
	ErrInvalidState   = session.ErrInvalidState
	ErrCancelled      = session.ErrCancelled
	ErrUnknownHandle  = session.ErrUnknownHandle
)

// ProgressFunc is invoked periodically during Feed with the cumulative
// frame count processed so far. It must not call back into the Session
// that invoked it.
type ProgressFunc = session.ProgressFunc

// Session is one streaming DR measurement: open, feed interleaved PCM
// zero or more times, then finalize or cancel, then always free.
//
// A Session is not safe for concurrent use by multiple goroutines; it is
// a single-threaded streaming pipeline by design (see Feed).
type Session struct {
	h      session.Handle
	closed bool
}

// Open begins a new session for a PCM stream with the given format and
// RMS mode. onProgress may be nil.
func Open(format types.PCMFormat, mode Mode, onProgress ProgressFunc) (*Session, error) {
	h, err := session.Open(format, mode, onProgress)
	if err != nil {
		return nil, err
	}

	return &Session{h: h}, nil
}

// Feed pushes interleaved, normalized samples (roughly [-1, 1], one
// float64 per sample, channel-interleaved) into the session. It can be
// called repeatedly with arbitrarily sized chunks as data streams in.
func (s *Session) Feed(interleaved []float64) error {
	if s.closed {
		return session.ErrInvalidState
	}

	return session.Feed(s.h, interleaved)
}

// Finalize flushes the trailing partial block (discarded, not counted)
// and reduces all channel histories into a Result. After Finalize, only
// Free may be called.
func (s *Session) Finalize() (DrResult, error) {
	if s.closed {
		return DrResult{}, session.ErrInvalidState
	}

	return session.Finalize(s.h)
}

// Cancel requests cooperative cancellation: in-flight or subsequent Feed
// calls, and any later Finalize, return ErrCancelled.
func (s *Session) Cancel() error {
	if s.closed {
		return session.ErrInvalidState
	}

	return session.Cancel(s.h)
}

// Free releases the session's resources. It is idempotent and safe to
// call after Finalize, Cancel, or an error from Open's caller discarding
// the session early.
func (s *Session) Free() {
	if s.closed {
		return
	}

	s.closed = true

	session.Free(s.h)
}

// IsTerminal reports whether err is one of the Session lifecycle
// sentinels (ErrInvalidState, ErrCancelled, ErrUnknownHandle), as opposed
// to a format or I/O error from the caller's own decoding.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrCancelled) || errors.Is(err, ErrUnknownHandle)
}
