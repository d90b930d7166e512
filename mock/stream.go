package mock

import "github.com/montycloud/moya"

// Interface compliance check.
var _ moya.Stream = (*Stream)(nil)

// Stream is a test double for moya.Stream.
// Set the function fields for the methods you need. NextFn panics when
// nil to catch missing setup. StateFn, TextFn, and CloseFn are nil-safe
// (zero value and no-op) because test code commonly calls defer
// stream.Close() and these methods rarely need custom behavior.
type Stream struct {
	NextFn  func() (moya.Event, error)
	StateFn func() moya.StreamState
	TextFn  func() string
	CloseFn func() error

	// Closed counts Close calls, for leak assertions.
	Closed int
}

// Next delegates to NextFn.
func (s *Stream) Next() (moya.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateIdle when StateFn is nil.
func (s *Stream) State() moya.StreamState {
	if s.StateFn == nil {
		return moya.StreamStateIdle
	}
	return s.StateFn()
}

// Text delegates to TextFn. Returns "" when TextFn is nil.
func (s *Stream) Text() string {
	if s.TextFn == nil {
		return ""
	}
	return s.TextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	s.Closed++
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
