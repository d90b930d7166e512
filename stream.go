package moya

import "context"

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateIdle      StreamState = iota // Before Next() is ever called.
	StreamStateOpening                      // Connection issued, no frame yet.
	StreamStateStreaming                    // First frame received, mid-stream.
	StreamStateClosed                       // Normal end-of-stream.
	StreamStateFailed                       // Transport error, server error frame, or timeout.
)

// Terminal reports whether the state admits no further events.
func (s StreamState) Terminal() bool {
	return s == StreamStateClosed || s == StreamStateFailed
}

// Stream is one server-event connection for one outgoing user turn,
// exposed as a pull-based iterator. Cancellation flows through the
// context passed to Streamer.Open().
//
// Next() returns the next semantic event, io.EOF on normal end-of-stream,
// or a non-EOF error on failure. Once Next() has returned an error the
// stream is terminal and the underlying connection is already closed;
// no further events follow.
//
// Text() returns the content accumulated from deltas so far. In a
// terminal state it is the final (possibly partial) content.
//
// Close() is idempotent, safe after natural completion, and safe to
// call concurrently with a blocked Next; the abort then surfaces from
// that Next as ErrStreamClosed. Terminal streams are never reused; the
// next turn requires a new Stream.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Text() string
	Close() error
}

// Streamer opens one Stream per outgoing user turn.
type Streamer interface {
	Open(ctx context.Context, req Request) (Stream, error)
}
