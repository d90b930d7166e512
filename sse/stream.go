package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/montycloud/moya"
)

// stream implements [moya.Stream] by parsing SSE frames from an HTTP
// response body.
type stream struct {
	body         io.ReadCloser
	scanner      *bufio.Scanner
	ctx          context.Context
	frameTimeout time.Duration
	logger       *slog.Logger

	// state, acc, and err are owned by the goroutine calling Next.
	// Close may run on another goroutine and touches only closed and
	// the body.
	state    moya.StreamState
	acc      strings.Builder
	err      error // terminal error, if any
	timedOut atomic.Bool
	closed   atomic.Bool
}

// frame is the wire format of one data payload. The backend emits
// either a content fragment or a terminal error detail.
type frame struct {
	Content string `json:"content"`
	Error   string `json:"error"`
}

// Interface compliance check.
var _ moya.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser, frameTimeout time.Duration, logger *slog.Logger) *stream {
	return &stream{
		body:         body,
		scanner:      bufio.NewScanner(body),
		ctx:          ctx,
		frameTimeout: frameTimeout,
		logger:       logger,
		state:        moya.StreamStateOpening,
	}
}

// Next reads the next semantic event from the SSE stream.
// Returns io.EOF when the server ends the stream normally.
func (s *stream) Next() (moya.Event, error) {
	switch s.state {
	case moya.StreamStateClosed:
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	case moya.StreamStateFailed:
		return nil, s.err
	}

	for {
		data, err := s.readFrame()
		if err != nil {
			if s.closed.Load() {
				// Close ran on another goroutine and the blocked read
				// observed the closed body. Resolve the abort here so
				// state and err stay owned by this goroutine.
				s.state = moya.StreamStateClosed
				s.err = moya.ErrStreamClosed
				return nil, s.err
			}
			if err == io.EOF {
				// The server closing the body is the normal
				// end-of-stream signal; there is no explicit done frame.
				s.state = moya.StreamStateClosed
				s.closed.Store(true)
				s.body.Close()
				return nil, io.EOF
			}
			s.fail(err)
			return nil, s.err
		}

		var f frame
		if err := json.Unmarshal([]byte(data), &f); err != nil {
			// Delta framing is not guaranteed fully uniform. A payload
			// that fails to parse is dropped, not fatal.
			s.logger.Warn("skipping malformed frame", "payload", data, "err", err)
			continue
		}

		if f.Error != "" {
			s.fail(fmt.Errorf("sse: server error: %s", f.Error))
			return nil, s.err
		}

		s.state = moya.StreamStateStreaming
		if f.Content == "" {
			continue
		}
		s.acc.WriteString(f.Content)
		return moya.EventDelta{Text: f.Content}, nil
	}
}

// State returns the current stream state.
func (s *stream) State() moya.StreamState {
	return s.state
}

// Text returns the content accumulated from deltas so far.
func (s *stream) Text() string {
	return s.acc.String()
}

// Close closes the underlying response body. Idempotent, safe after
// natural completion, and safe to call from another goroutine while
// Next is blocked on a read. A close before a terminal state aborts the
// stream; the abort surfaces from the next Next call as ErrStreamClosed.
func (s *stream) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		return s.body.Close()
	}
	return nil
}

// fail records a terminal error. The body is closed before the error is
// surfaced so a failed stream never leaks its connection.
func (s *stream) fail(err error) {
	s.closed.Store(true)
	s.body.Close()
	s.state = moya.StreamStateFailed
	switch {
	case s.ctx.Err() != nil:
		s.err = fmt.Errorf("sse: %w", s.ctx.Err())
	case s.timedOut.Load():
		s.err = fmt.Errorf("sse: no frame within %s: %w", s.frameTimeout, err)
	default:
		s.err = err
	}
}

// readFrame reads lines until a complete SSE data payload is assembled.
// A watchdog closes the body if no complete frame arrives within the
// frame timeout, which unblocks the scanner with a read error.
func (s *stream) readFrame() (string, error) {
	var dataBuf strings.Builder

	watchdog := time.AfterFunc(s.frameTimeout, func() {
		s.timedOut.Store(true)
		s.body.Close()
	})
	defer watchdog.Stop()

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			// Empty line signals end of event.
			if dataBuf.Len() > 0 {
				return dataBuf.String(), nil
			}
			// Empty event, keep reading.
			continue
		}

		if data, ok := strings.CutPrefix(line, "data:"); ok {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(data, " "))
		}
		// Ignore comments (lines starting with ':') and other fields.
	}

	if err := s.scanner.Err(); err != nil {
		if s.timedOut.Load() {
			return "", err
		}
		return "", fmt.Errorf("sse: %w", err)
	}

	// Scanner exhausted without error = EOF.
	if dataBuf.Len() > 0 {
		return dataBuf.String(), nil
	}
	return "", io.EOF
}
