// Package session owns the transcript and connection state for one
// conversation thread and drives the turn lifecycle: user submission,
// stream draining, status resolution, and connection-error recovery.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/montycloud/moya"
)

// Controller manages one conversation thread. It exclusively owns its
// Transcript and Connection state, and at most one live Stream at any
// time. Send blocks for the duration of a turn and is typically run in
// its own goroutine; all other methods are safe to call concurrently
// with an in-flight Send.
type Controller struct {
	threadID string
	streamer moya.Streamer
	catalog  moya.CatalogSource
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time

	mu         sync.Mutex
	transcript *moya.Transcript
	conn       moya.Connection
	processing bool
	active     moya.Stream
}

// Option configures a [Controller].
type Option func(*Controller)

// WithCatalog sets the starter-prompt source.
func WithCatalog(src moya.CatalogSource) Option {
	return func(c *Controller) { c.catalog = src }
}

// WithLogger sets the logger used for degraded-path reporting.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithIDGenerator sets the message ID generator. Useful for
// deterministic tests.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// WithClock sets the timestamp source. Useful for deterministic tests.
func WithClock(fn func() time.Time) Option {
	return func(c *Controller) { c.now = fn }
}

// New creates a Controller for one thread. The controller corresponds
// to that thread for its lifetime.
func New(threadID string, streamer moya.Streamer, opts ...Option) *Controller {
	c := &Controller{
		threadID:   threadID,
		streamer:   streamer,
		logger:     slog.New(slog.DiscardHandler),
		newID:      uuid.NewString,
		now:        time.Now,
		transcript: moya.NewTranscript(),
		conn:       moya.Connected(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SendOption configures a single Send invocation.
type SendOption func(*sendConfig)

type sendConfig struct {
	onEvent func(moya.Event)
}

// WithEventHandler sets a callback that receives each streaming event
// during the turn, after it has been applied to the transcript. If not
// set, events are silently absorbed into the transcript.
func WithEventHandler(h func(moya.Event)) SendOption {
	return func(c *sendConfig) { c.onEvent = h }
}

// Send runs one turn: it appends the user message, opens a stream,
// appends the assistant placeholder, and applies deltas in arrival
// order until the stream ends. It blocks until the turn resolves.
//
// Whitespace-only text and calls while a turn is already in flight are
// no-ops; at most one outstanding turn per session. The in-flight
// stream is closed on every exit path.
func (c *Controller) Send(ctx context.Context, text string, opts ...SendOption) error {
	var cfg sendConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	if c.processing {
		c.mu.Unlock()
		return nil
	}
	c.processing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.processing = false
		c.active = nil
		c.mu.Unlock()
	}()

	userID := c.newID()
	if err := c.append(moya.Message{
		ID:        userID,
		Role:      moya.RoleUser,
		Content:   text,
		Timestamp: c.now(),
		Status:    moya.StatusSending,
	}); err != nil {
		return err
	}

	stream, err := c.streamer.Open(ctx, moya.Request{ThreadID: c.threadID, Text: text})
	if err != nil {
		// The submission never reached the backend. The message stays
		// visible in the transcript with an error status.
		if uerr := c.update(userID, moya.MessageUpdate{}.WithStatus(moya.StatusError)); uerr != nil {
			return uerr
		}
		if !errors.Is(err, context.Canceled) {
			c.setConn(moya.ConnError, connDetail(err))
		}
		return err
	}
	defer stream.Close()

	c.mu.Lock()
	c.active = stream
	c.mu.Unlock()

	// Transport acceptance is decoupled from the response: the user
	// message is sent as soon as the connection is established.
	if err := c.update(userID, moya.MessageUpdate{}.WithStatus(moya.StatusSent)); err != nil {
		return err
	}

	placeholderID := c.newID()
	if err := c.append(moya.Message{
		ID:        placeholderID,
		Role:      moya.RoleAssistant,
		Timestamp: c.now(),
		Status:    moya.StatusStreaming,
	}); err != nil {
		return err
	}

	return c.drain(stream, placeholderID, &cfg)
}

// drain applies stream events to the placeholder until a terminal
// state, then resolves the placeholder's status.
func (c *Controller) drain(stream moya.Stream, placeholderID string, cfg *sendConfig) error {
	received := false
	for {
		evt, err := stream.Next()
		if err == io.EOF {
			return c.update(placeholderID, moya.MessageUpdate{}.WithStatus(moya.StatusSent))
		}
		if err != nil {
			// Partial content is preserved, never discarded: a
			// placeholder that received any delta resolves to sent.
			status := moya.StatusError
			if received {
				status = moya.StatusSent
			}
			if uerr := c.update(placeholderID, moya.MessageUpdate{}.WithStatus(status)); uerr != nil {
				return uerr
			}
			// A turn the caller canceled is not a connection failure;
			// don't put the session into the error state over it.
			if !errors.Is(err, context.Canceled) {
				c.setConn(moya.ConnError, connDetail(err))
			}
			return err
		}

		delta, ok := evt.(moya.EventDelta)
		if !ok {
			continue
		}
		received = true
		if uerr := c.update(placeholderID, moya.MessageUpdate{}.WithContent(stream.Text())); uerr != nil {
			return uerr
		}
		if cfg.onEvent != nil {
			cfg.onEvent(delta)
		}
	}
}

// Retry transitions the connection through loading back to connected.
// It never resends a message, it only re-enables sending.
func (c *Controller) Retry() {
	c.setConn(moya.ConnLoading, "")
	c.setConn(moya.ConnConnected, "")
}

// Reset closes any in-flight stream, clears the transcript, and
// returns the session to its initial state.
func (c *Controller) Reset() {
	c.mu.Lock()
	active := c.active
	c.active = nil
	c.processing = false
	c.transcript.Clear()
	c.conn = moya.Connected()
	c.mu.Unlock()

	if active != nil {
		active.Close()
	}
}

// StarterPrompts fetches the starter-prompt catalog. An empty or failed
// fetch degrades to an empty catalog rather than an error.
func (c *Controller) StarterPrompts(ctx context.Context) []moya.PromptCategory {
	if c.catalog == nil {
		return nil
	}
	categories, err := c.catalog.StarterPrompts(ctx)
	if err != nil {
		c.logger.Warn("starter prompt fetch failed", "err", err)
		return nil
	}
	return categories
}

// Messages returns a snapshot of the transcript in display order.
func (c *Controller) Messages() []moya.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Snapshot()
}

// Connection returns the current connection state.
func (c *Controller) Connection() moya.Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Processing reports whether a turn is in flight.
func (c *Controller) Processing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processing
}

// ThreadID returns the conversation thread this controller serves.
func (c *Controller) ThreadID() string {
	return c.threadID
}

func (c *Controller) append(msg moya.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Append(msg)
}

func (c *Controller) update(id string, upd moya.MessageUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Update(id, upd)
}

func (c *Controller) setConn(status moya.ConnStatus, detail string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = moya.Connection{Status: status, Detail: detail}
}

// connDetail turns a stream failure into the user-facing connection
// message.
func connDetail(err error) string {
	return fmt.Sprintf("connection to the assistant failed: %v", err)
}
