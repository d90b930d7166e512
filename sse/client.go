// Package sse implements [moya.Streamer] and [moya.CatalogSource]
// against an HTTP backend that streams chat responses over server-sent
// events.
package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/montycloud/moya"
)

const (
	chatPath    = "/chat"
	promptsPath = "/starter-prompts"

	defaultFrameTimeout = 30 * time.Second
)

// Interface compliance checks.
var (
	_ moya.Streamer      = (*Client)(nil)
	_ moya.CatalogSource = (*Client)(nil)
)

// Client opens one SSE connection per user turn. The base URL is passed
// in explicitly so the client is testable against httptest servers.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	frameTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithFrameTimeout bounds the gap between stream frames. If no frame,
// end-of-stream, or error arrives within the bound, the stream fails
// rather than hanging.
func WithFrameTimeout(d time.Duration) Option {
	return func(c *Client) { c.frameTimeout = d }
}

// WithLogger sets the logger used for skipped malformed frames.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new [Client] for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		httpClient:   http.DefaultClient,
		frameTimeout: defaultFrameTimeout,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// chatRequest is the wire format for an outgoing message submission.
type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

// Open submits the request and returns a [moya.Stream] over the SSE
// response. A nil error means the transport accepted the request; the
// stream itself may still fail before the first frame.
func (c *Client) Open(ctx context.Context, req moya.Request) (moya.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("sse: %w", err)
	}

	body, err := json.Marshal(chatRequest{Message: req.Text, ThreadID: req.ThreadID})
	if err != nil {
		return nil, fmt.Errorf("sse: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sse: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sse: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	return newStream(ctx, resp.Body, c.frameTimeout, c.logger), nil
}

// parseHTTPError turns a non-200 response into an error, including the
// response body when it is small enough to be useful.
func parseHTTPError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(data) == 0 {
		return fmt.Errorf("sse: unexpected status %s", resp.Status)
	}
	return fmt.Errorf("sse: unexpected status %s: %s", resp.Status, data)
}
