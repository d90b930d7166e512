package sse_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/montycloud/moya"
	"github.com/montycloud/moya/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseResponse is a helper to build SSE responses for tests.
type sseResponse struct {
	frames []string
}

func (s sseResponse) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, data := range s.frames {
			fmt.Fprintf(w, "data: %s\n\n", data)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func openStream(t *testing.T, handler http.Handler, opts ...sse.Option) moya.Stream {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := sse.New(srv.URL, opts...)
	stream, err := client.Open(context.Background(), moya.Request{ThreadID: "t1", Text: "Hi"})
	require.NoError(t, err)
	t.Cleanup(func() { stream.Close() })
	return stream
}

func collectDeltas(t *testing.T, s moya.Stream) ([]string, error) {
	t.Helper()
	var deltas []string
	for {
		evt, err := s.Next()
		if err == io.EOF {
			return deltas, nil
		}
		if err != nil {
			return deltas, err
		}
		delta, ok := evt.(moya.EventDelta)
		require.True(t, ok)
		deltas = append(deltas, delta.Text)
	}
}

func TestStream_Deltas(t *testing.T) {
	t.Parallel()
	resp := sseResponse{frames: []string{
		`{"content": "Hello"}`,
		`{"content": " there"}`,
		`{"content": "."}`,
	}}
	s := openStream(t, resp.handler())

	deltas, err := collectDeltas(t, s)
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello", " there", "."}, deltas)
	assert.Equal(t, "Hello there.", s.Text())
	assert.Equal(t, moya.StreamStateClosed, s.State())
}

func TestStream_MalformedFrameSkipped(t *testing.T) {
	t.Parallel()
	resp := sseResponse{frames: []string{
		`{"content": "Hello"}`,
		`{not json`,
		`{"content": " world"}`,
	}}
	s := openStream(t, resp.handler())

	deltas, err := collectDeltas(t, s)
	require.NoError(t, err)

	// The malformed frame is dropped; the stream continues.
	assert.Equal(t, []string{"Hello", " world"}, deltas)
	assert.Equal(t, moya.StreamStateClosed, s.State())
}

func TestStream_EmptyContentSkipped(t *testing.T) {
	t.Parallel()
	resp := sseResponse{frames: []string{
		`{"content": ""}`,
		`{"content": "Hi"}`,
	}}
	s := openStream(t, resp.handler())

	deltas, err := collectDeltas(t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi"}, deltas)
}

func TestStream_ServerErrorFrame(t *testing.T) {
	t.Parallel()
	resp := sseResponse{frames: []string{
		`{"content": "partial"}`,
		`{"error": "model unavailable"}`,
	}}
	s := openStream(t, resp.handler())

	deltas, err := collectDeltas(t, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")

	// Partial content is preserved on the failed stream.
	assert.Equal(t, []string{"partial"}, deltas)
	assert.Equal(t, "partial", s.Text())
	assert.Equal(t, moya.StreamStateFailed, s.State())

	// Terminal error is sticky.
	_, err2 := s.Next()
	assert.Equal(t, err, err2)
}

func TestStream_ErrorBeforeFirstDelta(t *testing.T) {
	t.Parallel()
	resp := sseResponse{frames: []string{
		`{"error": "boom"}`,
	}}
	s := openStream(t, resp.handler())

	deltas, err := collectDeltas(t, s)
	require.Error(t, err)
	assert.Empty(t, deltas)
	assert.Empty(t, s.Text())
	assert.Equal(t, moya.StreamStateFailed, s.State())
}

func TestStream_FrameTimeout(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		// Hang without sending any frame.
		<-r.Context().Done()
	})
	s := openStream(t, handler, sse.WithFrameTimeout(50*time.Millisecond))

	_, err := s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no frame within")
	assert.Equal(t, moya.StreamStateFailed, s.State())
}

func TestStream_CloseIsIdempotent(t *testing.T) {
	t.Parallel()
	resp := sseResponse{frames: []string{`{"content": "Hi"}`}}
	s := openStream(t, resp.handler())

	_, err := collectDeltas(t, s)
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	// Close after natural completion does not disturb the final state.
	assert.Equal(t, moya.StreamStateClosed, s.State())
	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
}

func TestStream_CloseBeforeCompletion(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "data: {\"content\": \"Hi\"}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	s := openStream(t, handler)

	evt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, moya.EventDelta{Text: "Hi"}, evt)

	require.NoError(t, s.Close())

	// The abort surfaces from the next read, which also settles the
	// terminal state.
	_, err = s.Next()
	require.ErrorIs(t, err, moya.ErrStreamClosed)
	assert.Equal(t, moya.StreamStateClosed, s.State())

	// Accumulated content survives the close.
	assert.Equal(t, "Hi", s.Text())
}

func TestStream_CloseWhileNextBlocked(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "data: {\"content\": \"Hi\"}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	s := openStream(t, handler)

	evt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, moya.EventDelta{Text: "Hi"}, evt)

	// Close from another goroutine while Next is blocked waiting on the
	// hung server.
	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Close()
	}()

	_, err = s.Next()
	require.ErrorIs(t, err, moya.ErrStreamClosed)
	assert.Equal(t, moya.StreamStateClosed, s.State())
	assert.Equal(t, "Hi", s.Text())
}

func TestStream_ContextCancellation(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	client := sse.New(srv.URL)
	s, err := client.Open(ctx, moya.Request{ThreadID: "t1", Text: "Hi"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = s.Next()
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, moya.StreamStateFailed, s.State())
}

func TestStream_MultilineDataFrame(t *testing.T) {
	t.Parallel()
	// Two data lines in one event join with a newline per the SSE spec.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "data: {\"content\":\ndata: \"Hi\"}\n\n")
	})
	s := openStream(t, handler)

	deltas, err := collectDeltas(t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi"}, deltas)
}
