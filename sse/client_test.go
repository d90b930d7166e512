package sse_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/montycloud/moya"
	"github.com/montycloud/moya/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_OpenSendsSubmission(t *testing.T) {
	t.Parallel()

	var got struct {
		Message  string `json:"message"`
		ThreadID string `json:"thread_id"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := sse.New(srv.URL)
	stream, err := client.Open(context.Background(), moya.Request{ThreadID: "thread-9", Text: "Hello"})
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, "Hello", got.Message)
	assert.Equal(t, "thread-9", got.ThreadID)
	assert.Equal(t, moya.StreamStateOpening, stream.State())
}

func TestClient_OpenRejectsInvalidRequest(t *testing.T) {
	t.Parallel()
	client := sse.New("http://127.0.0.1:0")
	_, err := client.Open(context.Background(), moya.Request{ThreadID: "t1", Text: "  "})
	require.ErrorIs(t, err, moya.ErrValidation)
}

func TestClient_OpenNonOKStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client := sse.New(srv.URL)
	_, err := client.Open(context.Background(), moya.Request{ThreadID: "t1", Text: "Hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "backend down")
}

func TestClient_OpenConnectionRefused(t *testing.T) {
	t.Parallel()
	// Reserve a port, then close the listener so the dial fails.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := sse.New(url)
	_, err := client.Open(context.Background(), moya.Request{ThreadID: "t1", Text: "Hi"})
	require.Error(t, err)
}
