package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gapmentor_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStreamServer emits SSE deltas until the client goes away.
func slowStreamServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for i := 0; i < 200; i++ {
			select {
			case <-r.Context().Done():
				return
			default:
			}
			fmt.Fprint(w, `data: {"choices":[{"delta":{"content":"tok "}}]}`+"\n\n")
			flusher.Flush()
			time.Sleep(10 * time.Millisecond)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestChatStream_ShutsDownWhenConsumerLeaves(t *testing.T) {
	srv := slowStreamServer(t)
	defer srv.Close()

	svc := NewAIService(config.AIConfig{
		BaseURL:        srv.URL,
		Model:          "test-model",
		RequestTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, errChan := svc.ChatStream(ctx, "", nil, "hello")

	chunk, ok := <-out
	require.True(t, ok)
	assert.Equal(t, "tok ", chunk)

	// Let the producer read the next delta and block on the unbuffered
	// send, then disconnect without reading further. The goroutine must
	// not stay blocked on that send; it has to notice the cancellation
	// and close the channel without anyone draining it.
	time.Sleep(200 * time.Millisecond)
	cancel()
	time.Sleep(500 * time.Millisecond)

	select {
	case _, ok := <-out:
		assert.False(t, ok, "stream must close after cancellation, not keep delivering")
	case <-time.After(2 * time.Second):
		t.Fatal("stream goroutine still blocked after cancellation")
	}

	for range errChan {
	}
}

func TestChatStream_DeliversUntilDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"content":"Hello"}}]}`+"\n\n")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"content":" world"}}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	svc := NewAIService(config.AIConfig{
		BaseURL:        srv.URL,
		Model:          "test-model",
		RequestTimeout: 5 * time.Second,
	})

	out, errChan := svc.ChatStream(context.Background(), "", nil, "hello")

	var full string
	for chunk := range out {
		full += chunk
	}
	assert.Equal(t, "Hello world", full)

	err, open := <-errChan
	if open {
		require.NoError(t, err)
	}
}
