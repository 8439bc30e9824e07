package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"manus/internal/llm"
)

type chatRequest struct {
	Model    string `json:"model"`
	Stream   bool   `json:"stream"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func sseServer(t *testing.T, deltas []string, got *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for i, d := range deltas {
			chunk := map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion.chunk",
				"created": 1,
				"model":   got.Model,
				"choices": []map[string]any{{"index": 0, "delta": map[string]any{"content": d}}},
			}
			data, _ := json.Marshal(chunk)
			fmt.Fprintf(w, "data: %s\n\n", data)
			if flusher != nil && i%2 == 0 {
				flusher.Flush()
			}
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestStream(t *testing.T) {
	var got chatRequest
	srv := sseServer(t, []string{"Hel", "", "lo", "!"}, &got)
	defer srv.Close()

	client := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Logger: zaptest.NewLogger(t)})
	text, err := llm.Collect(context.Background(), Provider, client.Stream(context.Background(), llm.Request{
		Model:         "gpt-test",
		SystemMessage: "sys",
		UserMessage:   "user",
	}))

	require.NoError(t, err)
	assert.Equal(t, "Hello!", text)
	assert.Equal(t, "gpt-test", got.Model)
	assert.True(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "sys", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "user", got.Messages[1].Content)
}

func TestStreamOmitsEmptySystemMessage(t *testing.T) {
	var got chatRequest
	srv := sseServer(t, []string{"ok"}, &got)
	defer srv.Close()

	client := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	_, err := llm.Collect(context.Background(), Provider, client.Stream(context.Background(), llm.Request{Model: "m", UserMessage: "u"}))

	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestStreamSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	client := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	_, err := llm.Collect(context.Background(), Provider, client.Stream(context.Background(), llm.Request{Model: "m", UserMessage: "u"}))

	var cerr *llm.CompletionError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	assert.Equal(t, Provider, cerr.Provider)
	assert.Contains(t, err.Error(), "bad key")
}
