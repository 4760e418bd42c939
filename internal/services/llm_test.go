package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenRouterReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "hello bot", req.Messages[1].Content)

		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{
				{Message: chatMessage{Role: "assistant", Content: "hello human"}},
			},
		})
	}))
	defer server.Close()

	client := NewOpenRouterClient(server.URL, "test-key", "test-model")
	reply, err := client.Reply(context.Background(), "hello bot")
	assert.NoError(t, err)
	assert.Equal(t, "hello human", reply)
}

func TestOpenRouterReplyUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewOpenRouterClient(server.URL, "test-key", "test-model")
	_, err := client.Reply(context.Background(), "hello")
	assert.Error(t, err)
}

func TestOpenRouterReplyRequiresCredentials(t *testing.T) {
	client := NewOpenRouterClient("", "", "test-model")
	_, err := client.Reply(context.Background(), "hello")
	assert.Error(t, err)

	client = NewOpenRouterClient("", "key", "")
	_, err = client.Reply(context.Background(), "hello")
	assert.Error(t, err)
}
