package assistant_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"influencer-hub-backend/internal/assistant"
	"influencer-hub-backend/internal/models"
)

func TestClient_Complete(t *testing.T) {
	var got assistant.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		assert.Equal(t, "Influencer Hub", r.Header.Get("X-Title"))
		assert.Equal(t, "https://hub.example.com", r.Header.Get("HTTP-Referer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"Hi there"}}]}`)
	}))
	defer srv.Close()

	client := assistant.NewClient(srv.URL+"/api/v1/", "key-1", "mistralai/mistral-7b-instruct").
		WithAttribution("Influencer Hub", "https://hub.example.com")

	reply, err := client.Complete(context.Background(), "be brief", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", reply)

	assert.Equal(t, "mistralai/mistral-7b-instruct", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be brief", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "hello", got.Messages[1].Content)
}

func TestClient_Complete_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"upstream error status", http.StatusTooManyRequests, `{"error":"rate limited"}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"malformed body", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := assistant.NewClient(srv.URL, "k", "m").Complete(context.Background(), "s", "u")
			assert.ErrorIs(t, err, models.ErrUpstream)
		})
	}
}

func TestClient_Complete_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := assistant.NewClient(url, "k", "m").Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, models.ErrUpstream)
}
