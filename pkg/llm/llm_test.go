package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailylesson/lessonmail/pkg/config"
)

func TestNew(t *testing.T) {
	c, err := New(config.LLMConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = New(config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, c)

	c, err = New(config.LLMConfig{Provider: "anthropic", Model: "claude"})
	require.NoError(t, err)
	assert.IsType(t, &Anthropic{}, c)

	_, err = New(config.LLMConfig{Provider: "other"})
	require.Error(t, err)
}

func TestOpenAI_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system text", req.Messages[0].Content)
		assert.Equal(t, "user text", req.Messages[1].Content)
		require.NotNil(t, req.ResponseFormat)

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: `{"title":"ok"}`}}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewOpenAI(config.LLMConfig{Endpoint: server.URL + "/v1", APIKey: "test-key", Model: "gpt-4o-mini",
		Temperature: 0.7, MaxTokens: 100, UseJSONMode: true})
	out, err := c.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"ok"}`, out)
}

func TestOpenAI_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		rateLimited bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests,
			body: `{"error":{"message":"slow down","type":"rate_limit_exceeded"}}`, rateLimited: true},
		{name: "server error", status: http.StatusInternalServerError,
			body: `{"error":{"message":"boom","type":"server_error"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			c := NewOpenAI(config.LLMConfig{Endpoint: server.URL + "/v1", Model: "m"})
			_, err := c.Complete(context.Background(), "s", "p")
			require.Error(t, err)
			assert.Equal(t, tt.rateLimited, isRateLimited(err))
		})
	}
}

func TestOpenAI_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewOpenAI(config.LLMConfig{Endpoint: server.URL + "/v1", Model: "m", Timeout: 50 * time.Millisecond})
	st := time.Now()
	_, err := c.Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.Less(t, time.Since(st), time.Second)
}

func TestAnthropic_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req["model"])
		system, ok := req["system"].([]any)
		require.True(t, ok)
		require.Len(t, system, 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"{\"title\":\"ok\"}"}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":5}}`)
	}))
	defer server.Close()

	c := NewAnthropic(config.LLMConfig{Endpoint: server.URL, APIKey: "test-key", Model: "claude-test", MaxTokens: 100})
	out, err := c.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"ok"}`, out)
}

func TestAnthropic_RateLimited(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	}))
	defer server.Close()

	c := NewAnthropic(config.LLMConfig{Endpoint: server.URL, APIKey: "k", Model: "claude-test", MaxTokens: 100})
	_, err := c.Complete(context.Background(), "", "p")
	require.Error(t, err)
	assert.True(t, isRateLimited(err))
	assert.Equal(t, 1, calls, "sdk retries must be disabled")
}

func isRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
