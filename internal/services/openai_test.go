package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAIServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGeneratorReturnsCompletion(t *testing.T) {
	var seen map[string]any
	srv := newOpenAIServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "gpt-3.5-turbo",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "  You are not alone.  "}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`, &seen)

	gen, err := NewOpenAIGenerator(OpenAIConfig{
		APIKey: "sk-test", Model: "gpt-3.5-turbo", BaseURL: srv.URL, MaxTokens: 300, Temperature: 0.7,
	})
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), SystemPrompt, "I feel lonely")
	require.NoError(t, err)
	assert.Equal(t, "You are not alone.", text)

	assert.Equal(t, "gpt-3.5-turbo", seen["model"])
	messages, ok := seen["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestOpenAIGeneratorWrapsHTTPFailure(t *testing.T) {
	srv := newOpenAIServer(t, http.StatusUnauthorized,
		`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`, nil)

	gen, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "bad", Model: "gpt-3.5-turbo", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), SystemPrompt, "hello")
	var perr *ProviderError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, "openai", perr.Provider)
}

func TestOpenAIGeneratorEmptyChoices(t *testing.T) {
	srv := newOpenAIServer(t, http.StatusOK, `{"id": "x", "object": "chat.completion", "choices": []}`, nil)

	gen, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-test", Model: "gpt-3.5-turbo", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), SystemPrompt, "hello")
	require.Error(t, err)
	var perr *ProviderError
	assert.True(t, errors.As(err, &perr))
}
