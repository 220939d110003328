package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalyzer/internal/analysis"
	"legalyzer/internal/analysis/openai"
	"legalyzer/internal/config"
	"legalyzer/internal/port"
)

func testConfig() *config.ProviderConfig {
	return &config.ProviderConfig{
		Provider:     "openai",
		APIKey:       "test-api-key",
		DefaultModel: "openai/gpt-4o-mini",
		MaxTokens:    4000,
		Temperature:  0.1,
		TimeoutSecs:  5,
		Referer:      "https://legalyzer.local",
		Title:        "Legal Document Analyzer",
	}
}

func TestProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "https://legalyzer.local", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Legal Document Analyzer", r.Header.Get("X-Title"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "openai/gpt-4o-mini", reqBody["model"])
		assert.Equal(t, float64(4000), reqBody["max_tokens"])
		messages := reqBody["messages"].([]interface{})
		assert.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
		assert.Equal(t, "user", messages[1].(map[string]interface{})["role"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "openai/gpt-4o-mini",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"message":       map[string]interface{}{"role": "assistant", "content": `{"summary":"ok"}`},
					"finish_reason": "stop",
				},
			},
		})
	}))
	defer server.Close()

	p := openai.NewProviderWithEndpoint(testConfig(), server.URL)
	out, err := p.Complete(context.Background(), port.CompletionInput{Prompt: "analyze this", SystemPrompt: "be precise"})

	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, out.Text)
	assert.Equal(t, "openai/gpt-4o-mini", out.ModelUsed)
	assert.Equal(t, "analyze this", out.PromptUsed)
}

func TestProvider_Complete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	p := openai.NewProviderWithEndpoint(testConfig(), server.URL)
	_, err := p.Complete(context.Background(), port.CompletionInput{Prompt: "x"})

	var rlErr *analysis.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "openai", rlErr.Provider)
}

func TestProvider_Complete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"internal","type":"server_error"}}`))
	}))
	defer server.Close()

	p := openai.NewProviderWithEndpoint(testConfig(), server.URL)
	_, err := p.Complete(context.Background(), port.CompletionInput{Prompt: "x"})

	require.Error(t, err)
	var rlErr *analysis.RateLimitError
	assert.False(t, errors.As(err, &rlErr))
}
