package claude_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalyzer/internal/analysis"
	"legalyzer/internal/analysis/claude"
	"legalyzer/internal/config"
	"legalyzer/internal/port"
)

func newTestProvider(serverURL string) *claude.Provider {
	cfg := &config.ProviderConfig{
		Provider:     "claude",
		APIKey:       "test-api-key",
		DefaultModel: "claude-sonnet-4-20250514",
		MaxTokens:    4000,
		TimeoutSecs:  5,
	}
	return claude.NewProviderWithEndpoint(cfg, serverURL)
}

func TestClaudeProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "claude-sonnet-4-20250514", reqBody["model"])
		assert.Equal(t, float64(4000), reqBody["max_tokens"])
		assert.NotNil(t, reqBody["system"])
		assert.Len(t, reqBody["messages"], 1)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    "msg_1",
			"type":  "message",
			"role":  "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": []map[string]interface{}{
				{"type": "text", "text": `{"summary":"ok"}`},
			},
			"stop_reason": "end_turn",
			"usage":       map[string]interface{}{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer server.Close()

	out, err := newTestProvider(server.URL).Complete(context.Background(), port.CompletionInput{
		Prompt:       "analyze this",
		SystemPrompt: "be precise",
	})

	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, out.Text)
	assert.Equal(t, "claude-sonnet-4-20250514", out.ModelUsed)
	assert.Equal(t, "analyze this", out.PromptUsed)
}

func TestClaudeProvider_Complete_RateLimited(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Complete(context.Background(), port.CompletionInput{Prompt: "x"})

	var rlErr *analysis.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "claude", rlErr.Provider)
	assert.Equal(t, 30*time.Second, rlErr.RetryAfter)
	assert.Equal(t, 1, calls)
}

func TestClaudeProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Complete(context.Background(), port.CompletionInput{Prompt: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}
