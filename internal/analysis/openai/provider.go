package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"legalyzer/internal/analysis"
	"legalyzer/internal/config"
	"legalyzer/internal/port"
)

const defaultModel = "openai/gpt-4o-mini"

// Provider implements port.LLMProvider against any OpenAI-compatible chat
// completions API (OpenAI itself, OpenRouter, local gateways).
type Provider struct {
	client      *goopenai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewProvider creates a provider from a provider config.
func NewProvider(cfg *config.ProviderConfig) *Provider {
	return NewProviderWithEndpoint(cfg, cfg.BaseURL)
}

// NewProviderWithEndpoint creates a provider pointing at a custom base URL (for testing).
func NewProviderWithEndpoint(cfg *config.ProviderConfig, baseURL string) *Provider {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4000
	}

	cc := goopenai.DefaultConfig(cfg.APIKey)
	if baseURL != "" {
		cc.BaseURL = baseURL
	}
	cc.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &headerTransport{
			base:    http.DefaultTransport,
			referer: cfg.Referer,
			title:   cfg.Title,
		},
	}

	return &Provider{
		client:      goopenai.NewClientWithConfig(cc),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

// Complete sends one chat completion request.
func (p *Provider) Complete(ctx context.Context, input port.CompletionInput) (*port.CompletionOutput, error) {
	var messages []goopenai.ChatCompletionMessage
	if input.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: input.SystemPrompt,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: input.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		return nil, mapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	model := resp.Model
	if model == "" {
		model = p.model
	}
	return &port.CompletionOutput{
		Text:       resp.Choices[0].Message.Content,
		ModelUsed:  model,
		PromptUsed: input.Prompt,
	}, nil
}

func mapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return analysis.NewRateLimitError("openai", err, 0)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return analysis.NewRateLimitError("openai", err, 0)
	}
	return fmt.Errorf("calling chat completions API: %w", err)
}

// headerTransport adds the attribution headers OpenRouter asks clients to send.
type headerTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referer == "" && t.title == "" {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(req)
}
