package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"legalyzer/internal/analysis"
	"legalyzer/internal/config"
	"legalyzer/internal/port"
)

const defaultModel = "claude-sonnet-4-20250514"

// Provider implements port.LLMProvider using the Anthropic Messages API.
type Provider struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float32
}

// NewProvider creates a Claude provider from a provider config.
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
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4000
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
		// failover across providers replaces per-provider retries
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Provider{
		client:      anthropic.NewClient(opts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

func (p *Provider) Complete(ctx context.Context, input port.CompletionInput) (*port.CompletionOutput, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(input.Prompt)),
		},
		Temperature: anthropic.Float(float64(p.temperature)),
	}
	if input.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: input.SystemPrompt}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	model := string(msg.Model)
	if model == "" {
		model = p.model
	}
	return &port.CompletionOutput{
		Text:       b.String(),
		ModelUsed:  model,
		PromptUsed: input.Prompt,
	}, nil
}

func mapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		baseErr := fmt.Errorf("anthropic API error (status %d): %w", apiErr.StatusCode, err)
		if apiErr.StatusCode == 429 {
			retryAfter := 0
			if apiErr.Response != nil {
				retryAfter = analysis.ParseRetryAfterHeader(apiErr.Response.Header.Get("Retry-After"))
			}
			return analysis.NewRateLimitError("claude", baseErr, retryAfter)
		}
		return baseErr
	}
	return fmt.Errorf("calling anthropic API: %w", err)
}
