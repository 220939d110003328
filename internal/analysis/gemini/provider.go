package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"legalyzer/internal/analysis"
	"legalyzer/internal/config"
	"legalyzer/internal/port"
)

const defaultModel = "gemini-2.0-flash"

// Provider implements port.LLMProvider using Google's Gemini API.
type Provider struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

// NewProvider creates a Gemini provider.
func NewProvider(cfg *config.ProviderConfig) (*Provider, error) {
	return NewProviderWithEndpoint(cfg, cfg.BaseURL)
}

// NewProviderWithEndpoint creates a provider pointing at a custom base URL (for testing).
func NewProviderWithEndpoint(cfg *config.ProviderConfig, baseURL string) (*Provider, error) {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxTokens := int32(cfg.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4000
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Provider{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (p *Provider) Complete(ctx context.Context, input port.CompletionInput) (*port.CompletionOutput, error) {
	gc := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		MaxOutputTokens:  p.maxTokens,
		Temperature:      genai.Ptr(p.temperature),
	}
	if input.SystemPrompt != "" {
		gc.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(input.SystemPrompt)},
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(input.Prompt), gc)
	if err != nil {
		return nil, mapError(err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from API: no candidates")
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty response from API: no parts")
	}

	model := resp.ModelVersion
	if model == "" {
		model = p.model
	}
	return &port.CompletionOutput{
		Text:       text,
		ModelUsed:  model,
		PromptUsed: input.Prompt,
	}, nil
}

func mapError(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	if code == http.StatusTooManyRequests {
		return analysis.NewRateLimitError("gemini", err, 0)
	}
	if code != 0 {
		return fmt.Errorf("gemini API error (status %d): %w", code, err)
	}
	return fmt.Errorf("calling gemini API: %w", err)
}
