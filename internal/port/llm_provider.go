package port

import "context"

// CompletionInput carries the prompt sent to a language model.
type CompletionInput struct {
	Prompt       string
	SystemPrompt string
}

// CompletionOutput contains the raw model reply.
type CompletionOutput struct {
	Text       string
	ModelUsed  string
	PromptUsed string
}

// LLMProvider abstracts a single language model backend.
type LLMProvider interface {
	Complete(ctx context.Context, input CompletionInput) (*CompletionOutput, error)
}
