package llm

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// CompletionBackend sends the prompt as a single plain completion through
// langchaingo.
type CompletionBackend struct {
	model llms.Model
	name  string
}

// NewCompletionBackend creates a completion backend for a non-chat model.
func NewCompletionBackend(cfg BackendConfig) (*CompletionBackend, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, &ConfigurationError{BaseError: BaseError{Message: "creating OpenAI client", Cause: err}}
	}
	return NewCompletionBackendFromModel(m), nil
}

// NewCompletionBackendFromModel wraps any langchaingo model.
func NewCompletionBackendFromModel(m llms.Model) *CompletionBackend {
	return &CompletionBackend{model: m, name: "openai"}
}

func (b *CompletionBackend) Kind() BackendKind { return KindCompletion }

func (b *CompletionBackend) Complete(ctx context.Context, prompt string, p Params) (string, error) {
	opts := []llms.CallOption{
		llms.WithTemperature(p.Temperature),
		llms.WithTopP(1),
	}
	if p.Model != "" {
		opts = append(opts, llms.WithModel(p.Model))
	}
	if p.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(p.MaxTokens))
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, b.model, prompt, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", ClassifyError(b.name, err)
	}
	return strings.TrimSpace(text), nil
}
