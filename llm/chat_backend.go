package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/teilomillet/gollm"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// chatUserTurn is the user message that follows the system prompt. gollm
// requires a non-empty input; the instructions live in the system message.
const chatUserTurn = "Respond to the instructions above."

// ChatBackend sends the whole prompt as the system message of a chat
// completion. It talks to OpenAI through gollm, or through langchaingo when
// a custom endpoint is configured, since gollm's OpenAI provider has a
// fixed endpoint.
type ChatBackend struct {
	provider string
	llm      gollm.LLM
	endpoint llms.Model
	model    string
	mu       sync.Mutex
}

// NewChatBackend creates a chat backend for an OpenAI model. A BaseURL
// routes requests through langchaingo to that endpoint.
func NewChatBackend(cfg BackendConfig) (*ChatBackend, error) {
	if cfg.BaseURL != "" {
		opts := []openai.Option{
			openai.WithModel(cfg.Model),
			openai.WithBaseURL(cfg.BaseURL),
		}
		if cfg.APIKey != "" {
			opts = append(opts, openai.WithToken(cfg.APIKey))
		}
		m, err := openai.New(opts...)
		if err != nil {
			return nil, &ConfigurationError{BaseError: BaseError{
				Message: fmt.Sprintf("failed to create chat client for %s", cfg.BaseURL),
				Cause:   err,
			}}
		}
		return NewChatBackendFromModel(cfg.Model, m), nil
	}

	opts := []gollm.ConfigOption{
		gollm.SetProvider("openai"),
		gollm.SetModel(cfg.Model),
		gollm.SetMaxTokens(100),
		gollm.SetTemperature(0.5),
		gollm.SetMaxRetries(0), // Rate limits are retried by Client.
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if cfg.APIKey != "" {
		opts = append(opts, gollm.SetAPIKey(cfg.APIKey))
	}

	l, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, &ConfigurationError{BaseError: BaseError{
			Message: fmt.Sprintf("failed to create gollm LLM for model %s", cfg.Model),
			Cause:   err,
		}}
	}
	return NewChatBackendFromLLM(cfg.Model, l), nil
}

// NewChatBackendFromLLM wraps an existing gollm.LLM instance.
func NewChatBackendFromLLM(model string, l gollm.LLM) *ChatBackend {
	return &ChatBackend{provider: "openai", llm: l, model: model}
}

// NewChatBackendFromModel wraps a langchaingo chat model.
func NewChatBackendFromModel(model string, m llms.Model) *ChatBackend {
	return &ChatBackend{provider: "openai", endpoint: m, model: model}
}

func (b *ChatBackend) Kind() BackendKind { return KindChat }

// Complete applies the call parameters and generates a response.
func (b *ChatBackend) Complete(ctx context.Context, prompt string, p Params) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	model := p.Model
	if model == "" {
		model = b.model
	}
	if b.endpoint != nil {
		return b.completeAtEndpoint(ctx, prompt, model, p)
	}

	b.llm.SetOption("model", model)
	b.llm.SetOption("temperature", p.Temperature)
	if p.MaxTokens > 0 {
		b.llm.SetOption("max_tokens", p.MaxTokens)
	}

	gp := gollm.NewPrompt(chatUserTurn,
		gollm.WithSystemPrompt(prompt, gollm.CacheTypeEphemeral),
	)
	text, err := b.llm.Generate(ctx, gp)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", ClassifyError(b.provider, err)
	}
	return strings.TrimSpace(text), nil
}

func (b *ChatBackend) completeAtEndpoint(ctx context.Context, prompt, model string, p Params) (string, error) {
	opts := []llms.CallOption{
		llms.WithModel(model),
		llms.WithTemperature(p.Temperature),
	}
	if p.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(p.MaxTokens))
	}

	resp, err := b.endpoint.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, prompt),
		llms.TextParts(schema.ChatMessageTypeHuman, chatUserTurn),
	}, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", ClassifyError(b.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", &BackendError{BaseError: BaseError{Message: "empty chat response"}, Backend: b.provider}
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
