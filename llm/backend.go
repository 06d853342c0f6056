package llm

import (
	"context"
	"fmt"
	"strings"
)

// BackendKind identifies the completion strategy for a model.
type BackendKind string

const (
	KindLocal      BackendKind = "local"
	KindChat       BackendKind = "chat"
	KindCompletion BackendKind = "completion"
)

// Model name prefixes used to route a model to its backend.
const (
	LocalModelPrefix = "llama"
	ChatModelPrefix  = "gpt-"
)

// KindForModel returns the backend kind a model name routes to.
func KindForModel(model string) BackendKind {
	switch {
	case strings.HasPrefix(model, LocalModelPrefix):
		return KindLocal
	case strings.HasPrefix(model, ChatModelPrefix):
		return KindChat
	default:
		return KindCompletion
	}
}

// Params are the per-call generation settings.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Backend produces a completion for a single prompt.
type Backend interface {
	Kind() BackendKind
	Complete(ctx context.Context, prompt string, p Params) (string, error)
}

// BackendConfig carries everything needed to build any backend kind.
type BackendConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	LocalBinary string
}

// NewBackend builds the backend selected by the configured model name.
func NewBackend(cfg BackendConfig) (Backend, error) {
	if cfg.Model == "" {
		return nil, &ConfigurationError{BaseError: BaseError{Message: "model is required"}}
	}
	switch KindForModel(cfg.Model) {
	case KindLocal:
		return NewLocalProcessBackend(cfg.LocalBinary), nil
	case KindChat:
		b, err := NewChatBackend(cfg)
		if err != nil {
			return nil, fmt.Errorf("chat backend: %w", err)
		}
		return b, nil
	default:
		b, err := NewCompletionBackend(cfg)
		if err != nil {
			return nil, fmt.Errorf("completion backend: %w", err)
		}
		return b, nil
	}
}
