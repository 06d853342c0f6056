package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// DefaultEmbeddingModel produces Dimension-length vectors.
const DefaultEmbeddingModel = "text-embedding-ada-002"

// EmbedderConfig holds configuration for the OpenAI embedding client.
type EmbedderConfig struct {
	Model   string
	APIKey  string
	BaseURL string
}

// Embedder turns payloads into vectors.
type Embedder struct {
	embedder embeddings.Embedder
	report   func(error)
	logger   *zap.Logger
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*Embedder)

// WithErrorReporter sets the callback that receives known embedding errors
// before ErrNoEmbedding is returned.
func WithErrorReporter(fn func(error)) EmbedderOption {
	return func(e *Embedder) {
		e.report = fn
	}
}

// WithEmbedderLogger sets the logger.
func WithEmbedderLogger(l *zap.Logger) EmbedderOption {
	return func(e *Embedder) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEmbedder creates an Embedder backed by the OpenAI embeddings API.
func NewEmbedder(cfg EmbedderConfig, opts ...EmbedderOption) (*Embedder, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	clientOpts := []openai.Option{
		openai.WithEmbeddingModel(model),
	}
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}
	emb, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return NewEmbedderFrom(emb, opts...), nil
}

// NewEmbedderFrom wraps any langchaingo embedder.
func NewEmbedderFrom(emb embeddings.Embedder, opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		embedder: emb,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Embed returns the vector for payload. Strings are embedded verbatim and
// anything else is JSON encoded first.
//
// A reported service error yields ErrNoEmbedding wrapping the cause. A
// missing or malformed vector yields ErrEmbeddingFailed.
func (e *Embedder) Embed(ctx context.Context, payload any) ([]float32, error) {
	text, err := payloadText(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding payload: %v", ErrEmbeddingFailed, err)
	}

	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		e.logger.Warn("embedding request failed", zap.Error(err))
		if e.report != nil {
			e.report(err)
		}
		return nil, fmt.Errorf("%w: %w", ErrNoEmbedding, err)
	}

	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrEmbeddingFailed)
	}
	if err := checkDimension(vec); err != nil {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", ErrEmbeddingFailed, len(vec), Dimension)
	}
	return vec, nil
}

func payloadText(payload any) (string, error) {
	switch v := payload.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
