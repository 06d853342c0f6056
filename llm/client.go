package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Completer is the capability the agents depend on.
type Completer interface {
	Complete(ctx context.Context, prompt string, p Params) (string, error)
}

// Client fronts a single Backend with the configured model and retry policy.
type Client struct {
	backend Backend
	model   string
	policy  RetryPolicy
	logger  *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetryPolicy replaces the default rate-limit policy.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// WithLogger sets the logger used to report retries.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client for model on top of backend.
func NewClient(backend Backend, model string, opts ...ClientOption) *Client {
	c := &Client{
		backend: backend,
		model:   model,
		policy:  DefaultRetryPolicy(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Kind returns the kind of the underlying backend.
func (c *Client) Kind() BackendKind { return c.backend.Kind() }

// Complete sends prompt to the backend, retrying rate limits per the policy.
func (c *Client) Complete(ctx context.Context, prompt string, p Params) (string, error) {
	if p.Model == "" {
		p.Model = c.model
	}

	policy := c.policy
	onRetry := policy.OnRetry
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		c.logger.Warn("The OpenAI API rate limit has been exceeded. Waiting and trying again.",
			zap.String("model", p.Model),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if onRetry != nil {
			onRetry(err, attempt, delay)
		}
	}

	return Retry(ctx, policy, func(ctx context.Context) (string, error) {
		return c.backend.Complete(ctx, prompt, p)
	})
}
