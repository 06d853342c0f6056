package llm

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type scriptedBackend struct {
	kind    BackendKind
	replies []error
	calls   []Params
	prompts []string
}

func (b *scriptedBackend) Kind() BackendKind { return b.kind }

func (b *scriptedBackend) Complete(ctx context.Context, prompt string, p Params) (string, error) {
	b.calls = append(b.calls, p)
	b.prompts = append(b.prompts, prompt)
	if len(b.replies) > 0 {
		err := b.replies[0]
		b.replies = b.replies[1:]
		if err != nil {
			return "", err
		}
	}
	return "done", nil
}

func TestKindForModel(t *testing.T) {
	tests := []struct {
		model string
		want  BackendKind
	}{
		{"llama", KindLocal},
		{"llama-7b", KindLocal},
		{"gpt-3.5-turbo", KindChat},
		{"gpt-4", KindChat},
		{"text-davinci-003", KindCompletion},
		{"davinci", KindCompletion},
		{"", KindCompletion},
	}
	for _, tt := range tests {
		if got := KindForModel(tt.model); got != tt.want {
			t.Errorf("KindForModel(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestNewBackendRequiresModel(t *testing.T) {
	_, err := NewBackend(BackendConfig{})
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
}

func TestNewBackendLocal(t *testing.T) {
	b, err := NewBackend(BackendConfig{Model: "llama", LocalBinary: "/opt/llama/main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Kind() != KindLocal {
		t.Errorf("expected local backend, got %q", b.Kind())
	}
	if lb, ok := b.(*LocalProcessBackend); !ok || lb.Binary() != "/opt/llama/main" {
		t.Errorf("unexpected backend %#v", b)
	}
}

func TestNewLocalProcessBackendDefaultBinary(t *testing.T) {
	if got := NewLocalProcessBackend("").Binary(); got != DefaultLocalBinary {
		t.Errorf("expected %q, got %q", DefaultLocalBinary, got)
	}
}

func TestLocalProcessBackendComplete(t *testing.T) {
	echo, err := exec.LookPath("echo")
	if err != nil {
		t.Skip("echo not available")
	}
	b := NewLocalProcessBackend(echo)
	out, err := b.Complete(context.Background(), "hello world", Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "-p hello world" {
		t.Errorf("expected trimmed stdout %q, got %q", "-p hello world", out)
	}
}

func TestLocalProcessBackendNonZeroExit(t *testing.T) {
	falseBin, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false not available")
	}
	_, err = NewLocalProcessBackend(falseBin).Complete(context.Background(), "x", Params{})
	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %T: %v", err, err)
	}
}

func TestLocalProcessBackendFailureIsNotRateLimit(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	runner := filepath.Join(t.TempDir(), "runner")
	script := "#!/bin/sh\necho 'llama_model_load: loaded 1429 tensors; out of memory' >&2\nexit 1\n"
	if err := os.WriteFile(runner, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := NewLocalProcessBackend(runner).Complete(context.Background(), "x", Params{})
	if err == nil {
		t.Fatal("expected error from failing runner")
	}
	if IsRateLimit(err) {
		t.Fatalf("runner failure classified as rate limit: %v", err)
	}
	var be *BackendError
	if !errors.As(err, &be) || be.Retryable {
		t.Errorf("expected non-retryable BackendError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "out of memory") {
		t.Errorf("expected stderr in error, got %q", err.Error())
	}
}

func TestLocalProcessBackendMissingBinary(t *testing.T) {
	_, err := NewLocalProcessBackend("/nonexistent/llama-runner").Complete(context.Background(), "x", Params{})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if IsRateLimit(err) {
		t.Errorf("missing binary should not look like a rate limit: %v", err)
	}
}

func TestClientCompleteFillsModel(t *testing.T) {
	backend := &scriptedBackend{kind: KindChat}
	c := NewClient(backend, "gpt-3.5-turbo")

	out, err := c.Complete(context.Background(), "prompt", Params{Temperature: 0.7, MaxTokens: 2000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "done" {
		t.Errorf("expected %q, got %q", "done", out)
	}
	if len(backend.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(backend.calls))
	}
	got := backend.calls[0]
	if got.Model != "gpt-3.5-turbo" || got.Temperature != 0.7 || got.MaxTokens != 2000 {
		t.Errorf("unexpected params %+v", got)
	}
	if c.Model() != "gpt-3.5-turbo" || c.Kind() != KindChat {
		t.Errorf("unexpected client metadata %q %q", c.Model(), c.Kind())
	}
}

func TestClientRetriesRateLimits(t *testing.T) {
	backend := &scriptedBackend{
		kind:    KindCompletion,
		replies: []error{rateLimited(), rateLimited(), rateLimited()},
	}
	sleeper := &fakeSleeper{}
	retries := 0
	policy := DefaultRetryPolicy()
	policy.Sleep = sleeper.Sleep
	policy.OnRetry = func(error, int, time.Duration) { retries++ }

	c := NewClient(backend, "text-davinci-003", WithRetryPolicy(policy))
	out, err := c.Complete(context.Background(), "same prompt", Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "done" {
		t.Errorf("expected %q, got %q", "done", out)
	}
	if len(backend.prompts) != 4 {
		t.Fatalf("expected 4 attempts, got %d", len(backend.prompts))
	}
	for _, p := range backend.prompts {
		if p != "same prompt" {
			t.Errorf("expected the same request to be retried, got %q", p)
		}
	}
	if retries != 3 {
		t.Errorf("expected OnRetry to be called 3 times, got %d", retries)
	}
}

func TestClientPropagatesBackendErrors(t *testing.T) {
	backendErr := &BackendError{BaseError: BaseError{Message: "bad request"}, StatusCode: 400}
	backend := &scriptedBackend{kind: KindChat, replies: []error{backendErr}}
	c := NewClient(backend, "gpt-4", WithRetryPolicy(RetryPolicy{Sleep: (&fakeSleeper{}).Sleep}))

	_, err := c.Complete(context.Background(), "p", Params{})
	if !errors.Is(err, backendErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if len(backend.calls) != 1 {
		t.Errorf("expected exactly 1 call, got %d", len(backend.calls))
	}
}
