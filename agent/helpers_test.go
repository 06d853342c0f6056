package agent

import (
	"context"
	"strings"
	"sync"

	"github.com/martinemde/taskagent/llm"
	"github.com/martinemde/taskagent/memory"
)

type recordedEvent struct {
	Kind EventKind
	Text string
}

// recorder is an OutputFunc sink that keeps every event in order.
type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Output(text string, kind EventKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Kind: kind, Text: text})
}

func (r *recorder) OfKind(kind EventKind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev.Text)
		}
	}
	return out
}

func (r *recorder) Kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

type call struct {
	Prompt string
	Params llm.Params
}

// scriptedLLM answers each prompt by role. Each role's replies are consumed
// in order; the last one repeats.
type scriptedLLM struct {
	mu             sync.Mutex
	execute        []reply
	create         []reply
	prioritize     []reply
	prioritizeFunc func(prompt string) string
	calls          []call
}

type reply struct {
	text string
	err  error
}

func ok(text string) reply { return reply{text: text} }
func fail(err error) reply { return reply{err: err} }

func (s *scriptedLLM) Complete(ctx context.Context, prompt string, p llm.Params) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{Prompt: prompt, Params: p})
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var queue *[]reply
	switch {
	case strings.Contains(prompt, "task prioritization AI"):
		if s.prioritizeFunc != nil {
			return s.prioritizeFunc(prompt), nil
		}
		queue = &s.prioritize
	case strings.Contains(prompt, "task creation AI"):
		queue = &s.create
	default:
		queue = &s.execute
	}
	if len(*queue) == 0 {
		return "", nil
	}
	r := (*queue)[0]
	if len(*queue) > 1 {
		*queue = (*queue)[1:]
	}
	return r.text, r.err
}

func (s *scriptedLLM) callsFor(marker string) []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []call
	for _, c := range s.calls {
		if strings.Contains(c.Prompt, marker) {
			out = append(out, c)
		}
	}
	return out
}

// constEmbedder returns the same unit vector for every payload.
type constEmbedder struct {
	mu       sync.Mutex
	err      error
	payloads []any
}

func (e *constEmbedder) Embed(ctx context.Context, payload any) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.payloads = append(e.payloads, payload)
	if e.err != nil {
		return nil, e.err
	}
	v := make([]float32, memory.Dimension)
	v[0] = 1
	return v, nil
}

// fakeStore is an in-memory Store with scripted query results.
type fakeStore struct {
	mu        sync.Mutex
	ensured   int
	ensureErr error
	upserts   []upsert
	upsertErr error
	matches   []memory.Match
	queryErr  error
	queries   []query
}

type upsert struct {
	Namespace string
	Record    memory.Record
}

type query struct {
	Namespace string
	TopK      int
}

func (f *fakeStore) EnsureIndex(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured++
	return f.ensureErr
}

func (f *fakeStore) Upsert(ctx context.Context, namespace string, rec memory.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, upsert{Namespace: namespace, Record: rec})
	return nil
}

func (f *fakeStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]memory.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query{Namespace: namespace, TopK: topK})
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	out := make([]memory.Match, len(f.matches))
	copy(out, f.matches)
	return out, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) Upserts() []upsert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upsert(nil), f.upserts...)
}
