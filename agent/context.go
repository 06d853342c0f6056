package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/martinemde/taskagent/memory"
)

// Embedder converts a payload into a vector.
type Embedder interface {
	Embed(ctx context.Context, payload any) ([]float32, error)
}

// Retriever returns prior task names relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, n int) ([]string, error)
}

// ContextRetriever looks up the most similar stored results within one
// namespace. It never writes.
type ContextRetriever struct {
	embedder  Embedder
	store     memory.Store
	namespace string
	logger    *zap.Logger
}

// NewContextRetriever creates a retriever scoped to namespace. A nil logger
// discards log output.
func NewContextRetriever(embedder Embedder, store memory.Store, namespace string, logger *zap.Logger) *ContextRetriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextRetriever{embedder: embedder, store: store, namespace: namespace, logger: logger}
}

// Retrieve returns at most n task names, most similar first. Matches without
// a task name are skipped. When no embedding is available the result is
// empty rather than an error, and a warning is logged.
func (r *ContextRetriever) Retrieve(ctx context.Context, query string, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, memory.ErrNoEmbedding) {
			r.logger.Warn("context retrieval skipped: no embedding for query",
				zap.String("namespace", r.namespace),
				zap.Error(err))
			return []string{}, nil
		}
		return nil, fmt.Errorf("embedding context query: %w", err)
	}

	matches, err := r.store.Query(ctx, r.namespace, vec, n)
	if err != nil {
		return nil, fmt.Errorf("querying memory: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > n {
		matches = matches[:n]
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name, ok := m.Metadata[memory.MetaTask]
		if !ok {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
