// Package memory stores executed task results as vectors and retrieves the
// closest prior results for a query.
//
// Every record and query is scoped to a namespace (the run's objective), so
// runs under different objectives never see each other's results. Two
// backends implement Store: Qdrant over gRPC and an embedded chromem-go
// database.
package memory

import (
	"context"
	"errors"
)

// Dimension is the length of every embedding vector.
const Dimension = 1536

// Metadata keys written with every record.
const (
	MetaTask      = "task"
	MetaResult    = "result"
	MetaNamespace = "namespace"
	MetaRecordID  = "record_id"
)

var (
	// ErrNoEmbedding is returned when the embedding service reported an
	// error. Callers decide whether to skip the work that needed the vector.
	ErrNoEmbedding = errors.New("no embedding")

	// ErrEmbeddingFailed is returned when the embedding service produced
	// no usable vector without reporting why.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrDimensionMismatch indicates a vector of the wrong length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrUnknownBackend indicates an unsupported store backend name.
	ErrUnknownBackend = errors.New("unknown memory backend")
)

// Record is one stored task result.
type Record struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// Match is a query hit with its similarity score.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]string
}

// Store is a namespaced similarity index.
type Store interface {
	// EnsureIndex creates the index with Dimension and cosine similarity if
	// it does not exist.
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, namespace string, rec Record) error
	// Query returns at most topK matches from namespace, highest score first.
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error)
	Close() error
}

func checkDimension(v []float32) error {
	if len(v) != Dimension {
		return ErrDimensionMismatch
	}
	return nil
}

func copyMetadata(in map[string]string, extra int) map[string]string {
	out := make(map[string]string, len(in)+extra)
	for k, v := range in {
		out[k] = v
	}
	return out
}
