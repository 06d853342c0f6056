package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

// ChromemConfig configures the embedded store.
type ChromemConfig struct {
	// Path enables persistence; empty keeps everything in memory.
	Path       string
	Compress   bool
	Collection string
}

// ChromemStore is a Store backed by an embedded chromem-go database.
// Vectors are always supplied by the caller, so the collection's own
// embedding function is never used.
type ChromemStore struct {
	db         *chromem.DB
	name       string
	collection *chromem.Collection
	logger     *zap.Logger
	mu         sync.Mutex
}

// NewChromemStore opens (or creates) the embedded database.
func NewChromemStore(cfg ChromemConfig, logger *zap.Logger) (*ChromemStore, error) {
	if cfg.Collection == "" {
		return nil, errors.New("chromem collection is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("opening chromem database at %s: %w", cfg.Path, err)
		}
	}
	logger.Info("opened chromem store",
		zap.String("path", cfg.Path),
		zap.String("collection", cfg.Collection),
	)
	return &ChromemStore{db: db, name: cfg.Collection, logger: logger}, nil
}

func noEmbeddingFunc(context.Context, string) ([]float32, error) {
	return nil, ErrEmbeddingFailed
}

// EnsureIndex creates the collection if it does not exist. chromem uses
// cosine similarity on normalised vectors.
func (s *ChromemStore) EnsureIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection != nil {
		return nil
	}
	c, err := s.db.GetOrCreateCollection(s.name, map[string]string{"dimension": fmt.Sprint(Dimension)}, noEmbeddingFunc)
	if err != nil {
		return fmt.Errorf("getting/creating collection %s: %w", s.name, err)
	}
	s.collection = c
	return nil
}

func (s *ChromemStore) coll(ctx context.Context) (*chromem.Collection, error) {
	if err := s.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	return s.collection, nil
}

// Upsert writes rec into namespace. Adding an existing id replaces it.
func (s *ChromemStore) Upsert(ctx context.Context, namespace string, rec Record) error {
	if err := checkDimension(rec.Vector); err != nil {
		return fmt.Errorf("upserting %s: %w", rec.ID, err)
	}
	c, err := s.coll(ctx)
	if err != nil {
		return err
	}

	meta := copyMetadata(rec.Metadata, 2)
	meta[MetaNamespace] = namespace
	meta[MetaRecordID] = rec.ID

	content := rec.Metadata[MetaResult]
	if content == "" {
		content = rec.ID
	}

	// chromem normalises the stored vector in place.
	vec := make([]float32, len(rec.Vector))
	copy(vec, rec.Vector)

	err = c.AddDocument(ctx, chromem.Document{
		ID:        pointID(namespace, rec.ID),
		Metadata:  meta,
		Embedding: vec,
		Content:   content,
	})
	if err != nil {
		return fmt.Errorf("upserting %s: %w", rec.ID, err)
	}
	s.logger.Debug("upserted record",
		zap.String("collection", s.name),
		zap.String("id", rec.ID),
	)
	return nil
}

// Query returns the topK closest records in namespace.
func (s *ChromemStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return []Match{}, nil
	}
	if err := checkDimension(vector); err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.name, err)
	}
	c, err := s.coll(ctx)
	if err != nil {
		return nil, err
	}

	// chromem requires nResults <= document count.
	count := c.Count()
	if count == 0 {
		return []Match{}, nil
	}
	if topK > count {
		topK = count
	}

	q := make([]float32, len(vector))
	copy(q, vector)

	results, err := c.QueryEmbedding(ctx, q, topK, map[string]string{MetaNamespace: namespace}, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", s.name, err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		m := Match{ID: r.Metadata[MetaRecordID], Score: r.Similarity, Metadata: make(map[string]string, len(r.Metadata))}
		for k, v := range r.Metadata {
			if k == MetaNamespace || k == MetaRecordID {
				continue
			}
			m.Metadata[k] = v
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Close is a no-op; persistent databases write through on every change.
func (s *ChromemStore) Close() error {
	return nil
}
