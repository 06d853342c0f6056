package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// QdrantConfig holds connection settings for a Qdrant server.
type QdrantConfig struct {
	Host           string
	Port           int
	APIKey         string
	UseTLS         bool
	Collection     string
	MaxMessageSize int
}

// ApplyDefaults fills in unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 50 * 1024 * 1024
	}
}

// Validate checks the configuration.
func (c QdrantConfig) Validate() error {
	if c.Host == "" {
		return errors.New("qdrant host is required")
	}
	if c.Collection == "" {
		return errors.New("qdrant collection is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid qdrant port %d", c.Port)
	}
	return nil
}

// pointsClient is the subset of *qdrant.Client used by QdrantStore.
type pointsClient interface {
	GetCollectionInfo(ctx context.Context, collectionName string) (*qdrant.CollectionInfo, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

// QdrantStore is a Store backed by a Qdrant collection. Namespaces are a
// payload field used as a keyword filter.
type QdrantStore struct {
	client     pointsClient
	collection string
	logger     *zap.Logger
}

// NewQdrantStore connects to Qdrant over gRPC.
func NewQdrantStore(cfg QdrantConfig, logger *zap.Logger) (*QdrantStore, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.UseTLS {
		logger.Warn("qdrant gRPC using plaintext (TLS disabled)", zap.String("host", cfg.Host))
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(cfg.MaxMessageSize),
				grpc.MaxCallSendMsgSize(cfg.MaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}
	return newQdrantStore(client, cfg.Collection, logger), nil
}

func newQdrantStore(client pointsClient, collection string, logger *zap.Logger) *QdrantStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QdrantStore{client: client, collection: collection, logger: logger}
}

// EnsureIndex creates the collection if it does not exist.
func (s *QdrantStore) EnsureIndex(ctx context.Context) error {
	_, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); !ok || st.Code() != grpccodes.NotFound {
		return fmt.Errorf("checking collection %s: %w", s.collection, err)
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", s.collection, err)
	}
	s.logger.Info("created qdrant collection",
		zap.String("collection", s.collection),
		zap.Int("dimension", Dimension),
	)
	return nil
}

// Upsert writes rec into namespace.
func (s *QdrantStore) Upsert(ctx context.Context, namespace string, rec Record) error {
	if err := checkDimension(rec.Vector); err != nil {
		return fmt.Errorf("upserting %s: %w", rec.ID, err)
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(pointID(namespace, rec.ID)),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: toPayload(namespace, rec),
		}},
	})
	if err != nil {
		return fmt.Errorf("upserting %s: %w", rec.ID, err)
	}
	s.logger.Debug("upserted record",
		zap.String("collection", s.collection),
		zap.String("id", rec.ID),
	)
	return nil
}

// Query returns the topK closest records in namespace.
func (s *QdrantStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return []Match{}, nil
	}
	if err := checkDimension(vector); err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.collection, err)
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         namespaceFilter(namespace),
	})
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.collection, err)
	}

	matches := make([]Match, 0, len(points))
	for _, p := range points {
		matches = append(matches, fromScoredPoint(p))
	}
	return matches, nil
}

// Close releases the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// pointID derives a stable UUID for a record so that equal record ids in
// different namespaces never collide.
func pointID(namespace, id string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(namespace+"\x00"+id)).String()
}

func toPayload(namespace string, rec Record) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value, len(rec.Metadata)+2)
	for k, v := range rec.Metadata {
		payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
	}
	payload[MetaNamespace] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: namespace}}
	payload[MetaRecordID] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: rec.ID}}
	return payload
}

func namespaceFilter(namespace string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: MetaNamespace,
					Match: &qdrant.Match{
						MatchValue: &qdrant.Match_Keyword{Keyword: namespace},
					},
				},
			},
		}},
	}
}

func fromScoredPoint(p *qdrant.ScoredPoint) Match {
	m := Match{Score: p.Score, Metadata: make(map[string]string, len(p.Payload))}
	for k, v := range p.Payload {
		sv, ok := v.Kind.(*qdrant.Value_StringValue)
		if !ok {
			continue
		}
		switch k {
		case MetaRecordID:
			m.ID = sv.StringValue
		case MetaNamespace:
		default:
			m.Metadata[k] = sv.StringValue
		}
	}
	if m.ID == "" && p.Id != nil {
		m.ID = p.Id.GetUuid()
	}
	return m
}
