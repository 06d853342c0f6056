package memory

import (
	"fmt"

	"go.uber.org/zap"
)

// Backend names accepted by New.
const (
	BackendQdrant  = "qdrant"
	BackendChromem = "chromem"
)

// Config selects and configures a Store backend.
type Config struct {
	Backend string
	// Table names the index (collection) for either backend.
	Table   string
	Qdrant  QdrantConfig
	Chromem ChromemConfig
}

// New builds the configured Store.
func New(cfg Config, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendQdrant:
		qc := cfg.Qdrant
		if qc.Collection == "" {
			qc.Collection = cfg.Table
		}
		return NewQdrantStore(qc, logger)
	case BackendChromem, "":
		cc := cfg.Chromem
		if cc.Collection == "" {
			cc.Collection = cfg.Table
		}
		return NewChromemStore(cc, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
