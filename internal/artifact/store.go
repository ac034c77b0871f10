// Package artifact keeps the most recently produced spreadsheet so it can be
// downloaded after the upload that created it.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spherical/table-extractor/internal/config"
)

// ErrNotFound indicates no spreadsheet has been published yet.
var ErrNotFound = errors.New("artifact not found")

// Artifact is a published spreadsheet.
type Artifact struct {
	Data    []byte
	ModTime time.Time
}

// Store holds a single "latest" artifact. Put replaces it atomically, so Get
// never observes a partial write.
type Store interface {
	Put(ctx context.Context, data []byte) error
	Get(ctx context.Context) (*Artifact, error)
	Close() error
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.ArtifactConfig) (Store, error) {
	switch cfg.Driver {
	case config.ArtifactDriverLocal, "":
		return NewLocalStore(cfg.Local.Path)
	case config.ArtifactDriverRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case config.ArtifactDriverGCS:
		return NewGCSStore(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown artifact driver %q", cfg.Driver)
	}
}
