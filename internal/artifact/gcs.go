package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/spherical/table-extractor/internal/config"
	"github.com/spherical/table-extractor/internal/domain"
)

// GCSStore keeps the artifact as a single Cloud Storage object. Object writes
// are atomic: readers see either the previous or the new generation.
type GCSStore struct {
	client *storage.Client
	object *storage.ObjectHandle
}

// NewGCSStore creates a Cloud Storage backed store. When cfg.Endpoint is set
// the client talks to it without authentication and reads through the JSON
// API, which is the one emulators serve.
func NewGCSStore(ctx context.Context, cfg config.GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts,
			option.WithEndpoint(cfg.Endpoint),
			option.WithoutAuthentication(),
			storage.WithJSONReads(),
		)
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	object := cfg.Object
	if object == "" {
		object = "result.xlsx"
	}

	return &GCSStore{
		client: client,
		object: client.Bucket(cfg.Bucket).Object(object),
	}, nil
}

// Put uploads data as the new object generation.
func (s *GCSStore) Put(ctx context.Context, data []byte) error {
	writer := s.object.NewWriter(ctx)
	writer.ContentType = domain.WorkbookContentType

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

// Get downloads the current object.
func (s *GCSStore) Get(ctx context.Context) (*Artifact, error) {
	reader, err := s.object.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open GCS object: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}
	modTime := reader.Attrs.LastModified
	if modTime.IsZero() {
		attrs, err := s.object.Attrs(ctx)
		if err != nil {
			return nil, fmt.Errorf("stat GCS object: %w", err)
		}
		modTime = attrs.Updated
	}
	return &Artifact{Data: data, ModTime: modTime}, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
