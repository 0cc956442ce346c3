package blobstore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/yaseralshikh/usermgr/config"
)

// Open constructs the Store for the backend named in config.
func Open(ctx context.Context, cfg config.Config) (*Store, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.BlobBackend {
	case "", "file":
		backend, err = NewFileBackend(filepath.Join(cfg.DataDir, "blobs"))
	case "minio":
		backend, err = NewMinioBackend(ctx, cfg.Minio)
	case "gcs":
		backend, err = NewGCSBackend(ctx, cfg.GCS)
	case "redis":
		backend, err = NewRedisBackend(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s blob backend: %w", cfg.BlobBackend, err)
	}
	return NewStore(backend), nil
}
