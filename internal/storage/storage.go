// Package storage saves voter photos to a blob store.
package storage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/config"
)

// PhotoStore saves a photo under name and returns a reference the client
// can later resolve.  Delete takes a reference returned by Save.
type PhotoStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// New returns the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (PhotoStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "minio", "s3":
		return NewMinIOStore(ctx, cfg, log)
	case "", "local":
		return NewLocalStore(cfg.UploadDir), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
