package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/config"
)

// MinIOStore keeps photos in an S3 compatible bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// NewMinIOStore connects to the endpoint and creates the bucket when it
// does not exist yet.
func NewMinIOStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (*MinIOStore, error) {
	log = log.Named("storage")
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client for %s: %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", cfg.Bucket, err)
		}
		log.Info("bucket created", zap.String("bucket", cfg.Bucket))
	}
	return &MinIOStore{client: client, bucket: cfg.Bucket, log: log}, nil
}

// objectKey is photos/<stem>-<uuid><ext>, so re-uploads never overwrite.
func objectKey(name string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("photos/%s-%s%s", stem, uuid.NewString(), ext)
}

func (s *MinIOStore) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := objectKey(name)
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	s.log.Info("photo uploaded", zap.String("bucket", info.Bucket), zap.String("key", info.Key), zap.Int64("size", info.Size))
	return s.refPrefix() + key, nil
}

func (s *MinIOStore) refPrefix() string {
	return fmt.Sprintf("%s/%s/", s.client.EndpointURL().String(), s.bucket)
}

// Delete removes the object behind a reference returned by Save.
func (s *MinIOStore) Delete(ctx context.Context, ref string) error {
	key, ok := strings.CutPrefix(ref, s.refPrefix())
	if !ok || !strings.HasPrefix(key, "photos/") {
		return fmt.Errorf("photo %q is not in bucket %s", ref, s.bucket)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	s.log.Info("photo removed", zap.String("bucket", s.bucket), zap.String("key", key))
	return nil
}
