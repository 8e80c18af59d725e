package storage

import (
	"context"
	"fmt"

	"dance-entry-api/config"

	"github.com/redis/go-redis/v9"
)

func NewFromConfig(ctx context.Context, cfg config.Config, rdb *redis.Client) (BlobStore, error) {
	var inner BlobStore

	switch cfg.StorageDriver {
	case "", "gcs":
		s, err := NewGCSStore(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, err
		}
		inner = s
	case "s3", "r2":
		s, err := NewS3Store(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		inner = s
	case "memory":
		inner = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return NewCachingStore(inner, rdb), nil
}
