package storage

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachingStore keeps signed URLs in Redis for half their lifetime so form
// reloads do not re-sign every attachment. A nil Redis client disables caching.
type CachingStore struct {
	BlobStore
	Redis *redis.Client
}

func NewCachingStore(inner BlobStore, rdb *redis.Client) *CachingStore {
	return &CachingStore{BlobStore: inner, Redis: rdb}
}

func signedURLKey(objectPath string) string {
	return "signed_url:" + objectPath
}

func (c *CachingStore) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	if c.Redis == nil {
		return c.BlobStore.SignedURL(ctx, objectPath, ttl)
	}

	if cached, err := c.Redis.Get(ctx, signedURLKey(objectPath)).Result(); err == nil && cached != "" {
		return cached, nil
	}

	u, err := c.BlobStore.SignedURL(ctx, objectPath, ttl)
	if err != nil {
		return "", err
	}
	if err := c.Redis.Set(ctx, signedURLKey(objectPath), u, ttl/2).Err(); err != nil {
		log.Printf("redis: cache signed url %s: %v", objectPath, err)
	}
	return u, nil
}

func (c *CachingStore) Delete(ctx context.Context, objectPath string) error {
	if err := c.BlobStore.Delete(ctx, objectPath); err != nil {
		return err
	}
	if c.Redis != nil {
		_ = c.Redis.Del(ctx, signedURLKey(objectPath)).Err()
	}
	return nil
}
