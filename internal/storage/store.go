package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrObjectNotExist = errors.New("storage: object does not exist")

// BlobStore holds attachment bytes. Object paths are bucket-relative.
type BlobStore interface {
	Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) (int64, error)
	Open(ctx context.Context, objectPath string) (io.ReadCloser, error)
	Copy(ctx context.Context, srcPath, dstPath string) error
	Delete(ctx context.Context, objectPath string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error)
}
