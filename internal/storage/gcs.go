package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

type GCSStore struct {
	Client *storage.Client
	Bucket string
}

var _ BlobStore = (*GCSStore)(nil)

var newGCSClientHook = func(ctx context.Context) (*storage.Client, error) {
	return storage.NewClient(ctx)
}

func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	client, err := newGCSClientHook(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSStore{Client: client, Bucket: bucket}, nil
}

func (s *GCSStore) Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) (int64, error) {
	w := s.Client.Bucket(s.Bucket).Object(objectPath).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}

	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *GCSStore) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	rc, err := s.Client.Bucket(s.Bucket).Object(objectPath).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotExist
	}
	return rc, err
}

func (s *GCSStore) Copy(ctx context.Context, srcPath, dstPath string) error {
	bkt := s.Client.Bucket(s.Bucket)
	_, err := bkt.Object(dstPath).CopierFrom(bkt.Object(srcPath)).Run(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrObjectNotExist
	}
	return err
}

// Delete treats a missing object as already deleted.
func (s *GCSStore) Delete(ctx context.Context, objectPath string) error {
	err := s.Client.Bucket(s.Bucket).Object(objectPath).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

func (s *GCSStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	bkt := s.Client.Bucket(s.Bucket)
	it := bkt.Objects(ctx, &storage.Query{Prefix: strings.TrimSuffix(prefix, "/") + "/"})

	deleted := 0
	for {
		obj, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, err
		}
		if err := bkt.Object(obj.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (s *GCSStore) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	return s.Client.Bucket(s.Bucket).SignedURL(objectPath, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
}

func (s *GCSStore) Close() error {
	return s.Client.Close()
}
