package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process BlobStore for local runs (STORAGE_DRIVER=memory)
// and tests. FailOn lets tests inject errors per operation and path.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	FailOn func(op, objectPath string) error
}

var _ BlobStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: map[string][]byte{},
		types:   map[string]string{},
	}
}

func (m *MemoryStore) fail(op, objectPath string) error {
	if m.FailOn == nil {
		return nil
	}
	return m.FailOn(op, objectPath)
}

func (m *MemoryStore) Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) (int64, error) {
	if err := m.fail("upload", objectPath); err != nil {
		return 0, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectPath] = data
	m.types[objectPath] = contentType
	return int64(len(data)), nil
}

func (m *MemoryStore) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	if err := m.fail("open", objectPath); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[objectPath]
	if !ok {
		return nil, ErrObjectNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Copy(ctx context.Context, srcPath, dstPath string) error {
	if err := m.fail("copy", srcPath); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[srcPath]
	if !ok {
		return ErrObjectNotExist
	}
	m.objects[dstPath] = append([]byte(nil), data...)
	m.types[dstPath] = m.types[srcPath]
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, objectPath string) error {
	if err := m.fail("delete", objectPath); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objectPath)
	delete(m.types, objectPath)
	return nil
}

func (m *MemoryStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	prefix = strings.TrimSuffix(prefix, "/") + "/"
	if err := m.fail("delete_prefix", prefix); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for p := range m.objects {
		if strings.HasPrefix(p, prefix) {
			delete(m.objects, p)
			delete(m.types, p)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	if err := m.fail("sign", objectPath); err != nil {
		return "", err
	}
	return fmt.Sprintf("memory://%s?expires=%d", objectPath, time.Now().Add(ttl).Unix()), nil
}

func (m *MemoryStore) Has(objectPath string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[objectPath]
	return ok
}

func (m *MemoryStore) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for p := range m.objects {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
