package imagetest

import (
	"context"
	"io"
	"sync"

	"github.com/denismitr/cropper/internal/storage"
	"github.com/pkg/errors"
)

// MemStorage keeps objects in memory, keyed by namespace/key.
type MemStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func NewMemStorage() *MemStorage {
	return &MemStorage{Objects: make(map[string][]byte)}
}

func (m *MemStorage) Put(_ context.Context, namespace, key string, source io.Reader) (*storage.Item, error) {
	b, err := io.ReadAll(source)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[namespace+"/"+key] = b
	return &storage.Item{Path: namespace + "/" + key, URL: storage.Location(namespace, key)}, nil
}

func (m *MemStorage) Download(_ context.Context, dst io.Writer, namespace, key string) error {
	m.mu.Lock()
	b, ok := m.Objects[namespace+"/"+key]
	m.mu.Unlock()

	if !ok {
		return errors.Wrapf(storage.ErrStorageFailed, "no object %s/%s", namespace, key)
	}

	_, err := dst.Write(b)
	return err
}

func (m *MemStorage) Remove(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, namespace+"/"+key)
	return nil
}
