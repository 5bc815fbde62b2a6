package storage

import (
	"context"
	"maps"
	"net/url"
	"slices"
	"sync"
	"time"
)

// Object is a stored blob.
type Object struct {
	ContentType string
	Body        []byte
}

// MemoryStorage keeps objects in process. Download URLs point at baseURL and
// are not signed; it is meant for tests and local development.
type MemoryStorage struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{baseURL: baseURL, objects: map[string]Object{}}
}

func (m *MemoryStorage) PutObject(_ context.Context, objectKey string, contentType string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectKey] = Object{ContentType: contentType, Body: slices.Clone(body)}
	return nil
}

func (m *MemoryStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, expires time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[objectKey]; !ok {
		return "", ErrObjectNotFound
	}
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	u, err := url.JoinPath(m.baseURL, objectKey)
	if err != nil {
		return "", err
	}
	return u + "?expires=" + url.QueryEscape(expires.String()), nil
}

func (m *MemoryStorage) DeleteObject(_ context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objectKey)
	return nil
}

// Get returns the stored object.
func (m *MemoryStorage) Get(objectKey string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[objectKey]
	return o, ok
}

// Keys lists stored object keys in lexical order.
func (m *MemoryStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.objects))
}
