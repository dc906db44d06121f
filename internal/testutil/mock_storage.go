// mock_storage.go - Mock storage implementations for testing
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/filevault/filevault/internal/models"
	"github.com/filevault/filevault/internal/storage"
)

// MockStore implements storage.Store in memory without encryption. Setting
// OpenErr makes every Open fail with that error.
type MockStore struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*models.FileRecord
	data    map[string][]byte

	OpenErr error
}

var _ storage.Store = (*MockStore)(nil)

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		records: make(map[string]*models.FileRecord),
		data:    make(map[string][]byte),
	}
}

func (m *MockStore) Save(_ context.Context, name string, r io.Reader) (*models.FileRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[name]; !ok {
		m.order = append(m.order, name)
	}
	now := time.Now()
	rec := &models.FileRecord{
		Name:       name,
		StoredName: fmt.Sprintf("mock_%d_%s", len(m.order), name),
		Size:       int64(len(data)),
		UploadedAt: now,
		ModifiedAt: now,
	}
	m.records[name] = rec
	m.data[name] = data

	out := *rec
	return &out, nil
}

func (m *MockStore) Replace(_ context.Context, name string, r io.Reader) (*models.FileRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	rec.Size = int64(len(data))
	rec.ModifiedAt = time.Now()
	m.data[name] = data

	out := *rec
	return &out, nil
}

func (m *MockStore) Open(_ context.Context, name string) ([]byte, *models.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.OpenErr != nil {
		return nil, nil, m.OpenErr
	}
	rec, ok := m.records[name]
	if !ok {
		return nil, nil, storage.ErrNotFound
	}
	out := *rec
	return bytes.Clone(m.data[name]), &out, nil
}

func (m *MockStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[name]; !ok {
		return storage.ErrNotFound
	}
	delete(m.records, name)
	delete(m.data, name)
	if i := slices.Index(m.order, name); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return nil
}

func (m *MockStore) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.records[name]
	return ok
}

func (m *MockStore) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

func (m *MockStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// Data returns the stored plaintext for name, for assertions.
func (m *MockStore) Data(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.data[name]
	return bytes.Clone(d), ok
}

// MemoryBackend implements storage.Backend with a map. Tests use it to
// reach into ciphertext without touching disk.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ storage.Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string][]byte)}
}

func (b *MemoryBackend) PutObject(_ context.Context, key string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *MemoryBackend) GetObject(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

func (b *MemoryBackend) DeleteObject(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *MemoryBackend) Type() string { return "memory" }

func (b *MemoryBackend) Close() error { return nil }

// Keys returns the stored object keys.
func (b *MemoryBackend) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Corrupt flips one byte near the end of the object stored under key.
func (b *MemoryBackend) Corrupt(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok || len(data) == 0 {
		return false
	}
	data[len(data)-1] ^= 0xff
	return true
}
