package store

import (
	"context"
	"sync"
)

// MemStore is an in-process Store used by tests and by the "memory"
// backend. Values are copied on the way in and out.
type MemStore struct {
	mu     sync.RWMutex
	data   map[string]map[string][]byte
	writes int
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]map[string][]byte)}
}

// Get implements Store.Get.
func (m *MemStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[namespace][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set implements Store.Set.
func (m *MemStore) Set(ctx context.Context, namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string][]byte)
		m.data[namespace] = ns
	}
	ns[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

// Delete implements Store.Delete.
func (m *MemStore) Delete(ctx context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data[namespace], key)
	return nil
}

// Close implements Store.Close.
func (m *MemStore) Close() error {
	return nil
}

// Writes counts successful Set calls. Tests use it to check debouncing.
func (m *MemStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
