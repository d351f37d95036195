package kv

import (
	"context"
	"sync"
)

// MemoryStore implements Store using nested maps. Nothing survives the
// process; it backs tests and the "memory" driver.
type MemoryStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		namespaces: make(map[string]map[string][]byte),
	}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.namespaces == nil {
		return nil, ErrClosed
	}
	v, ok := s.namespaces[namespace][key]
	if !ok {
		return nil, nil
	}
	return cloneBytes(v), nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.namespaces == nil {
		return ErrClosed
	}
	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string][]byte)
		s.namespaces[namespace] = ns
	}
	ns[key] = cloneBytes(value)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.namespaces == nil {
		return ErrClosed
	}
	delete(s.namespaces[namespace], key)
	return nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, namespace string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.namespaces == nil {
		return nil, ErrClosed
	}
	records := make([]Record, 0, len(s.namespaces[namespace]))
	for k, v := range s.namespaces[namespace] {
		records = append(records, Record{Key: k, Value: cloneBytes(v)})
	}
	return records, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.namespaces = nil
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
