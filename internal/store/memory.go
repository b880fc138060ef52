package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps collections in process memory
type MemoryBackend struct {
	mu     sync.Mutex
	data   map[string][]byte
	writes int
	// FailWith makes SaveAll return this error when set
	FailWith error
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// Load returns a copy of the stored payload
func (m *MemoryBackend) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.data[name]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// SaveAll stores every collection
func (m *MemoryBackend) SaveAll(_ context.Context, collections map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	for name, data := range collections {
		m.data[name] = append([]byte(nil), data...)
	}
	m.writes++
	return nil
}

// Put sets a raw payload, bypassing encoding
func (m *MemoryBackend) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = data
}

// Writes returns how many successful SaveAll calls were made
func (m *MemoryBackend) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
