package store

import (
	"context"
	"sync"

	"github.com/sweeney/bowl-monitor/internal/logic"
)

// MemoryStore is a test double that keeps the record in memory.
type MemoryStore struct {
	mu sync.Mutex

	rec     logic.CounterRecord
	written bool

	// Saves counts successful Save calls.
	Saves int

	// LoadError, if set, is returned by Load.
	LoadError error

	// SaveError, if set, is returned by Save and the record is left unchanged.
	SaveError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith creates a MemoryStore that already holds rec.
func NewMemoryStoreWith(rec logic.CounterRecord) *MemoryStore {
	return &MemoryStore{rec: rec, written: true}
}

// Load returns the held record.
func (m *MemoryStore) Load(ctx context.Context) (logic.CounterRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadError != nil {
		return logic.CounterRecord{}, m.LoadError
	}
	if !m.written {
		return logic.CounterRecord{}, nil
	}
	return m.rec, nil
}

// Save replaces the held record.
func (m *MemoryStore) Save(ctx context.Context, rec logic.CounterRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return m.SaveError
	}
	m.rec = rec
	m.written = true
	m.Saves++
	return nil
}

// Clear forgets the held record.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = logic.CounterRecord{}
	m.written = false
	return nil
}

// Close marks the store as closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	return nil
}

// Record returns the held record without going through Load.
func (m *MemoryStore) Record() logic.CounterRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec
}
