// Package storage provides the string key/value stores the progress engine
// persists into. A Storage behaves like a browser's per-origin local
// storage: synchronous, string valued, and allowed to fail.
package storage

import (
	"errors"
	"sync"
)

var (
	// ErrUnavailable means the backing store could not be reached at all.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrQuotaExceeded means a write was refused because the store is full.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrCorrupt means the backing container could not be decoded.
	ErrCorrupt = errors.New("storage container corrupt")
)

// Storage is a synchronous string key/value store scoped to one origin.
type Storage interface {
	// GetItem returns the value for key and whether it exists.
	GetItem(key string) (string, bool, error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(key, value string) error
}

// BatchSetter is implemented by stores that can write several items at once.
type BatchSetter interface {
	SetItems(items map[string]string) error
}

// SetItems writes items through s, atomically when s supports it.
func SetItems(s Storage, items map[string]string) error {
	if b, ok := s.(BatchSetter); ok {
		return b.SetItems(items)
	}
	for key, value := range items {
		if err := s.SetItem(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Memory is an in-process Storage. A positive Quota limits the total number
// of bytes (keys plus values) it will hold.
type Memory struct {
	mu          sync.Mutex
	items       map[string]string
	Quota       int
	Unavailable bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return "", false, ErrUnavailable
	}
	value, ok := m.items[key]
	return value, ok, nil
}

func (m *Memory) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return ErrUnavailable
	}
	if m.Quota > 0 {
		size := len(key) + len(value)
		for k, v := range m.items {
			if k != key {
				size += len(k) + len(v)
			}
		}
		if size > m.Quota {
			return ErrQuotaExceeded
		}
	}
	m.items[key] = value
	return nil
}

// Len reports how many items are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
