// v0
// internal/store/memory.go
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

// Memory keeps blobs in process memory. Contents are lost on restart.
type Memory struct {
	mu     sync.RWMutex
	blobs  map[int][]byte
	closed bool
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[int][]byte)}
}

func (m *Memory) Save(_ context.Context, slot int, blob []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("memory store closed: %w", plant.ErrStoreUnavailable)
	}
	m.blobs[slot] = append([]byte(nil), blob...)
	return nil
}

func (m *Memory) Load(_ context.Context, slot int) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, fmt.Errorf("memory store closed: %w", plant.ErrStoreUnavailable)
	}
	b, ok := m.blobs[slot]
	if !ok {
		return nil, fmt.Errorf("%s: %w", Key(slot), plant.ErrNotFound)
	}
	return append([]byte(nil), b...), nil
}

// Close drops the contents; later calls report ErrStoreUnavailable.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.blobs = nil
	m.mu.Unlock()
	return nil
}
