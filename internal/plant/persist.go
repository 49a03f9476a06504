// v0
// internal/plant/persist.go
package plant

import (
	"context"
	"errors"
	"fmt"
)

// SlotStore is the durable key-value capability the engine persists into.
// Implementations return ErrNotFound for never-saved slots and
// ErrStoreUnavailable when the backend is closed or failed.
// Calls are synchronous; the engine never retries them.
type SlotStore interface {
	Save(ctx context.Context, slot int, blob []byte) error
	Load(ctx context.Context, slot int) ([]byte, error)
}

// Slots validates slot indices against the configured number of plants.
type Slots struct {
	Max int
}

// Check reports ErrInvalidArgument for a slot outside [0, Max).
func (s Slots) Check(slot int) error {
	max := s.Max
	if max <= 0 {
		max = DefaultMaxPlants
	}
	if slot < 0 || slot >= max {
		return fmt.Errorf("slot %d outside [0,%d): %w", slot, max, ErrInvalidArgument)
	}
	return nil
}

// SaveSnapshot encodes snap and writes it to slot. Out-of-range slots and a
// nil store are rejected without touching the backend.
func (s Slots) SaveSnapshot(ctx context.Context, store SlotStore, slot int, snap Snapshot) error {
	if err := s.Check(slot); err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("nil store: %w", ErrInvalidArgument)
	}
	blob, err := snap.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := store.Save(ctx, slot, blob); err != nil {
		return fmt.Errorf("save slot %d: %w", slot, storeError(err))
	}
	return nil
}

// LoadSnapshot reads and decodes the snapshot persisted in slot.
func (s Slots) LoadSnapshot(ctx context.Context, store SlotStore, slot int) (Snapshot, error) {
	if err := s.Check(slot); err != nil {
		return Snapshot{}, err
	}
	if store == nil {
		return Snapshot{}, fmt.Errorf("nil store: %w", ErrInvalidArgument)
	}
	blob, err := store.Load(ctx, slot)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load slot %d: %w", slot, storeError(err))
	}
	var snap Snapshot
	if err := snap.UnmarshalBinary(blob); err != nil {
		return Snapshot{}, fmt.Errorf("decode slot %d: %w", slot, err)
	}
	return snap, nil
}

// storeError maps any backend failure outside the SlotStore error set to
// ErrStoreUnavailable.
func storeError(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%v: %w", err, ErrStoreUnavailable)
}

// IsFallback reports whether a load error should degrade to a fresh plant
// rather than abort startup.
func IsFallback(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorruptSnapshot) || errors.Is(err, ErrStoreUnavailable)
}
