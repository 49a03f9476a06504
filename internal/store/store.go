// v0
// internal/store/store.go

// Package store provides slot-addressed blob stores backing plant
// snapshots: a volatile in-memory map, an append-only file emulating the
// device's NVS partition, and a SQLite database.
package store

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

// DefaultNamespace mirrors the NVS namespace used by the firmware.
const DefaultNamespace = "storage"

// Key renders the NVS key of a slot.
func Key(slot int) string {
	return fmt.Sprintf("plant%d", slot)
}

func checkSlot(slot int) error {
	if slot < 0 {
		return fmt.Errorf("slot %d: %w", slot, plant.ErrInvalidArgument)
	}
	return nil
}

func namespaceOrDefault(ns string) string {
	if ns = strings.TrimSpace(ns); ns == "" {
		return DefaultNamespace
	}
	return ns
}

// Backend is a slot store that owns resources.
type Backend interface {
	plant.SlotStore
	io.Closer
}

// Open builds the backend named kind: "memory", "file" or "sqlite".
func Open(kind, path, namespace string, log *slog.Logger) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		fs, err := OpenFile(path, namespace, log)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "sqlite":
		db, err := OpenSQLite(path, namespace)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q: %w", kind, plant.ErrInvalidArgument)
	}
}
