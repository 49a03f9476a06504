// v0
// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS nvs_blobs (
	namespace  TEXT    NOT NULL,
	key        TEXT    NOT NULL,
	slot       INTEGER NOT NULL,
	blob       BLOB    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (namespace, key)
)`

// SQLite persists blobs in a SQLite database, one row per slot.
type SQLite struct {
	db        *sql.DB
	namespace string
}

// OpenSQLite opens and migrates the database at path. ":memory:" is accepted
// for tests.
func OpenSQLite(path, namespace string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required: %w", plant.ErrInvalidArgument)
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %v: %w", err, plant.ErrStoreUnavailable)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %v: %w", err, plant.ErrStoreUnavailable)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite db: %v: %w", err, plant.ErrStoreUnavailable)
	}
	return &SQLite{db: db, namespace: namespaceOrDefault(namespace)}, nil
}

func (s *SQLite) Save(ctx context.Context, slot int, blob []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite store closed: %w", plant.ErrStoreUnavailable)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO nvs_blobs (namespace, key, slot, blob, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		s.namespace, Key(slot), slot, blob, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save %s: %v: %w", Key(slot), err, plant.ErrStoreUnavailable)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, slot int) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlite store closed: %w", plant.ErrStoreUnavailable)
	}
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT blob FROM nvs_blobs WHERE namespace = ? AND key = ?`,
		s.namespace, Key(slot),
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", s.namespace, Key(slot), plant.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %v: %w", Key(slot), err, plant.ErrStoreUnavailable)
	}
	return blob, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
