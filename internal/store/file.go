// v0
// internal/store/file.go
package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

// record is one line of the append-only log. The latest record for a key wins.
type record struct {
	Namespace string    `json:"ns"`
	Key       string    `json:"key"`
	Slot      int       `json:"slot"`
	Blob      []byte    `json:"blob"`
	SavedAt   time.Time `json:"savedAt"`
}

// File emulates an NVS partition with an append-only JSON-lines log. The log
// is replayed into memory on open; every Save is flushed and synced before
// it returns.
type File struct {
	mu        sync.RWMutex
	path      string
	namespace string
	log       *slog.Logger
	file      *os.File
	writer    *bufio.Writer
	blobs     map[int][]byte
	records   int
}

// OpenFile opens (or creates) the log at path and replays it.
func OpenFile(path, namespace string, log *slog.Logger) (*File, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %v: %w", err, plant.ErrStoreUnavailable)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open store: %v: %w", err, plant.ErrStoreUnavailable)
	}
	fs := &File{
		path:      path,
		namespace: namespaceOrDefault(namespace),
		log:       log,
		file:      f,
		blobs:     make(map[int][]byte),
	}
	if err := fs.load(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return fs, nil
}

func (fs *File) load() error {
	fs.log.Info("store_loading", slog.String("path", fs.path), slog.String("namespace", fs.namespace))
	if _, err := fs.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind store: %v: %w", err, plant.ErrStoreUnavailable)
	}
	scanner := bufio.NewScanner(fs.file)
	var line, skipped int
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			// A torn final write after power loss leaves a partial line; skip it
			// and keep the previous record for that slot.
			fs.log.Warn("store_skip_bad_record", slog.Int("line", line), slog.Any("err", err))
			skipped++
			continue
		}
		if rec.Namespace != fs.namespace || rec.Slot < 0 {
			continue
		}
		fs.blobs[rec.Slot] = rec.Blob
		fs.records++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read store: %v: %w", err, plant.ErrStoreUnavailable)
	}
	end, err := fs.file.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("seek store end: %v: %w", err, plant.ErrStoreUnavailable)
	}
	fs.writer = bufio.NewWriter(fs.file)
	if end > 0 {
		last := make([]byte, 1)
		if _, err := fs.file.ReadAt(last, end-1); err != nil {
			return fmt.Errorf("read store tail: %v: %w", err, plant.ErrStoreUnavailable)
		}
		if last[0] != '\n' {
			// Terminate a torn record so the next append starts on its own line.
			if _, err := fs.file.Write([]byte{'\n'}); err != nil {
				return fmt.Errorf("repair store tail: %v: %w", err, plant.ErrStoreUnavailable)
			}
		}
	}
	fs.log.Info("store_loaded", slog.Int("records", fs.records), slog.Int("slots", len(fs.blobs)), slog.Int("skipped", skipped))
	return nil
}

func (fs *File) Save(_ context.Context, slot int, blob []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.file == nil {
		return fmt.Errorf("file store closed: %w", plant.ErrStoreUnavailable)
	}
	stored := append([]byte(nil), blob...)
	payload, err := json.Marshal(record{
		Namespace: fs.namespace,
		Key:       Key(slot),
		Slot:      slot,
		Blob:      stored,
		SavedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", Key(slot), err)
	}
	if err := fs.append(payload); err != nil {
		return fmt.Errorf("save %s: %v: %w", Key(slot), err, plant.ErrStoreUnavailable)
	}
	fs.blobs[slot] = stored
	fs.records++
	fs.log.Debug("store_saved", slog.String("key", Key(slot)), slog.Int("bytes", len(stored)))
	return nil
}

func (fs *File) append(payload []byte) error {
	if _, err := fs.writer.Write(payload); err != nil {
		return err
	}
	if err := fs.writer.WriteByte('\n'); err != nil {
		return err
	}
	if err := fs.writer.Flush(); err != nil {
		return err
	}
	return fs.file.Sync()
}

func (fs *File) Load(_ context.Context, slot int) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if fs.file == nil {
		return nil, fmt.Errorf("file store closed: %w", plant.ErrStoreUnavailable)
	}
	b, ok := fs.blobs[slot]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", fs.namespace, Key(slot), plant.ErrNotFound)
	}
	return append([]byte(nil), b...), nil
}

// Records reports how many log records have been applied since open,
// including superseded ones.
func (fs *File) Records() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.records
}

// Close flushes and closes the log.
func (fs *File) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.file == nil {
		return nil
	}
	ferr := fs.writer.Flush()
	cerr := fs.file.Close()
	fs.file = nil
	if ferr != nil {
		return ferr
	}
	return cerr
}
