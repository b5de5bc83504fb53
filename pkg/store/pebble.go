package store

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"vizzydb/pkg/logger"
)

// collection values live under a reserved namespace so future record
// types can share the same DB without key collisions.
const collectionPrefix = "collection:"

// Pebble is the durable RecordStore backed by a Pebble database. Every
// write is synced; quota (when > 0) caps the serialized size of a single
// collection.
type Pebble struct {
	db    *pebble.DB
	path  string
	quota int64
}

// OpenPebble opens (or creates) a Pebble database at the given path.
func OpenPebble(path string, quota int64) (*Pebble, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Info("pebble_opened", "path", path)
	return &Pebble{db: db, path: path, quota: quota}, nil
}

func (p *Pebble) Path() string { return p.path }

func (p *Pebble) ReadAll(key string) ([]byte, error) {
	v, closer, err := p.db.Get([]byte(collectionPrefix + key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error("read_collection_failed", "key", key, "error", err)
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

func (p *Pebble) WriteAll(key string, data []byte) error {
	if p.quota > 0 && int64(len(data)) > p.quota {
		logger.Error("write_collection_over_quota", "key", key, "size", len(data), "quota", p.quota)
		return fmt.Errorf("%s: %d bytes: %w", key, len(data), ErrQuotaExceeded)
	}
	if err := p.db.Set([]byte(collectionPrefix+key), data, pebble.Sync); err != nil {
		logger.Error("write_collection_failed", "key", key, "error", err)
		return err
	}
	logger.Debug("collection_written", "key", key, "size", len(data))
	return nil
}

func (p *Pebble) Close() error {
	if p.db == nil {
		return nil
	}
	if err := p.db.Close(); err != nil {
		return err
	}
	p.db = nil
	logger.Info("pebble_closed")
	return nil
}
