package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"vizzydb/pkg/logger"
)

// Collection is a typed view over one RecordStore key. ReadAll recovers
// from corrupt stored JSON by treating the collection as empty (logged,
// never raised); WriteAll and Update propagate storage errors unchanged.
type Collection[T any] struct {
	rs  RecordStore
	key string
	mu  sync.Mutex
}

func NewCollection[T any](rs RecordStore, key string) *Collection[T] {
	return &Collection[T]{rs: rs, key: key}
}

func (c *Collection[T]) Key() string { return c.key }

// ReadAll returns the decoded collection. An absent key or unparseable
// payload yields an empty slice; only storage-level read errors surface.
func (c *Collection[T]) ReadAll() ([]T, error) {
	b, err := c.rs.ReadAll(c.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.key, err)
	}
	if len(b) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		logger.Warn("collection_corrupt", "key", c.key, "error", err)
		return nil, nil
	}
	return items, nil
}

// WriteAll serializes and stores the full collection.
func (c *Collection[T]) WriteAll(items []T) error {
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", c.key, err)
	}
	if err := c.rs.WriteAll(c.key, b); err != nil {
		return fmt.Errorf("write %s: %w", c.key, err)
	}
	return nil
}

// Update runs fn over the current collection and writes the result back.
// Calls on the same Collection are serialized, so a read-modify-write
// cannot interleave with another writer of this key in this process.
// Returning an error from fn aborts without writing.
func (c *Collection[T]) Update(fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, err := c.ReadAll()
	if err != nil {
		return err
	}
	next, err := fn(items)
	if err != nil {
		return err
	}
	return c.WriteAll(next)
}
