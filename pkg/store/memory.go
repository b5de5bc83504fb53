package store

import (
	"fmt"
	"sync"
)

// Memory is an in-process RecordStore used by tests and by callers that
// don't need durability. It honors the same quota and error semantics as
// the Pebble store.
type Memory struct {
	mu      sync.RWMutex
	data    map[string][]byte
	quota   int64
	failErr error
}

func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

// SetQuota caps the serialized size of a single collection. Zero disables
// the check.
func (m *Memory) SetQuota(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quota = n
}

// FailWrites makes every subsequent WriteAll return err. Pass nil to
// restore normal behavior. Test hook for write-failure paths.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Seed stores raw bytes under key without quota checks, letting tests
// stage corrupt or oversized payloads.
func (m *Memory) Seed(key string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), raw...)
}

func (m *Memory) ReadAll(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) WriteAll(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	if m.quota > 0 && int64(len(data)) > m.quota {
		return fmt.Errorf("%s: %d bytes: %w", key, len(data), ErrQuotaExceeded)
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Close() error { return nil }
