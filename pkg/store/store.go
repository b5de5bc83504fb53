package store

import "errors"

// Fixed keys for the collections this service owns. Each collection is a
// single JSON array stored under one key; there is no partial-update API.
const (
	KeyExports      = "vizzy:wrike-exports"
	KeyChatThreads  = "vizzy:chat-threads"
	KeyChatMessages = "vizzy:chat-messages"
)

// ActiveThreadKey returns the per-tenant key holding the active-thread
// pointer.
func ActiveThreadKey(tenantID string) string {
	return "vizzy:active-thread:" + tenantID
}

// ErrQuotaExceeded is returned by WriteAll when a serialized collection
// exceeds the configured size budget.
var ErrQuotaExceeded = errors.New("collection quota exceeded")

// RecordStore persists whole collections as raw JSON bytes under fixed
// string keys. Higher layers express every mutation as read-all, compute,
// write-all; the store itself never interprets the payload.
//
// Implementations must treat an absent key as empty (nil, nil) on read and
// must fail loudly on write errors: a silently dropped write is worse than
// a returned error.
type RecordStore interface {
	ReadAll(key string) ([]byte, error)
	WriteAll(key string, data []byte) error
	Close() error
}
