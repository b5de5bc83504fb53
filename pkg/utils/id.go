package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// genID builds a time-prefixed identifier with a random suffix. Non
// cryptographic uniqueness is fine for record IDs; idempotency keys use a
// real digest (see pkg/exports).
func genID(prefix string) string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UTC().UnixNano(), hex.EncodeToString(b[:]))
}

// GenExportID returns a new export record identifier.
func GenExportID() string { return genID("export") }

// GenThreadID returns a new chat thread identifier.
func GenThreadID() string { return genID("thread") }

// GenMessageID returns a new chat message identifier.
func GenMessageID() string { return genID("msg") }

// GenClientMsgID returns an identifier suitable for a sender-side dedup
// key. Senders generate it once per logical message and reuse it across
// retries.
func GenClientMsgID() string { return "client_" + uuid.NewString() }

// NowISO returns the current wall-clock time as an RFC3339 string with
// nanosecond precision, the timestamp format used across stored records.
func NowISO() string { return time.Now().UTC().Format(time.RFC3339Nano) }
