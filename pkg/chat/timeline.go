package chat

import (
	"vizzydb/pkg/models"
	"vizzydb/pkg/utils"
)

// Timeline is the sender-side view of a thread while appends are in
// flight: confirmed messages plus optimistic pending entries keyed by
// client_msg_id. A staged entry either gets confirmed (its id replaced by
// the stored one) or fails (it is removed); both states are terminal.
//
// It is a plain reducer over explicit state, not a concurrent structure;
// callers that share one across goroutines must serialize access.
type Timeline struct {
	confirmed []models.ChatMessage
	pending   map[string]models.ChatMessage
	order     []string
}

func NewTimeline(confirmed []models.ChatMessage) *Timeline {
	return &Timeline{
		confirmed: append([]models.ChatMessage(nil), confirmed...),
		pending:   map[string]models.ChatMessage{},
	}
}

// Compose assigns a fresh dedup key to newly written content and stages
// it. The returned message carries the ClientMsgID to submit to
// AppendMessage; reusing it across retries is what makes the retry
// idempotent.
func (t *Timeline) Compose(author string, content models.MessageContent) models.ChatMessage {
	msg := models.ChatMessage{
		Author:      author,
		Content:     content,
		ClientMsgID: utils.GenClientMsgID(),
	}
	t.Stage(msg)
	return msg
}

// Stage records an optimistic entry for display before the durable append
// resolves. The message's ClientMsgID must be the one submitted to
// AppendMessage. Staging an id twice replaces the earlier entry.
func (t *Timeline) Stage(msg models.ChatMessage) {
	if msg.ClientMsgID == "" {
		return
	}
	if _, ok := t.pending[msg.ClientMsgID]; !ok {
		t.order = append(t.order, msg.ClientMsgID)
	}
	t.pending[msg.ClientMsgID] = msg
}

// Confirm resolves a pending entry with the server-assigned id, moving it
// into the confirmed list. Unknown ids are ignored.
func (t *Timeline) Confirm(clientMsgID, serverID string) {
	msg, ok := t.pending[clientMsgID]
	if !ok {
		return
	}
	t.drop(clientMsgID)
	msg.ID = serverID
	t.confirmed = append(t.confirmed, msg)
}

// Fail removes a pending entry whose durable append failed, rather than
// leaving a permanently pending item.
func (t *Timeline) Fail(clientMsgID string) {
	t.drop(clientMsgID)
}

// Pending reports whether the entry is still awaiting confirmation.
func (t *Timeline) Pending(clientMsgID string) bool {
	_, ok := t.pending[clientMsgID]
	return ok
}

// Messages returns the display order: confirmed messages followed by
// pending entries in staging order.
func (t *Timeline) Messages() []models.ChatMessage {
	out := append([]models.ChatMessage(nil), t.confirmed...)
	for _, id := range t.order {
		out = append(out, t.pending[id])
	}
	return out
}

func (t *Timeline) drop(clientMsgID string) {
	if _, ok := t.pending[clientMsgID]; !ok {
		return
	}
	delete(t.pending, clientMsgID)
	for i, id := range t.order {
		if id == clientMsgID {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}
