package models

// Message authors.
const (
	AuthorUser      = "user"
	AuthorAssistant = "assistant"
	AuthorSystem    = "system"
)

type ChatThread struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	CreatedBy string `json:"created_by"`
	Title     string `json:"title,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ChatMessage is one entry in a thread's append-only history. ClientMsgID
// is supplied by the sender and dedupes retried appends; ID and CreatedAt
// are assigned at persist time.
type ChatMessage struct {
	ID          string         `json:"id"`
	ThreadID    string         `json:"thread_id"`
	TenantID    string         `json:"tenant_id"`
	Author      string         `json:"author"`
	Content     MessageContent `json:"content"`
	ClientMsgID string         `json:"client_msg_id"`
	CreatedAt   string         `json:"created_at"`
	// DeletedAt marks a soft delete; deleted messages are excluded from reads.
	DeletedAt string `json:"deleted_at,omitempty"`
}

// MessageContent carries the message payload. Parts is an extensibility
// slot for structured content; clients that only send text leave it nil.
type MessageContent struct {
	Text  string        `json:"text"`
	Parts []interface{} `json:"parts,omitempty"`
}

// Live reports whether the message is visible to reads.
func (m ChatMessage) Live() bool { return m.DeletedAt == "" }
