// Package chat maintains per-thread ordered message history with
// caller-driven deduplication. Appends are idempotent on
// (thread, client_msg_id); reads exclude soft-deleted messages.
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"vizzydb/pkg/logger"
	"vizzydb/pkg/models"
	"vizzydb/pkg/store"
	"vizzydb/pkg/telemetry"
	"vizzydb/pkg/utils"
)

const (
	// DefaultTenantID and DefaultUserID scope single-tenant deployments.
	DefaultTenantID = "default-tenant"
	DefaultUserID   = "current-user"
)

var (
	ErrMissingClientMsgID = errors.New("client message id is required for idempotency")
	ErrMissingContent     = errors.New("message content text is required")
	ErrBadAuthor          = errors.New("author must be user, assistant or system")
	ErrThreadNotFound     = errors.New("thread not found")
)

// errNoWrite aborts an Update whose outcome is already stored. The
// collection is left untouched, so a dedup hit cannot fail on a store
// that can no longer write.
var errNoWrite = errors.New("no write needed")

// AppendResult reports the stored message id and whether this call was
// answered from an existing record.
type AppendResult struct {
	ID         string `json:"id"`
	Idempotent bool   `json:"idempotent"`
}

// Service owns the thread and message collections plus the per-tenant
// active-thread pointer.
type Service struct {
	rs      store.RecordStore
	threads *store.Collection[models.ChatThread]
	msgs    *store.Collection[models.ChatMessage]
}

func New(rs store.RecordStore) *Service {
	return &Service{
		rs:      rs,
		threads: store.NewCollection[models.ChatThread](rs, store.KeyChatThreads),
		msgs:    store.NewCollection[models.ChatMessage](rs, store.KeyChatMessages),
	}
}

// CreateThread stores a new thread for the tenant.
func (s *Service) CreateThread(tenantID, createdBy, title string) (models.ChatThread, error) {
	if tenantID == "" {
		tenantID = DefaultTenantID
	}
	if createdBy == "" {
		createdBy = DefaultUserID
	}
	th := models.ChatThread{
		ID:        utils.GenThreadID(),
		TenantID:  tenantID,
		CreatedBy: createdBy,
		Title:     title,
		CreatedAt: utils.NowISO(),
	}
	err := s.threads.Update(func(items []models.ChatThread) ([]models.ChatThread, error) {
		return append(items, th), nil
	})
	if err != nil {
		return models.ChatThread{}, err
	}
	logger.Info("thread_created", "thread", th.ID, "tenant", tenantID, "created_by", createdBy)
	return th, nil
}

// GetThread returns the thread when it exists and belongs to the tenant.
func (s *Service) GetThread(threadID, tenantID string) (models.ChatThread, error) {
	items, err := s.threads.ReadAll()
	if err != nil {
		return models.ChatThread{}, err
	}
	for _, th := range items {
		if th.ID == threadID && th.TenantID == tenantID {
			return th, nil
		}
	}
	return models.ChatThread{}, ErrThreadNotFound
}

// ValidateThreadAccess reports whether the tenant may use the thread.
func (s *Service) ValidateThreadAccess(threadID, tenantID string) bool {
	_, err := s.GetThread(threadID, tenantID)
	return err == nil
}

// GetOrCreateActiveThread returns the thread behind the tenant's
// active-thread pointer, creating a thread and setting the pointer when
// none exists or the pointed-to thread is gone. Repeated calls return the
// same thread as long as nothing clears the pointer.
func (s *Service) GetOrCreateActiveThread(tenantID string) (models.ChatThread, error) {
	if tenantID == "" {
		tenantID = DefaultTenantID
	}
	if id, err := s.activeThreadID(tenantID); err != nil {
		return models.ChatThread{}, err
	} else if id != "" {
		if th, err := s.GetThread(id, tenantID); err == nil {
			return th, nil
		}
		// stale pointer; fall through and replace it
	}
	th, err := s.CreateThread(tenantID, DefaultUserID, "")
	if err != nil {
		return models.ChatThread{}, err
	}
	if err := s.setActiveThreadID(tenantID, th.ID); err != nil {
		return models.ChatThread{}, err
	}
	return th, nil
}

// AppendMessage persists one message, deduplicating on clientMsgID within
// the thread. Matching calls return the original message id unmodified;
// the submitted content is neither merged nor compared (first write wins).
// Validation runs before any store access.
func (s *Service) AppendMessage(threadID, tenantID, author string, content models.MessageContent, clientMsgID string) (AppendResult, error) {
	if clientMsgID == "" {
		return AppendResult{}, ErrMissingClientMsgID
	}
	if content.Text == "" {
		return AppendResult{}, ErrMissingContent
	}
	if author == "" {
		author = models.AuthorUser
	}
	if author != models.AuthorUser && author != models.AuthorAssistant && author != models.AuthorSystem {
		return AppendResult{}, ErrBadAuthor
	}
	if tenantID == "" {
		tenantID = DefaultTenantID
	}
	if _, err := s.GetThread(threadID, tenantID); err != nil {
		return AppendResult{}, err
	}

	var res AppendResult
	err := s.msgs.Update(func(items []models.ChatMessage) ([]models.ChatMessage, error) {
		for _, m := range items {
			if m.ThreadID == threadID && m.ClientMsgID == clientMsgID && m.Live() {
				res = AppendResult{ID: m.ID, Idempotent: true}
				return nil, errNoWrite
			}
		}
		msg := models.ChatMessage{
			ID:          utils.GenMessageID(),
			ThreadID:    threadID,
			TenantID:    tenantID,
			Author:      author,
			Content:     content,
			ClientMsgID: clientMsgID,
			CreatedAt:   utils.NowISO(),
		}
		res = AppendResult{ID: msg.ID}
		return append(items, msg), nil
	})
	if err != nil && !errors.Is(err, errNoWrite) {
		return AppendResult{}, err
	}
	if res.Idempotent {
		telemetry.MessagesDeduped.Inc()
		logger.Info("message_deduped", "thread", threadID, "client_msg_id", clientMsgID, "id", res.ID)
	} else {
		telemetry.MessagesAppended.Inc()
		logger.Info("message_appended", "thread", threadID, "client_msg_id", clientMsgID, "id", res.ID)
	}
	return res, nil
}

// ListMessages returns live messages for the thread in ascending creation
// order. When since is non-empty only messages created strictly after it
// are returned.
func (s *Service) ListMessages(threadID, tenantID, since string) ([]models.ChatMessage, error) {
	if tenantID == "" {
		tenantID = DefaultTenantID
	}
	items, err := s.msgs.ReadAll()
	if err != nil {
		return nil, err
	}
	var sinceTS time.Time
	if since != "" {
		sinceTS, err = time.Parse(time.RFC3339Nano, since)
		if err != nil {
			return nil, fmt.Errorf("invalid since timestamp: %w", err)
		}
	}
	out := make([]models.ChatMessage, 0)
	for _, m := range items {
		if m.ThreadID != threadID || m.TenantID != tenantID || !m.Live() {
			continue
		}
		if since != "" {
			ts, perr := time.Parse(time.RFC3339Nano, m.CreatedAt)
			if perr != nil || !ts.After(sinceTS) {
				continue
			}
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, ei := time.Parse(time.RFC3339Nano, out[i].CreatedAt)
		tj, ej := time.Parse(time.RFC3339Nano, out[j].CreatedAt)
		if ei != nil || ej != nil {
			return false
		}
		return ti.Before(tj)
	})
	logger.Debug("messages_listed", "thread", threadID, "count", len(out))
	return out, nil
}

// CleanupOlderThan soft-deletes live messages created before now-age and
// returns how many were marked.
func (s *Service) CleanupOlderThan(age time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-age)
	marked := 0
	now := utils.NowISO()
	err := s.msgs.Update(func(items []models.ChatMessage) ([]models.ChatMessage, error) {
		for i := range items {
			if !items[i].Live() {
				continue
			}
			ts, perr := time.Parse(time.RFC3339Nano, items[i].CreatedAt)
			if perr == nil && ts.Before(cutoff) {
				items[i].DeletedAt = now
				marked++
			}
		}
		return items, nil
	})
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		telemetry.RetentionRemoved.WithLabelValues("messages").Add(float64(marked))
	}
	return marked, nil
}

// The active-thread pointer is one JSON string per tenant under its own
// key, separate from the thread collection.

func (s *Service) activeThreadID(tenantID string) (string, error) {
	b, err := s.rs.ReadAll(store.ActiveThreadKey(tenantID))
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", nil
	}
	var id string
	if err := json.Unmarshal(b, &id); err != nil {
		logger.Warn("active_thread_pointer_corrupt", "tenant", tenantID, "error", err)
		return "", nil
	}
	return id, nil
}

func (s *Service) setActiveThreadID(tenantID, threadID string) error {
	b, _ := json.Marshal(threadID)
	return s.rs.WriteAll(store.ActiveThreadKey(tenantID), b)
}
