package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"vizzydb/pkg/chat"
	"vizzydb/pkg/models"
	"vizzydb/pkg/utils"
)

// Threads exposes the message log over HTTP.
type Threads struct {
	svc *chat.Service
}

// RegisterThreads registers thread and message endpoints on the router.
func RegisterThreads(r *mux.Router, svc *chat.Service) {
	h := &Threads{svc: svc}
	r.HandleFunc("/threads", h.createThread).Methods(http.MethodPost)
	r.HandleFunc("/threads/active", h.activeThread).Methods(http.MethodGet)
	r.HandleFunc("/threads/{id}/messages", h.appendMessage).Methods(http.MethodPost)
	r.HandleFunc("/threads/{id}/messages", h.listMessages).Methods(http.MethodGet)
}

func tenantOf(r *http.Request) string {
	if t := r.URL.Query().Get("tenant"); t != "" {
		return t
	}
	if t := r.Header.Get("X-Tenant-ID"); t != "" {
		return t
	}
	return chat.DefaultTenantID
}

func (h *Threads) createThread(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TenantID  string `json:"tenant_id"`
		CreatedBy string `json:"created_by"`
		Title     string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.TenantID == "" {
		body.TenantID = tenantOf(r)
	}
	th, err := h.svc.CreateThread(body.TenantID, body.CreatedBy, body.Title)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, th)
}

func (h *Threads) activeThread(w http.ResponseWriter, r *http.Request) {
	th, err := h.svc.GetOrCreateActiveThread(tenantOf(r))
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, th)
}

func (h *Threads) appendMessage(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["id"]
	var body struct {
		TenantID    string                `json:"tenant_id"`
		Author      string                `json:"author"`
		Content     models.MessageContent `json:"content"`
		ClientMsgID string                `json:"client_msg_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.TenantID == "" {
		body.TenantID = tenantOf(r)
	}
	res, err := h.svc.AppendMessage(threadID, body.TenantID, body.Author, body.Content, body.ClientMsgID)
	switch {
	case errors.Is(err, chat.ErrMissingClientMsgID),
		errors.Is(err, chat.ErrMissingContent),
		errors.Is(err, chat.ErrBadAuthor):
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, chat.ErrThreadNotFound):
		utils.JSONError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusCreated
	if res.Idempotent {
		status = http.StatusOK
	}
	_ = utils.JSONWrite(w, status, res)
}

func (h *Threads) listMessages(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["id"]
	tenantID := tenantOf(r)
	if !h.svc.ValidateThreadAccess(threadID, tenantID) {
		utils.JSONError(w, http.StatusNotFound, chat.ErrThreadNotFound.Error())
		return
	}
	msgs, err := h.svc.ListMessages(threadID, tenantID, r.URL.Query().Get("since"))
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	// limit keeps the newest tail; zero or negative means unlimited
	if limStr := r.URL.Query().Get("limit"); limStr != "" {
		if lim, err := strconv.Atoi(limStr); err == nil && lim > 0 && lim < len(msgs) {
			msgs = msgs[len(msgs)-lim:]
		}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Thread   string               `json:"thread"`
		Messages []models.ChatMessage `json:"messages"`
	}{Thread: threadID, Messages: msgs})
}
