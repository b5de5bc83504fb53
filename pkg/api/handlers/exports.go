package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"vizzydb/pkg/exports"
	"vizzydb/pkg/models"
	"vizzydb/pkg/utils"
	"vizzydb/pkg/wrike"
)

// Exports exposes the export guard over HTTP.
type Exports struct {
	svc *exports.Service
}

// RegisterExports registers export endpoints on the router.
func RegisterExports(r *mux.Router, svc *exports.Service) {
	h := &Exports{svc: svc}
	r.HandleFunc("/exports", h.create).Methods(http.MethodPost)
	r.HandleFunc("/exports", h.list).Methods(http.MethodGet)
	r.HandleFunc("/exports/preview", h.preview).Methods(http.MethodPost)
	r.HandleFunc("/exports/tasks.csv", h.tasksCSV).Methods(http.MethodPost)
}

func (h *Exports) create(w http.ResponseWriter, r *http.Request) {
	var c models.Campaign
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.svc.CreateProject(r.Context(), c)
	if errors.Is(err, exports.ErrMissingCampaignID) {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusCreated
	if res.Idempotent {
		status = http.StatusOK
	}
	_ = utils.JSONWrite(w, status, res)
}

func (h *Exports) list(w http.ResponseWriter, r *http.Request) {
	campaignID := r.URL.Query().Get("campaign")
	if campaignID == "" {
		utils.JSONError(w, http.StatusBadRequest, "campaign query parameter is required")
		return
	}
	recs, err := h.svc.ListForCampaign(campaignID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []models.ExportRecord{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Campaign string                `json:"campaign"`
		Exports  []models.ExportRecord `json:"exports"`
	}{Campaign: campaignID, Exports: recs})
}

// preview returns the project document that an export would send, without
// creating anything.
func (h *Exports) preview(w http.ResponseWriter, r *http.Request) {
	var c models.Campaign
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, wrike.ProjectPayload(c))
}

// tasksCSV renders the default task breakdown as CSV for spreadsheet
// import.
func (h *Exports) tasksCSV(w http.ResponseWriter, r *http.Request) {
	var c models.Campaign
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	payload := wrike.ProjectPayload(c)
	w.Header().Set("Content-Type", "text/csv")
	_, _ = w.Write([]byte(wrike.TasksCSV(payload.Tasks)))
}
