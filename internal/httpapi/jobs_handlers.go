package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/store"
)

type JobsHandler struct {
	DB     *store.DB
	UserID int64
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	jobs, err := h.DB.ListJobs(r.Context(), h.UserID, limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, jobs)
}

type patchJobReq struct {
	DiscoveryStatus string `json:"discoveryStatus"`
}

// PatchByPath moves a job through the review flow; expects /jobs/{id}.
func (h JobsHandler) PatchByPath(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/jobs/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "invalid job id")
		return
	}

	var req patchJobReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	status := domain.DiscoveryStatus(req.DiscoveryStatus)
	switch status {
	case domain.DiscoveryNew, domain.DiscoveryDismissed, domain.DiscoveryAccepted:
	default:
		WriteError(w, r, http.StatusBadRequest, "invalid_request", "discoveryStatus must be new, dismissed or accepted")
		return
	}

	if err := h.DB.SetJobDiscoveryStatus(r.Context(), h.UserID, id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, r, http.StatusNotFound, "not_found", "job not found")
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id, "discoveryStatus": status})
}
