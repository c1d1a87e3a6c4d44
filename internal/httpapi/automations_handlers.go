package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jobscout-engine/internal/connector"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/runner"
	"jobscout-engine/internal/schedule"
	"jobscout-engine/internal/store"
)

type AutomationsHandler struct {
	DB       *store.DB
	Registry *connector.Registry
	Run      func(ctx context.Context, a *domain.Automation) runner.Result
	UserID   int64
}

type automationView struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	JobBoard        string            `json:"jobBoard"`
	Keywords        string            `json:"keywords"`
	Location        string            `json:"location,omitempty"`
	ConnectorParams map[string]string `json:"connectorParams,omitempty"`
	ResumeID        int64             `json:"resumeId"`
	MatchThreshold  int               `json:"matchThreshold"`
	ScheduleHour    int               `json:"scheduleHour"`
	Status          string            `json:"status"`
	NextRunAt       *time.Time        `json:"nextRunAt,omitempty"`
	LastRunAt       *time.Time        `json:"lastRunAt,omitempty"`
}

func toView(a *domain.Automation) automationView {
	return automationView{
		ID:              a.ID,
		Name:            a.Name,
		JobBoard:        a.JobBoard,
		Keywords:        a.Keywords,
		Location:        a.Location,
		ConnectorParams: a.ConnectorParams,
		ResumeID:        a.ResumeID,
		MatchThreshold:  a.MatchThreshold,
		ScheduleHour:    a.ScheduleHour,
		Status:          string(a.Status),
		NextRunAt:       a.NextRunAt,
		LastRunAt:       a.LastRunAt,
	}
}

func (h AutomationsHandler) List(w http.ResponseWriter, r *http.Request) {
	automations, err := h.DB.ListAutomations(r.Context(), h.UserID)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	views := make([]automationView, 0, len(automations))
	for i := range automations {
		views = append(views, toView(&automations[i]))
	}
	writeJSON(w, views)
}

type createAutomationReq struct {
	Name            string            `json:"name"`
	JobBoard        string            `json:"jobBoard"`
	Keywords        string            `json:"keywords"`
	Location        string            `json:"location"`
	ConnectorParams map[string]string `json:"connectorParams"`
	ResumeID        int64             `json:"resumeId"`
	MatchThreshold  int               `json:"matchThreshold"`
	ScheduleHour    int               `json:"scheduleHour"`
}

func (h AutomationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAutomationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if req.Name == "" || req.ResumeID <= 0 {
		WriteError(w, r, http.StatusBadRequest, "invalid_request", "name and resumeId are required")
		return
	}
	if !h.Registry.Has(req.JobBoard) {
		WriteError(w, r, http.StatusBadRequest, "unknown_board",
			"unknown job board "+strconv.Quote(req.JobBoard)+" (available: "+strings.Join(h.Registry.IDs(), ", ")+")")
		return
	}
	if req.MatchThreshold < 0 || req.MatchThreshold > 100 {
		WriteError(w, r, http.StatusBadRequest, "invalid_request", "matchThreshold must be 0..100")
		return
	}
	if req.ScheduleHour < 0 || req.ScheduleHour > 23 {
		WriteError(w, r, http.StatusBadRequest, "invalid_request", "scheduleHour must be 0..23")
		return
	}

	next := schedule.NextRunAt(time.Now(), req.ScheduleHour)
	a := &domain.Automation{
		UserID:          h.UserID,
		Name:            req.Name,
		JobBoard:        req.JobBoard,
		Keywords:        req.Keywords,
		Location:        req.Location,
		ConnectorParams: req.ConnectorParams,
		ResumeID:        req.ResumeID,
		MatchThreshold:  req.MatchThreshold,
		ScheduleHour:    req.ScheduleHour,
		Status:          domain.AutomationActive,
		NextRunAt:       &next,
	}
	if err := h.DB.CreateAutomation(r.Context(), a); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, toView(a))
}

// Route dispatches /automations/{id} and /automations/{id}/{action}.
func (h AutomationsHandler) Route(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/automations/")
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "invalid automation id")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "run":
		methodMux(map[string]http.HandlerFunc{
			http.MethodPost: func(w http.ResponseWriter, r *http.Request) { h.runNow(w, r, id) },
		})(w, r)
	case "pause":
		methodMux(map[string]http.HandlerFunc{
			http.MethodPost: func(w http.ResponseWriter, r *http.Request) { h.pause(w, r, id) },
		})(w, r)
	case "resume":
		methodMux(map[string]http.HandlerFunc{
			http.MethodPost: func(w http.ResponseWriter, r *http.Request) { h.resume(w, r, id) },
		})(w, r)
	case "runs":
		methodMux(map[string]http.HandlerFunc{
			http.MethodGet: func(w http.ResponseWriter, r *http.Request) { h.listRuns(w, r, id) },
		})(w, r)
	default:
		http.NotFound(w, r)
	}
}

// owned loads the automation and enforces the user scope.
func (h AutomationsHandler) owned(w http.ResponseWriter, r *http.Request, id int64) *domain.Automation {
	a, err := h.DB.GetAutomation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "not_found", "automation not found")
		return nil
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return nil
	}
	if a.UserID != h.UserID {
		WriteError(w, r, http.StatusNotFound, "not_found", "automation not found")
		return nil
	}
	return a
}

func (h AutomationsHandler) get(w http.ResponseWriter, r *http.Request, id int64) {
	if a := h.owned(w, r, id); a != nil {
		writeJSON(w, toView(a))
	}
}

func (h AutomationsHandler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	if h.owned(w, r, id) == nil {
		return
	}
	if err := h.DB.DeleteAutomation(r.Context(), id); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

func (h AutomationsHandler) pause(w http.ResponseWriter, r *http.Request, id int64) {
	if h.owned(w, r, id) == nil {
		return
	}
	if err := h.DB.PauseAutomation(r.Context(), id); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	h.get(w, r, id)
}

func (h AutomationsHandler) resume(w http.ResponseWriter, r *http.Request, id int64) {
	a := h.owned(w, r, id)
	if a == nil {
		return
	}
	next := schedule.NextRunAt(time.Now(), a.ScheduleHour)
	if err := h.DB.ResumeAutomation(r.Context(), id, next); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	h.get(w, r, id)
}

func (h AutomationsHandler) runNow(w http.ResponseWriter, r *http.Request, id int64) {
	a := h.owned(w, r, id)
	if a == nil {
		return
	}
	res := h.Run(r.Context(), a)
	writeJSON(w, map[string]any{
		"runId":         res.RunID,
		"status":        res.Status,
		"counts":        res.Counts,
		"errorMessage":  res.ErrorMessage,
		"blockedReason": res.BlockedReason,
	})
}

func (h AutomationsHandler) listRuns(w http.ResponseWriter, r *http.Request, id int64) {
	if h.owned(w, r, id) == nil {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.DB.ListRuns(r.Context(), id, limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	views := make([]runView, 0, len(runs))
	for i := range runs {
		views = append(views, toRunView(&runs[i]))
	}
	writeJSON(w, views)
}

type runView struct {
	ID            string           `json:"id"`
	AutomationID  int64            `json:"automationId"`
	Status        string           `json:"status"`
	Counts        domain.RunCounts `json:"counts"`
	ErrorMessage  string           `json:"errorMessage,omitempty"`
	BlockedReason string           `json:"blockedReason,omitempty"`
	StartedAt     time.Time        `json:"startedAt"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
}

func toRunView(run *domain.AutomationRun) runView {
	return runView{
		ID:            run.ID,
		AutomationID:  run.AutomationID,
		Status:        string(run.Status),
		Counts:        run.Counts,
		ErrorMessage:  run.ErrorMessage,
		BlockedReason: run.BlockedReason,
		StartedAt:     run.StartedAt,
		CompletedAt:   run.CompletedAt,
	}
}
