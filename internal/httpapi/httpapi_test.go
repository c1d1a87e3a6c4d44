package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"jobscout-engine/internal/connector"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/events"
	"jobscout-engine/internal/runner"
	"jobscout-engine/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	db     *store.DB
	mux    *http.ServeMux
	resume *domain.Resume
	ran    []int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))

	resume := &domain.Resume{UserID: 1, Name: "Main", Summary: "Go engineer."}
	require.NoError(t, db.CreateResume(context.Background(), resume))

	reg := connector.NewRegistry()
	reg.Register("remotive", func() (connector.Connector, error) { return nil, nil })

	e := &env{db: db, resume: resume}
	e.mux = NewMux(Deps{
		DB:       db,
		Hub:      events.NewHub(),
		Registry: reg,
		UserID:   1,
		RunAutomation: func(_ context.Context, a *domain.Automation) runner.Result {
			e.ran = append(e.ran, a.ID)
			return runner.Result{
				RunID:  "run-xyz",
				Status: domain.RunCompleted,
				Counts: domain.RunCounts{Searched: 5, Deduplicated: 4, Processed: 4, Matched: 2, Saved: 2},
			}
		},
	})
	return e
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *env) createAutomation(t *testing.T) automationView {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/automations", `{
		"name": "daily go jobs",
		"jobBoard": "remotive",
		"keywords": "golang backend",
		"resumeId": 1,
		"matchThreshold": 70,
		"scheduleHour": 8
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view automationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func TestCreateAndListAutomations(t *testing.T) {
	e := newEnv(t)
	view := e.createAutomation(t)

	assert.Equal(t, "active", view.Status)
	assert.Equal(t, 70, view.MatchThreshold)
	require.NotNil(t, view.NextRunAt, "new automations get a schedule immediately")
	assert.Equal(t, 8, view.NextRunAt.Hour())

	rec := e.do(t, http.MethodGet, "/automations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []automationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, view.ID, list[0].ID)
}

func TestCreateAutomationRejectsUnknownBoard(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/automations",
		`{"name":"x","jobBoard":"monster","resumeId":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown_board")
	assert.Contains(t, rec.Body.String(), "remotive", "error lists available boards")
}

func TestCreateAutomationValidatesRanges(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/automations",
		`{"name":"x","jobBoard":"remotive","resumeId":1,"matchThreshold":150}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/automations",
		`{"name":"x","jobBoard":"remotive","resumeId":1,"scheduleHour":24}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAutomationNotFound(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/automations/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPauseAndResume(t *testing.T) {
	e := newEnv(t)
	view := e.createAutomation(t)
	path := "/automations/" + itoa(view.ID)

	rec := e.do(t, http.MethodPost, path+"/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var paused automationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paused))
	assert.Equal(t, "paused", paused.Status)
	assert.Nil(t, paused.NextRunAt)

	rec = e.do(t, http.MethodPost, path+"/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resumed automationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resumed))
	assert.Equal(t, "active", resumed.Status)
	require.NotNil(t, resumed.NextRunAt)
}

func TestRunNow(t *testing.T) {
	e := newEnv(t)
	view := e.createAutomation(t)

	rec := e.do(t, http.MethodPost, "/automations/"+itoa(view.ID)+"/run", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"runId":"run-xyz"`)
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)
	assert.Equal(t, []int64{view.ID}, e.ran)
}

func TestDeleteAutomation(t *testing.T) {
	e := newEnv(t)
	view := e.createAutomation(t)

	rec := e.do(t, http.MethodDelete, "/automations/"+itoa(view.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/automations/"+itoa(view.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRunsEmpty(t *testing.T) {
	e := newEnv(t)
	view := e.createAutomation(t)

	rec := e.do(t, http.MethodGet, "/automations/"+itoa(view.ID)+"/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestPatchJobValidatesStatus(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPatch, "/jobs/1", `{"discoveryStatus":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPatch, "/jobs/1", `{"discoveryStatus":"dismissed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no such job yet")
}

func TestHealthListsConnectors(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
	assert.Contains(t, rec.Body.String(), "remotive")
}

func TestMethodNotAllowed(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodDelete, "/automations", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))
}

func TestResponsesCarryContentType(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/automations", "")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = e.do(t, http.MethodGet, "/automations/99", "")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
