package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/models"
)

type fakeDispatcher struct {
	submitted []string
	err       error
}

func (d *fakeDispatcher) Submit(ctx context.Context, query string) (*models.Job, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.submitted = append(d.submitted, query)
	return models.NewJob("job-1", query, time.Now()), nil
}

type fakeJobService struct {
	jobs      map[string]*models.Job
	lastLimit int
}

func (s *fakeJobService) Create(ctx context.Context, query string) (*models.Job, error) {
	return nil, errors.New("not used")
}
func (s *fakeJobService) Begin(ctx context.Context, jobID string) (*models.Job, error) {
	return nil, errors.New("not used")
}
func (s *fakeJobService) Succeed(ctx context.Context, jobID string, result *models.AnalysisResult) (*models.Job, error) {
	return nil, errors.New("not used")
}
func (s *fakeJobService) Fail(ctx context.Context, jobID string, message string) (*models.Job, error) {
	return nil, errors.New("not used")
}
func (s *fakeJobService) Get(ctx context.Context, jobID string) (*models.Job, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", jobID, models.ErrJobNotFound)
	}
	return job, nil
}
func (s *fakeJobService) List(ctx context.Context, limit int) ([]*models.Job, error) {
	s.lastLimit = limit
	out := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	return out, nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAnalyzeHandler_Accepts(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := NewAnalyzeHandler(dispatcher, arbor.NewLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"query":"sendgrid"}`))
	h.AnalyzeHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "job-1", body["jobId"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, []string{"sendgrid"}, dispatcher.submitted)
}

func TestAnalyzeHandler_MissingQuery(t *testing.T) {
	bodies := []string{`{}`, `{"query":"   "}`, `not json`, ``}

	for _, raw := range bodies {
		t.Run(raw, func(t *testing.T) {
			dispatcher := &fakeDispatcher{}
			h := NewAnalyzeHandler(dispatcher, arbor.NewLogger())

			rec := httptest.NewRecorder()
			h.AnalyzeHandler(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(raw)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"Query parameter is required"}`, rec.Body.String())
			assert.Empty(t, dispatcher.submitted, "no job is created")
		})
	}
}

func TestAnalyzeHandler_CreationFailure(t *testing.T) {
	dispatcher := &fakeDispatcher{err: &models.JobCreationError{Err: errors.New("disk full")}}
	h := NewAnalyzeHandler(dispatcher, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"query":"sendgrid"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "disk full")
}

func TestAnalyzeHandler_Preflight(t *testing.T) {
	h := NewAnalyzeHandler(&fakeDispatcher{}, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, httptest.NewRequest(http.MethodOptions, "/api/analyze", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, corsAllowHeaders, rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestAnalyzeHandler_WrongMethod(t *testing.T) {
	h := NewAnalyzeHandler(&fakeDispatcher{}, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestJobHandler_Get(t *testing.T) {
	job := models.NewJob("abc", "sendgrid", time.Now())
	svc := &fakeJobService{jobs: map[string]*models.Job{"abc": job}}
	h := NewJobHandler(svc, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.GetJobHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "abc", body["id"])
	assert.Equal(t, "pending", body["status"])
	assert.NotContains(t, body, "result")
	assert.NotContains(t, body, "error_message")

	rec = httptest.NewRecorder()
	h.GetJobHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobHandler_List(t *testing.T) {
	svc := &fakeJobService{jobs: map[string]*models.Job{"a": models.NewJob("a", "x", time.Now())}}
	h := NewJobHandler(svc, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.ListJobsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, svc.lastLimit)
	assert.EqualValues(t, 1, decodeBody(t, rec)["count"])

	h.ListJobsHandler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/jobs?limit=abc", nil))
	assert.Equal(t, 0, svc.lastLimit, "invalid limits fall back to the service default")
}

func TestAPIHandler_Health(t *testing.T) {
	h := NewAPIHandler(arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
