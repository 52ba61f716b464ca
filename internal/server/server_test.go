package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/app"
	"github.com/ternarybob/rantradar/internal/common"
	"github.com/ternarybob/rantradar/internal/models"
)

func newTestServer(t *testing.T) (*Server, *app.App) {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = t.TempDir()
	cfg.Queue.PollInterval = "10ms"
	cfg.Reddit.BaseURL = "http://127.0.0.1:1" // never reached in these tests

	application, err := app.New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	return New(application), application
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_SubmitThenPoll(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, http.MethodPost, "/api/analyze", `{"query":"sendgrid"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var accepted struct {
		Success bool   `json:"success"`
		JobID   string `json:"jobId"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.True(t, accepted.Success)
	assert.Equal(t, "pending", accepted.Status)
	require.NotEmpty(t, accepted.JobID)

	rec = serve(s, http.MethodGet, "/api/jobs/"+accepted.JobID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var job models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, accepted.JobID, job.ID)
	assert.Equal(t, "sendgrid", job.Query)
	assert.Equal(t, models.JobStatusPending, job.Status)

	rec = serve(s, http.MethodGet, "/api/jobs?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), accepted.JobID)
}

func TestServer_RootAcceptsAnalyzePost(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, http.MethodPost, "/", `{"query":"twilio"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"jobId"`)
}

func TestServer_EmptyQueryRejected(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, http.MethodPost, "/api/analyze", `{"query":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Query parameter is required"}`, rec.Body.String())
}

func TestServer_PreflightAndCORS(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, http.MethodOptions, "/api/analyze", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_UnknownRoutes(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, http.MethodGet, "/api/jobs/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, http.MethodDelete, "/", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_VersionEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, common.GetVersion(), body["version"])
}

// Without an LLM key the research phase cannot start; the job must still reach
// a terminal state through the background workers.
func TestServer_BackgroundFailureIsPollable(t *testing.T) {
	s, application := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, application.Start(ctx))

	rec := serve(s, http.MethodPost, "/api/analyze", `{"query":"sendgrid"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var accepted struct {
		JobID string `json:"jobId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))

	var job models.Job
	require.Eventually(t, func() bool {
		rec := serve(s, http.MethodGet, "/api/jobs/"+accepted.JobID, "")
		if rec.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
			return false
		}
		return job.Status.IsTerminal()
	}, 10*time.Second, 20*time.Millisecond)

	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.NotEmpty(t, job.ErrorMessage)
	assert.Nil(t, job.Result)
}
