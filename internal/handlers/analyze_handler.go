package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/interfaces"
	"github.com/ternarybob/rantradar/internal/models"
)

const (
	maxRequestBody       = 1 << 20
	msgQueryRequired     = "Query parameter is required"
	msgUnexpectedFailure = "Unknown error occurred"
)

// AnalyzeHandler accepts analysis requests and returns a job id immediately
type AnalyzeHandler struct {
	dispatcher interfaces.JobDispatcher
	logger     arbor.ILogger
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(dispatcher interfaces.JobDispatcher, logger arbor.ILogger) *AnalyzeHandler {
	return &AnalyzeHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

type analyzeRequest struct {
	Query string `json:"query"`
}

// AnalyzeHandler creates a job and schedules it
// POST /api/analyze {"query": "sendgrid"}
func (h *AnalyzeHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	SetCORSHeaders(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
		return
	}

	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("Invalid analyze request body")
		WriteError(w, http.StatusBadRequest, msgQueryRequired)
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		WriteError(w, http.StatusBadRequest, msgQueryRequired)
		return
	}

	job, err := h.dispatcher.Submit(r.Context(), query)
	if err != nil {
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			WriteError(w, http.StatusBadRequest, validation.Error())
			return
		}

		h.logger.Error().
			Err(err).
			Str("query", query).
			Msg("Failed to accept analysis request")

		message := err.Error()
		if message == "" {
			message = msgUnexpectedFailure
		}
		WriteFailure(w, http.StatusInternalServerError, message)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"jobId":   job.ID,
		"status":  job.Status,
	})
}
