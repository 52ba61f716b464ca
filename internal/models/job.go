// -----------------------------------------------------------------------
// Job - Tracked unit of asynchronous complaint analysis
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus is the lifecycle state of an analysis job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no transition can leave this status
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// IsValid reports whether s is one of the four known states
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a legal forward transition.
// pending -> processing -> {completed | failed}; pending -> failed is allowed for
// jobs that never started (e.g. the queue rejected them).
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing || next == JobStatusFailed
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed
	}
	return false
}

// Job is the persisted analysis request. It is created pending and then mutated
// only by its own background task through the job service.
type Job struct {
	ID           string          `json:"id"`
	Query        string          `json:"query"`
	Status       JobStatus       `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Result       *AnalysisResult `json:"result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// NewJob creates a pending job for the given query
func NewJob(id, query string, now time.Time) *Job {
	return &Job{
		ID:        id,
		Query:     strings.TrimSpace(query),
		Status:    JobStatusPending,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// Validate checks the payload/status invariant: a result exists only on completed
// jobs and an error message only on failed jobs.
func (j *Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id is required")
	}
	if !j.Status.IsValid() {
		return fmt.Errorf("job %s has unknown status %q", j.ID, j.Status)
	}

	hasResult := j.Result != nil
	hasError := j.ErrorMessage != ""

	switch j.Status {
	case JobStatusCompleted:
		if !hasResult || hasError {
			return fmt.Errorf("completed job %s must carry a result and no error", j.ID)
		}
	case JobStatusFailed:
		if hasResult || !hasError {
			return fmt.Errorf("failed job %s must carry an error message and no result", j.ID)
		}
	default:
		if hasResult || hasError {
			return fmt.Errorf("%s job %s must not carry a result or error", j.Status, j.ID)
		}
	}
	return nil
}
