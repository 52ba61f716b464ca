// -----------------------------------------------------------------------
// Error taxonomy for request acceptance and background analysis
// -----------------------------------------------------------------------

package models

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when no job exists for an id
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidTransition is returned when a status change would regress or leave a terminal state
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// ValidationError is a malformed inbound request. No job is created.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// JobCreationError wraps a persistence failure while creating a job row
type JobCreationError struct {
	Err error
}

func (e *JobCreationError) Error() string {
	return fmt.Sprintf("failed to create job: %v", e.Err)
}

func (e *JobCreationError) Unwrap() error { return e.Err }

// UpstreamError is a non-success response from the forum API
type UpstreamError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("reddit API error: %d %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("reddit API error: %d %s", e.StatusCode, e.Endpoint)
}

// StructuringError means no schema-conformant AnalysisResult could be produced
type StructuringError struct {
	Reason string
	Err    error
}

func (e *StructuringError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("structuring failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("structuring failed: %s", e.Reason)
}

func (e *StructuringError) Unwrap() error { return e.Err }

// UnknownError wraps any other background failure, including recovered panics
type UnknownError struct {
	Err error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unexpected error: %v", e.Err)
}

func (e *UnknownError) Unwrap() error { return e.Err }

// ClassifyBackgroundError leaves known taxonomy errors untouched and wraps anything else as UnknownError
func ClassifyBackgroundError(err error) error {
	if err == nil {
		return nil
	}
	var upstream *UpstreamError
	var structuring *StructuringError
	var unknown *UnknownError
	if errors.As(err, &upstream) || errors.As(err, &structuring) || errors.As(err, &unknown) {
		return err
	}
	return &UnknownError{Err: err}
}
