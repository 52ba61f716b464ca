package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/common"
	"github.com/ternarybob/rantradar/internal/interfaces"
	"github.com/ternarybob/rantradar/internal/models"
)

const (
	DefaultListLimit = 3
	MaxListLimit     = 100
)

// Service is the job state machine. Every transition is checked against the
// current stored status under a per-job lock and persisted as a whole row.
type Service struct {
	storage interfaces.JobStorage
	logger  arbor.ILogger
	now     func() time.Time
	locks   *keyedMutex
}

// NewService creates a new job service
func NewService(storage interfaces.JobStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
		locks:   newKeyedMutex(),
	}
}

// Create persists a new pending job. An empty query is a *models.ValidationError
// and a storage failure a *models.JobCreationError.
func (s *Service) Create(ctx context.Context, query string) (*models.Job, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &models.ValidationError{Field: "query", Message: "Query parameter is required"}
	}

	job := models.NewJob(common.NewJobID(), query, s.now())
	if err := s.storage.CreateJob(ctx, job); err != nil {
		s.logger.Error().
			Err(err).
			Str("query", query).
			Msg("Failed to create job")
		return nil, &models.JobCreationError{Err: err}
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Str("query", query).
		Msg("Job created")

	return job, nil
}

// Begin moves a pending job to processing
func (s *Service) Begin(ctx context.Context, jobID string) (*models.Job, error) {
	return s.transition(ctx, jobID, models.JobStatusProcessing, nil)
}

// Succeed attaches a validated result and completes a processing job
func (s *Service) Succeed(ctx context.Context, jobID string, result *models.AnalysisResult) (*models.Job, error) {
	if result == nil {
		return nil, fmt.Errorf("result is required to complete job %s", jobID)
	}
	if err := result.Validate(); err != nil {
		return nil, &models.StructuringError{Reason: "result failed validation", Err: err}
	}
	return s.transition(ctx, jobID, models.JobStatusCompleted, func(job *models.Job) {
		job.Result = result
	})
}

// Fail records an error message on a pending or processing job
func (s *Service) Fail(ctx context.Context, jobID string, message string) (*models.Job, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "Unknown error"
	}
	return s.transition(ctx, jobID, models.JobStatusFailed, func(job *models.Job) {
		job.ErrorMessage = message
	})
}

// Get returns a job by id
func (s *Service) Get(ctx context.Context, jobID string) (*models.Job, error) {
	return s.storage.GetJob(ctx, jobID)
}

// List returns the newest jobs first. limit <= 0 uses DefaultListLimit and is
// capped at MaxListLimit.
func (s *Service) List(ctx context.Context, limit int) ([]*models.Job, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.storage.ListJobs(ctx, &interfaces.JobListOptions{Limit: limit})
}

func (s *Service) transition(ctx context.Context, jobID string, next models.JobStatus, mutate func(*models.Job)) (*models.Job, error) {
	unlock := s.locks.lock(jobID)
	defer unlock()

	job, err := s.storage.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !job.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: job %s is %s, cannot move to %s", models.ErrInvalidTransition, jobID, job.Status, next)
	}

	previous := job.Status
	job.Status = next
	if mutate != nil {
		mutate(job)
	}
	job.UpdatedAt = s.now().UTC()

	if err := job.Validate(); err != nil {
		return nil, err
	}

	if err := s.storage.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job %s: %w", jobID, err)
	}

	if next == models.JobStatusFailed {
		s.logger.Warn().
			Str("job_id", jobID).
			Str("from", string(previous)).
			Str("error", job.ErrorMessage).
			Msg("Job failed")
	} else {
		s.logger.Info().
			Str("job_id", jobID).
			Str("from", string(previous)).
			Str("to", string(next)).
			Msg("Job status changed")
	}

	return job, nil
}

// IsNotFound reports whether err means the job does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrJobNotFound)
}

// keyedMutex serializes transitions per job id
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
