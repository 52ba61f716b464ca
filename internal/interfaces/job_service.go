package interfaces

import (
	"context"

	"github.com/ternarybob/rantradar/internal/models"
)

// JobService - the job state machine. Transitions are forward-only and terminal
// payloads never change once written.
type JobService interface {
	Create(ctx context.Context, query string) (*models.Job, error)
	Begin(ctx context.Context, jobID string) (*models.Job, error)
	Succeed(ctx context.Context, jobID string, result *models.AnalysisResult) (*models.Job, error)
	Fail(ctx context.Context, jobID string, message string) (*models.Job, error)
	Get(ctx context.Context, jobID string) (*models.Job, error)
	List(ctx context.Context, limit int) ([]*models.Job, error)
}

// JobDispatcher - accepts a query, creates the job and schedules its background run
type JobDispatcher interface {
	Submit(ctx context.Context, query string) (*models.Job, error)
}
